package domain

import "errors"

// ErrNotFound is the shared sentinel for lookups that produced nothing:
// an unknown cell id, no cell satisfying a distance constraint, an unknown
// run, or a fraud clone whose owner cannot be resolved. Callers are expected
// to wrap it with context via fmt.Errorf and test it with errors.Is.
var ErrNotFound = errors.New("not found")

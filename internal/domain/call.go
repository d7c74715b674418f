package domain

import (
	"time"
)

// FraudClass tags a call with the fraud pattern it carries. The zero value
// is FraudNone: a regular, organically generated call.
type FraudClass string

const (
	// FraudNone marks a regular call.
	FraudNone FraudClass = "NONE"

	// FraudFar marks an injected clone relocated to a distant cell with a
	// shifted time window and rewritten destination.
	FraudFar FraudClass = "FAR"

	// FraudUnusual marks a call flagged without relocation. Used when the
	// configuration forces the whole population to be fraudulent.
	FraudUnusual FraudClass = "UNUSUAL"
)

// Interval is a half-open call time window [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two intervals share any non-empty intersection.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// LocalDate returns the calendar day of the interval's start, used to group
// intervals for the per-day overlap check.
func (i Interval) LocalDate() string {
	return i.Start.Format("02/01/2006")
}

// Call is one call detail record (CDR). A call's ID is globally unique and
// stable once assigned; clones always receive a fresh ID.
type Call struct {
	ID          string     `json:"id"`
	Cell        Cell       `json:"cell"`
	Line        int        `json:"line"`
	Type        string     `json:"type"`
	Destination string     `json:"destination"`
	Time        Interval   `json:"time"`
	Cost        float64    `json:"cost"`
	Fraud       FraudClass `json:"fraud"`
}

// Clone returns a value copy of the call carrying the given fresh ID.
// Cloning never aliases: the copy and the original are distinct records
// from the moment the new ID is assigned.
func (c *Call) Clone(id string) *Call {
	clone := *c
	clone.ID = id
	return &clone
}

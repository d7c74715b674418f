package domain

import (
	"math/rand/v2"
	"time"
)

// DayKind classifies a calendar day for the peak/off-peak model.
type DayKind string

const (
	DayWeekday DayKind = "weekday"
	DayWeekend DayKind = "weekend"
)

// CallTypePicker draws a call type from the configured vocabulary,
// weighted by the per-type configuration.
type CallTypePicker interface {
	RandomCallType() string
}

// DateTimeModel supplies the temporal side of call generation: which day a
// call lands on, when it starts, how long it lasts and what it costs.
type DateTimeModel interface {
	// DayOfWeek draws a weighted day offset in [0, 7) from the run's
	// start date.
	DayOfWeek() int

	// StartDate returns the run epoch. Day offsets are relative to it.
	StartDate() time.Time

	// DateTime returns a concrete start timestamp within the applicable
	// peak/off-peak windows of the day at the given offset.
	DateTime(kind DayKind, dayOffset int) time.Time

	// CallDuration returns a duration in minutes for a call of the given
	// type starting at the given local time. isoDay is the ISO day of week
	// (1=Monday .. 7=Sunday).
	CallDuration(isoDay int, callType string, local time.Time, avgDuration, avgOffPeakDuration int64) int

	// CallCost prices a call once its type, time and duration are fixed.
	CallCost(call *Call) (float64, error)
}

// NumberPlan generates the pieces of a phone number. Codes and digits are
// composed by callers into 11-digit numbers.
type NumberPlan interface {
	RandomCode(category, region string) string
	RandomDigits(n int) string
}

// BucketBuilder builds the per-subscriber address book: for every call type
// a pool of destination numbers sized to the pre-drawn tally, so each type
// has enough distinct destinations for the calls it will make.
type BucketBuilder interface {
	BuildBucket(sub *Subscriber, callTypeTally map[string]int) map[string][]string
}

// CellSource is the read-only cell registry contract consumed by the
// generation engine. Implementations must be safe for concurrent reads;
// the caller supplies its own per-run rand source.
type CellSource interface {
	// RandomCell picks a cell uniformly over the full registry.
	RandomCell(rng *rand.Rand) (Cell, error)

	// CellByID returns the cell with the given id, or ErrNotFound.
	CellByID(id string) (Cell, error)

	// RandomCellAtLeast picks uniformly among all cells at least
	// minDistanceMeters away from the referenced cell, or ErrNotFound if
	// none qualifies.
	RandomCellAtLeast(fromID string, minDistanceMeters float64, rng *rand.Rand) (Cell, error)
}

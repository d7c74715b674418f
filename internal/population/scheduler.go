package population

import (
	"fmt"
	"time"

	"github.com/opensource-telco/lyrebird/internal/domain"
)

// createCalls populates one subscriber's call list to exactly NumCalls
// entries with non-overlapping time windows.
func (g *Generator) createCalls(sub *domain.Subscriber) error {
	// Call types are drawn up front so the destination buckets can be
	// sized to the per-type tally before any call is scheduled.
	callTypes := make([]string, sub.NumCalls)
	tally := make(map[string]int)
	for i := range callTypes {
		callType := g.callTypes.RandomCallType()
		callTypes[i] = callType
		tally[callType]++
	}

	bucket := g.buckets.BuildBucket(sub, tally)

	cell, err := g.homeCell(sub.PhoneNumber)
	if err != nil {
		return err
	}

	usedTimes := make(map[string][]domain.Interval)

	for i := 0; i < sub.NumCalls; i++ {
		call := &domain.Call{
			ID:    newCallID(),
			Cell:  cell,
			Type:  callTypes[i],
			Line:  g.randomLine(sub.PhoneLines),
			Fraud: domain.FraudNone,
		}

		destinations := bucket[call.Type]
		call.Destination = destinations[g.rng.IntN(len(destinations))]

		if err := g.scheduleInterval(sub, call, usedTimes); err != nil {
			return err
		}

		cost, err := g.dateTime.CallCost(call)
		if err != nil {
			return err
		}
		call.Cost = cost

		sub.Calls = append(sub.Calls, call)
	}

	return nil
}

// scheduleInterval rejection-samples a time window for the call until it
// does not collide with any accepted interval on the same calendar date.
// With MaxScheduleAttempts unset the loop is unbounded: a configuration
// asking for more calls than fit in the week will spin here forever.
func (g *Generator) scheduleInterval(sub *domain.Subscriber, call *domain.Call, usedTimes map[string][]domain.Interval) error {
	avgDuration := sub.AvgCallDuration[call.Type]
	avgOffPeakDuration := sub.AvgOffPeakCallDuration[call.Type]

	attempts := 0
	for {
		attempts++
		if g.cfg.MaxScheduleAttempts > 0 && attempts > g.cfg.MaxScheduleAttempts {
			return fmt.Errorf("no free interval for %s after %d attempts", sub.PhoneNumber, g.cfg.MaxScheduleAttempts)
		}

		dayOffset := g.dateTime.DayOfWeek()
		day := g.dateTime.StartDate().AddDate(0, 0, dayOffset)
		isoDay := isoDay(day.Weekday())

		kind := domain.DayWeekday
		if isoDay == 6 || isoDay == 7 {
			kind = domain.DayWeekend
		}

		start := g.dateTime.DateTime(kind, dayOffset)
		duration := g.dateTime.CallDuration(isoDay, call.Type, start, avgDuration, avgOffPeakDuration)
		call.Time = domain.Interval{Start: start, End: start.Add(time.Duration(duration) * time.Minute)}

		if g.acceptInterval(usedTimes, call.Time) {
			return nil
		}
	}
}

// acceptInterval records the interval if it does not intersect any accepted
// interval on the same calendar date, and reports whether it was accepted.
func (g *Generator) acceptInterval(usedTimes map[string][]domain.Interval, interval domain.Interval) bool {
	date := interval.LocalDate()

	for _, used := range usedTimes[date] {
		if interval.Overlaps(used) {
			return false
		}
	}

	usedTimes[date] = append(usedTimes[date], interval)
	return true
}

// randomLine picks a line index with the reference rounding bias, clamped
// to keep the 0-based index below the line count.
func (g *Generator) randomLine(lineCount int) int {
	line := int(g.rng.Float64()*float64(lineCount) + 0.5)
	if line >= lineCount {
		line = lineCount - 1
	}
	return line
}

// isoDay converts a time.Weekday to ISO numbering, 1=Monday .. 7=Sunday.
func isoDay(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

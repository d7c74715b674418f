package dist

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/opensource-telco/lyrebird/internal/domain"
)

const secondsPerDay = 24 * 60 * 60

// DateTimeDistribution implements the temporal model: weighted day-of-week
// draws, peak/off-peak start timestamps, gaussian call durations around the
// subscriber's per-type average and CEL-priced call costs.
type DateTimeDistribution struct {
	cfg       domain.GeneratorConfig
	rng       *rand.Rand
	startDate time.Time
	weights   []float64
	total     float64
	cost      *CostModel
}

// NewDateTimeDistribution builds the temporal model for one run.
func NewDateTimeDistribution(cfg domain.GeneratorConfig, rng *rand.Rand) (*DateTimeDistribution, error) {
	start, err := resolveStartDate(cfg.StartDate)
	if err != nil {
		return nil, err
	}

	cost, err := NewCostModel(cfg.CostExpression)
	if err != nil {
		return nil, err
	}

	weights := cfg.DayOfWeekWeights
	if len(weights) != 7 {
		weights = []float64{1, 1, 1, 1, 1, 1, 1}
	}

	d := &DateTimeDistribution{
		cfg:       cfg,
		rng:       rng,
		startDate: start,
		weights:   weights,
		cost:      cost,
	}
	for _, w := range weights {
		if w > 0 {
			d.total += w
		}
	}
	if d.total == 0 {
		return nil, fmt.Errorf("day of week weights sum to zero")
	}

	return d, nil
}

// resolveStartDate parses the configured epoch, defaulting to the Monday of
// the current week at midnight UTC.
func resolveStartDate(configured string) (time.Time, error) {
	if configured != "" {
		t, err := time.Parse("2006-01-02", configured)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid start date %q: %w", configured, err)
		}
		return t.UTC(), nil
	}

	now := time.Now().UTC()
	monday := now.AddDate(0, 0, 1-ISODay(now.Weekday()))
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ISODay converts a time.Weekday to ISO numbering, 1=Monday .. 7=Sunday.
func ISODay(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

// DayOfWeek draws a weighted day offset in [0, 7).
func (d *DateTimeDistribution) DayOfWeek() int {
	target := d.rng.Float64() * d.total
	cumulative := 0.0
	for i, w := range d.weights {
		if w <= 0 {
			continue
		}
		cumulative += w
		if target < cumulative {
			return i
		}
	}
	return len(d.weights) - 1
}

// StartDate returns the run epoch.
func (d *DateTimeDistribution) StartDate() time.Time {
	return d.startDate
}

// DateTime returns a start timestamp on the day at the given offset. On
// weekdays the configured peak probability decides whether the timestamp
// falls inside the peak window; weekends are entirely off-peak.
func (d *DateTimeDistribution) DateTime(kind domain.DayKind, dayOffset int) time.Time {
	day := d.startDate.AddDate(0, 0, dayOffset)

	var second int
	if kind == domain.DayWeekend {
		second = d.rng.IntN(secondsPerDay)
	} else if d.rng.Float64() < d.cfg.PeakProbability {
		second = d.randomPeakSecond()
	} else {
		second = d.randomOffPeakSecond()
	}

	return day.Add(time.Duration(second) * time.Second)
}

func (d *DateTimeDistribution) randomPeakSecond() int {
	start := d.cfg.PeakStartHour * 3600
	end := d.cfg.PeakEndHour * 3600
	return start + d.rng.IntN(end-start)
}

func (d *DateTimeDistribution) randomOffPeakSecond() int {
	before := d.cfg.PeakStartHour * 3600
	after := secondsPerDay - d.cfg.PeakEndHour*3600

	n := d.rng.IntN(before + after)
	if n < before {
		return n
	}
	return d.cfg.PeakEndHour*3600 + (n - before)
}

// offPeak reports whether a local time counts as off-peak: any weekend
// moment, or a weekday moment outside the peak window.
func (d *DateTimeDistribution) offPeak(isoDay int, local time.Time) bool {
	if isoDay == 6 || isoDay == 7 {
		return true
	}
	hour := local.Hour()
	return hour < d.cfg.PeakStartHour || hour >= d.cfg.PeakEndHour
}

// CallDuration draws a duration in minutes around the subscriber's average
// for the call type, switching to the off-peak average outside peak hours.
// Durations are floored at one minute.
func (d *DateTimeDistribution) CallDuration(isoDay int, callType string, local time.Time, avgDuration, avgOffPeakDuration int64) int {
	params := d.cfg.OutgoingCallParams[callType]

	mean := float64(avgDuration)
	stdDev := params.DurationStdDev
	if d.offPeak(isoDay, local) {
		mean = float64(avgOffPeakDuration)
		stdDev = params.OffPeakDurationStdDev
	}

	duration := int(math.Round(d.rng.NormFloat64()*stdDev + mean))
	if duration < 1 {
		duration = 1
	}
	return duration
}

// CallCost prices a call whose type, time and duration are fixed.
func (d *DateTimeDistribution) CallCost(call *domain.Call) (float64, error) {
	isoDay := ISODay(call.Time.Start.Weekday())

	return d.cost.Amount(map[string]any{
		"call_type":        call.Type,
		"duration_minutes": call.Time.End.Sub(call.Time.Start).Minutes(),
		"off_peak":         d.offPeak(isoDay, call.Time.Start),
		"weekend":          isoDay == 6 || isoDay == 7,
		"line":             call.Line,
	})
}

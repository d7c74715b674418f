// Package population implements the generation engine: it builds a
// population of simulated subscribers, schedules their calls from the
// configured distributions and injects fraudulent calls afterwards.
package population

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/opensource-telco/lyrebird/internal/dist"
	"github.com/opensource-telco/lyrebird/internal/domain"
	"github.com/opensource-telco/lyrebird/internal/stats"
)

// Generator drives one population generation run. A Generator holds its own
// rand source and per-run state, so concurrent runs each need their own
// instance; only the cell registry is shared between them.
type Generator struct {
	cfg   domain.GeneratorConfig
	cells domain.CellSource
	rng   *rand.Rand

	callTypes domain.CallTypePicker
	dateTime  domain.DateTimeModel
	numbers   domain.NumberPlan
	buckets   domain.BucketBuilder

	// homeCells pins each phone number to the cell of its first call for
	// the remainder of the run.
	homeCells map[string]domain.Cell
}

// NewGenerator builds a generator over the shared cell registry. A nil rng
// gets a freshly seeded per-run source.
func NewGenerator(cfg domain.GeneratorConfig, cells domain.CellSource, rng *rand.Rand) (*Generator, error) {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	}

	callTypes, err := dist.NewCallTypeDistribution(cfg, rng)
	if err != nil {
		return nil, err
	}

	dateTime, err := dist.NewDateTimeDistribution(cfg, rng)
	if err != nil {
		return nil, err
	}

	numbers := dist.NewPhoneNumberGenerator(rng)

	return &Generator{
		cfg:       cfg,
		cells:     cells,
		rng:       rng,
		callTypes: callTypes,
		dateTime:  dateTime,
		numbers:   numbers,
		buckets:   dist.NewPhoneBucketGenerator(numbers),
		homeCells: make(map[string]domain.Cell),
	}, nil
}

// Generate creates the full population: subscribers in sibling pairs, their
// calls, then one fraud injection pass over the whole set. An odd
// configured size is rounded up to the next pair.
func (g *Generator) Generate() (*domain.Population, error) {
	pop := &domain.Population{
		Subscribers: make([]*domain.Subscriber, 0, g.cfg.NumSubscribers+1),
	}

	for i := 0; i < g.cfg.NumSubscribers; i += 2 {
		one, two := g.buildPair()

		slog.Debug("creating calls", "subscriber", one.PhoneNumber, "count", one.NumCalls)
		if err := g.createCalls(one); err != nil {
			return nil, err
		}

		slog.Debug("creating calls", "subscriber", two.PhoneNumber, "count", two.NumCalls)
		if err := g.createCalls(two); err != nil {
			return nil, err
		}

		pop.Subscribers = append(pop.Subscribers, one, two)
	}

	if err := g.injectFraud(pop); err != nil {
		return nil, err
	}

	return pop, nil
}

// buildPair builds two sibling subscribers, splitting each gaussian pair
// between them.
func (g *Generator) buildPair() (*domain.Subscriber, *domain.Subscriber) {
	one := domain.NewSubscriber()
	two := domain.NewSubscriber()

	one.PhoneNumber = g.randomPhoneNumber()
	two.PhoneNumber = g.randomPhoneNumber()

	calls := stats.SamplePair(g.rng, g.cfg.CallsMade.Mean, g.cfg.CallsMade.StdDev)
	one.NumCalls = int(calls.One)
	two.NumCalls = int(calls.Two)

	for _, callType := range g.cfg.CallTypes {
		params := g.cfg.OutgoingCallParams[callType]

		peak := stats.SamplePair(g.rng, params.DurationMean, params.DurationStdDev)
		one.AvgCallDuration[callType] = int64(peak.One)
		two.AvgCallDuration[callType] = int64(peak.Two)

		offPeak := stats.SamplePair(g.rng, params.OffPeakDurationMean, params.OffPeakDurationStdDev)
		one.AvgOffPeakCallDuration[callType] = int64(offPeak.One)
		two.AvgOffPeakCallDuration[callType] = int64(offPeak.Two)
	}

	one.PhoneLines, two.PhoneLines = g.phoneLinePair()

	return one, two
}

// phoneLinePair resolves the line counts for one sibling pair: a mean of at
// most one line means single-line accounts, a degenerate spread means the
// flat mean for both, anything else is a gaussian pair floored at one line.
func (g *Generator) phoneLinePair() (int, int) {
	lines := g.cfg.PhoneLines

	if lines.Mean <= 1 {
		return 1, 1
	}
	if lines.StdDev <= 1 {
		return int(lines.Mean), int(lines.Mean)
	}

	pair := stats.SamplePair(g.rng, lines.Mean, lines.StdDev)
	return int(pair.One), int(pair.Two)
}

// randomPhoneNumber composes a fresh 11-digit number from the number plan.
func (g *Generator) randomPhoneNumber() string {
	code := g.numbers.RandomCode("Local", "")
	return code + g.numbers.RandomDigits(dist.PhoneNumberLength-len(code))
}

// homeCell returns the cell pinned to a phone number, assigning a random
// one on first use. Subscribers do not move within a run outside the fraud
// path.
func (g *Generator) homeCell(phoneNumber string) (domain.Cell, error) {
	if cell, ok := g.homeCells[phoneNumber]; ok {
		return cell, nil
	}

	cell, err := g.cells.RandomCell(g.rng)
	if err != nil {
		return domain.Cell{}, fmt.Errorf("failed to assign home cell: %w", err)
	}
	g.homeCells[phoneNumber] = cell
	return cell, nil
}

func newCallID() string {
	return uuid.NewString()
}

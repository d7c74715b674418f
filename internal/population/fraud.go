package population

import (
	"fmt"
	"time"

	"github.com/opensource-telco/lyrebird/internal/domain"
)

// poolEntry pairs a call with the index of its owning subscriber, so the
// injector never has to search the population for a clone's owner.
type poolEntry struct {
	call  *domain.Call
	owner int
}

// injectFraud post-processes the generated population. With ForceAll set
// every call is reclassified UNUSUAL in place. With a positive fraud count
// N it clones N calls drawn with replacement from the whole population,
// mutates each clone into a FAR pattern and appends it to the owner of the
// original, growing the population by exactly N calls. Fraud clones may
// overlap the originals they derive from; that is the signal detectors are
// meant to find, so no overlap check runs here.
func (g *Generator) injectFraud(pop *domain.Population) error {
	if g.cfg.Fraud.ForceAll {
		for _, sub := range pop.Subscribers {
			for _, call := range sub.Calls {
				call.Fraud = domain.FraudUnusual
			}
		}
	}

	if g.cfg.Fraud.Count <= 0 {
		return nil
	}

	var pool []poolEntry
	for owner, sub := range pop.Subscribers {
		for _, call := range sub.Calls {
			pool = append(pool, poolEntry{call: call, owner: owner})
		}
	}
	if len(pool) == 0 {
		return nil
	}

	for i := 0; i < g.cfg.Fraud.Count; i++ {
		entry := pool[g.rng.IntN(len(pool))]

		clone, err := g.toFraudCall(entry.call)
		if err != nil {
			return err
		}

		if entry.owner < 0 || entry.owner >= len(pop.Subscribers) {
			return fmt.Errorf("no subscriber owns call %s: %w", entry.call.ID, domain.ErrNotFound)
		}

		// The clone id assigned above made the copy distinct; the insert
		// gets its own fresh id on top, matching the reference generator.
		clone.ID = newCallID()
		owner := pop.Subscribers[entry.owner]
		owner.Calls = append(owner.Calls, clone)
	}

	return nil
}

// toFraudCall clones a call and mutates the clone into a FAR fraud
// pattern: shifted start, short random duration, a distant cell, a
// re-rolled type, a rewritten destination suffix and a recomputed cost.
func (g *Generator) toFraudCall(original *domain.Call) (*domain.Call, error) {
	clone := original.Clone(newCallID())

	startShift := time.Duration(5+g.rng.IntN(1495)) * time.Second
	duration := time.Duration(1+g.rng.IntN(599)) * time.Second
	start := original.Time.Start.Add(startShift)
	clone.Time = domain.Interval{Start: start, End: start.Add(duration)}

	minDistance := float64(g.cfg.Fraud.DistanceKm) * 1000
	cell, err := g.cells.RandomCellAtLeast(original.Cell.ID, minDistance, g.rng)
	if err != nil {
		return nil, err
	}
	clone.Cell = cell

	clone.Type = g.callTypes.RandomCallType()
	clone.Destination = g.rewriteSuffix(original.Destination)

	cost, err := g.dateTime.CallCost(clone)
	if err != nil {
		return nil, err
	}
	clone.Cost = cost
	clone.Fraud = domain.FraudFar

	return clone, nil
}

// rewriteSuffix replaces the trailing four digits of a destination number
// with a fresh random suffix, preserving the prefix. Collisions with real
// destinations are acceptable and not deduplicated.
func (g *Generator) rewriteSuffix(destination string) string {
	suffix := fmt.Sprintf("%04d", 1+g.rng.IntN(9999))
	if len(destination) < 4 {
		return suffix
	}
	return destination[:len(destination)-4] + suffix
}

// Package dist implements the configurable distributions consumed by the
// population engine: call type weighting, date/time and cost modeling,
// phone number formatting and destination bucket generation.
package dist

import (
	"fmt"
	"math/rand/v2"

	"github.com/opensource-telco/lyrebird/internal/domain"
)

// CallTypeDistribution draws call types from the configured vocabulary,
// weighted by the per-type weight (unset weights count as 1).
type CallTypeDistribution struct {
	types      []string
	cumulative []float64
	total      float64
	rng        *rand.Rand
}

// NewCallTypeDistribution builds a weighted distribution over the
// configured call types.
func NewCallTypeDistribution(cfg domain.GeneratorConfig, rng *rand.Rand) (*CallTypeDistribution, error) {
	if len(cfg.CallTypes) == 0 {
		return nil, fmt.Errorf("no call types configured")
	}

	d := &CallTypeDistribution{
		types:      cfg.CallTypes,
		cumulative: make([]float64, len(cfg.CallTypes)),
		rng:        rng,
	}

	for i, name := range cfg.CallTypes {
		weight := cfg.OutgoingCallParams[name].Weight
		if weight <= 0 {
			weight = 1
		}
		d.total += weight
		d.cumulative[i] = d.total
	}

	return d, nil
}

// RandomCallType returns a weighted pick from the vocabulary.
func (d *CallTypeDistribution) RandomCallType() string {
	target := d.rng.Float64() * d.total
	for i, c := range d.cumulative {
		if target < c {
			return d.types[i]
		}
	}
	return d.types[len(d.types)-1]
}

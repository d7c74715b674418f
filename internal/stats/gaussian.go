// Package stats holds the random sampling primitives of the generation
// engine.
package stats

import "math/rand/v2"

// Pair holds two independent draws from the same normal distribution.
// Subscribers are always generated as siblings, one value per sibling.
type Pair struct {
	One float64
	Two float64
}

// SamplePair draws two independent values from Normal(mean, stdDev),
// discarding and redrawing the whole pair until both values are >= 1.
// Values below 1 would truncate to empty call lists, zero-line accounts or
// zero-minute averages, so the domain floor is 1. With a mean well below 1
// and a small stdDev this loop can take many iterations; callers control
// the parameters.
func SamplePair(rng *rand.Rand, mean, stdDev float64) Pair {
	for {
		p := Pair{
			One: rng.NormFloat64()*stdDev + mean,
			Two: rng.NormFloat64()*stdDev + mean,
		}
		if p.One >= 1 && p.Two >= 1 {
			return p
		}
	}
}

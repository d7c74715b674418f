package stats

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplePairFloor(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	cases := []struct {
		name   string
		mean   float64
		stdDev float64
	}{
		{"wide spread", 2, 5},
		{"zero std dev", 3, 0},
		{"mean at floor", 1, 0},
		{"narrow spread", 20, 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i < 1_000; i++ {
				p := SamplePair(rng, tc.mean, tc.stdDev)
				require.GreaterOrEqual(t, p.One, 1.0)
				require.GreaterOrEqual(t, p.Two, 1.0)
			}
		})
	}
}

func TestSamplePairZeroStdDevIsDegenerate(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	p := SamplePair(rng, 5, 0)
	assert.Equal(t, 5.0, p.One)
	assert.Equal(t, 5.0, p.Two)
}

func TestSamplePairMeanConverges(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))

	const draws = 20_000
	sum := 0.0
	for i := 0; i < draws; i++ {
		p := SamplePair(rng, 50, 10)
		sum += p.One + p.Two
	}

	// The >=1 floor barely truncates a Normal(50, 10), so the sample mean
	// should sit close to the configured one.
	assert.InDelta(t, 50.0, sum/(2*draws), 0.5)
}

package dist

import (
	"github.com/opensource-telco/lyrebird/internal/domain"
)

// PhoneBucketGenerator builds the per-subscriber address book: one
// destination pool per call type, sized to the pre-drawn tally so every
// call of that type can pick a distinct destination.
type PhoneBucketGenerator struct {
	plan domain.NumberPlan
}

// NewPhoneBucketGenerator builds a bucket generator over a number plan.
func NewPhoneBucketGenerator(plan domain.NumberPlan) *PhoneBucketGenerator {
	return &PhoneBucketGenerator{plan: plan}
}

// BuildBucket returns a map from call type to destination numbers. Types
// with a zero tally get no entry; every listed type has at least one
// destination.
func (g *PhoneBucketGenerator) BuildBucket(sub *domain.Subscriber, callTypeTally map[string]int) map[string][]string {
	bucket := make(map[string][]string, len(callTypeTally))

	for callType, count := range callTypeTally {
		if count < 1 {
			continue
		}

		numbers := make([]string, 0, count)
		for i := 0; i < count; i++ {
			code := g.plan.RandomCode(callType, "")
			numbers = append(numbers, code+g.plan.RandomDigits(PhoneNumberLength-len(code)))
		}
		bucket[callType] = numbers
	}

	return bucket
}

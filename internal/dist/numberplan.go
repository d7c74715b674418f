package dist

import (
	"math/rand/v2"
	"strings"
)

// PhoneNumberLength is the total digit count of a generated number.
const PhoneNumberLength = 11

// defaultCodes maps a call category to its dialing prefixes. Region-specific
// overrides live under "category/region".
var defaultCodes = map[string][]string{
	"Local":         {"020", "0113", "0117", "0121", "0131", "0141", "0161"},
	"National":      {"01", "02"},
	"International": {"0033", "0034", "0039", "0044", "0049"},
	"Mobile":        {"074", "075", "077", "078", "079"},
}

// PhoneNumberGenerator composes phone numbers from a dialing plan table and
// random digit suffixes.
type PhoneNumberGenerator struct {
	codes map[string][]string
	rng   *rand.Rand
}

// NewPhoneNumberGenerator builds a generator over the default dialing plan.
func NewPhoneNumberGenerator(rng *rand.Rand) *PhoneNumberGenerator {
	return &PhoneNumberGenerator{codes: defaultCodes, rng: rng}
}

// RandomCode picks a dialing prefix for a category, preferring a
// region-specific entry when one exists. Unknown categories fall back to a
// local prefix.
func (g *PhoneNumberGenerator) RandomCode(category, region string) string {
	if region != "" {
		if codes, ok := g.codes[category+"/"+region]; ok && len(codes) > 0 {
			return codes[g.rng.IntN(len(codes))]
		}
	}

	codes, ok := g.codes[category]
	if !ok || len(codes) == 0 {
		codes = g.codes["Local"]
	}
	return codes[g.rng.IntN(len(codes))]
}

// RandomDigits returns n random decimal digits.
func (g *PhoneNumberGenerator) RandomDigits(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + g.rng.IntN(10)))
	}
	return b.String()
}

// RandomNumber composes a full number: a category prefix padded with random
// digits to the standard length.
func (g *PhoneNumberGenerator) RandomNumber(category, region string) string {
	code := g.RandomCode(category, region)
	return code + g.RandomDigits(PhoneNumberLength-len(code))
}

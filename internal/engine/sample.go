package engine

import (
	"math/rand/v2"

	"github.com/roach88/doerun/internal/doe"
)

// NewRand returns a generator seeded from an opaque seed token.
// Equal tokens always produce equal sequences.
func NewRand(seed string) *rand.Rand {
	s1, s2 := doe.SeedState(seed)
	return rand.New(rand.NewPCG(s1, s2))
}

// Sample draws one value per factor, in factor order, consuming exactly one
// draw per factor with candidates. Factors without candidates get
// doe.Placeholder and consume no draw.
func Sample(rng *rand.Rand, factors []doe.FactorDefinition) []doe.SampledFactor {
	sampled := make([]doe.SampledFactor, len(factors))
	for i, f := range factors {
		value := doe.Placeholder
		if f.HasCandidates() {
			value = f.Candidates[rng.IntN(len(f.Candidates))]
		}
		sampled[i] = doe.SampledFactor{Label: f.Label, Value: value}
	}
	return sampled
}

// SampleSeed seeds a fresh generator with seed and samples factors.
func SampleSeed(seed string, factors []doe.FactorDefinition) []doe.SampledFactor {
	return Sample(NewRand(seed), factors)
}

package doe

import (
	"fmt"
	"strconv"
)

// Reserved row keys in a factor table.
const (
	KeyExcursion = "EXCURSION"
	KeyVignette  = "VIGNETTE"
)

// Placeholder is the value assigned to a factor that has no candidates.
const Placeholder = "N/A"

// FactorDefinition is one ordinary factor row: a label and its candidate values.
// Candidates never contain empty strings; a factor may have no candidates.
type FactorDefinition struct {
	Label      string   `json:"label" yaml:"label"`
	Candidates []string `json:"candidates" yaml:"candidates"`
}

// HasCandidates reports whether the factor can be sampled.
func (f FactorDefinition) HasCandidates() bool {
	return len(f.Candidates) > 0
}

// FactorTable is the parsed factor-definition source.
//
// Excursions and Vignettes are single slots: a later reserved row replaces
// an earlier one rather than appending to it.
type FactorTable struct {
	Factors    []FactorDefinition `json:"factors" yaml:"factors"`
	Excursions []string           `json:"excursions" yaml:"excursions"`
	Vignettes  []string           `json:"vignettes" yaml:"vignettes"`
}

// SeedTable is an ordered list of opaque seed tokens. Selection is positional.
type SeedTable []string

// Select returns the seed for a repetition index (repetition mod len).
// Returns a MALFORMED_INPUT error if the table is empty.
func (s SeedTable) Select(repetition int) (string, error) {
	if len(s) == 0 {
		return "", NewMalformedInputError("", "seed table is empty", nil)
	}
	if repetition < 0 {
		return "", fmt.Errorf("select seed: negative repetition %d", repetition)
	}
	return s[repetition%len(s)], nil
}

// RunCombination is one element of the excursion × vignette product.
// Index is the 0-based position in enumeration order (excursions outer).
type RunCombination struct {
	Index     int    `json:"index" yaml:"index"`
	Excursion string `json:"excursion" yaml:"excursion"`
	Vignette  string `json:"vignette" yaml:"vignette"`
}

// SampledFactor is the value chosen for one factor in one run.
type SampledFactor struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// RunInstance is one fully specified simulation run.
// Factors preserve factor-table load order.
type RunInstance struct {
	RunNumber   int             `json:"run_number" yaml:"run_number"`
	Combination int             `json:"combination" yaml:"combination"`
	Repetition  int             `json:"repetition" yaml:"repetition"`
	Seed        string          `json:"seed" yaml:"seed"`
	Factors     []SampledFactor `json:"factors" yaml:"factors"`
	Excursion   string          `json:"excursion" yaml:"excursion"`
	Vignette    string          `json:"vignette" yaml:"vignette"`
}

// Value returns the sampled value for a factor label.
// If a label appears more than once, the last occurrence wins.
func (r RunInstance) Value(label string) (string, bool) {
	value, found := "", false
	for _, f := range r.Factors {
		if f.Label == label {
			value, found = f.Value, true
		}
	}
	return value, found
}

// RunNumber computes the dense 1-based run number for a
// (combination, repetition) pair.
func RunNumber(combinationIndex, repetition, runsPerCombination int) int {
	return combinationIndex*runsPerCombination + repetition + 1
}

// ArtifactName returns the deterministic file name for a run number.
func ArtifactName(runNumber int) string {
	return "run_" + strconv.Itoa(runNumber) + ".txt"
}

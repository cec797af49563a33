package testutil

// FixedBatchIDGenerator generates the same batch id every time.
//
// This enables golden comparison of manifests, which otherwise embed a
// time-sortable UUIDv7.
//
// Thread-safety: FixedBatchIDGenerator is stateless and safe for concurrent use.
type FixedBatchIDGenerator struct {
	id string
}

// NewFixedBatchIDGenerator creates a new fixed batch id generator.
// If id is empty, Generate() returns "test-batch-default".
func NewFixedBatchIDGenerator(id string) *FixedBatchIDGenerator {
	if id == "" {
		id = "test-batch-default"
	}
	return &FixedBatchIDGenerator{id: id}
}

// Generate returns the fixed batch id.
//
// Implements engine.BatchIDGenerator.
func (g *FixedBatchIDGenerator) Generate() string {
	return g.id
}

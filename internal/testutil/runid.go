package testutil

// FixedRunIDGenerator returns the same run id every time.
//
// This keeps the runs table deterministic in tests. If id is empty,
// Generate() returns "test-run-default".
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a new fixed run id generator.
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run id.
//
// Implements pipeline.RunIDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}

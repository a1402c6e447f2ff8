package testutil

// FixedCallIDGenerator generates the same call id every time.
//
// Router logs carry the call id; a fixed value keeps captured logs stable
// for comparison in tests.
//
// Thread-safety: FixedCallIDGenerator is stateless and safe for concurrent use.
type FixedCallIDGenerator struct {
	id string
}

// NewFixedCallIDGenerator creates a new fixed call id generator.
// If id is empty, Generate() returns "test-call-default".
func NewFixedCallIDGenerator(id string) *FixedCallIDGenerator {
	if id == "" {
		id = "test-call-default"
	}
	return &FixedCallIDGenerator{id: id}
}

// Generate returns the fixed call id.
//
// Implements memorybank.CallIDGenerator.
func (g *FixedCallIDGenerator) Generate() string {
	return g.id
}

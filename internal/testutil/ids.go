package testutil

// FixedSessionGenerator hands out the same session id every time.
//
// Scenario traces embed the session id, so golden files only stay byte-identical
// when the id is pinned. Unlike engine.FixedGenerator, which walks a list, this
// one never runs out.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a generator for the given id.
//
// The id is typically set in the scenario YAML:
//
//	session_id: "scenario-session-0001"
//
// If id is empty, Generate() returns "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session id.
//
// Implements engine.IDGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}

package onward

// State marks a type as a typed payload exchanged between operations.
// A state value is produced by exactly one operation per run, recorded
// under its OutputKey, and handed to every operation that declares the
// same type as a parameter.
//
// Concrete state types embed Model to satisfy the interface:
//
//	type ParseResult struct {
//	    onward.Model
//	    Percentage float64
//	}
//
// The orchestrator never mutates a recorded state, but it also does not
// copy it: every consumer receives the same value the producer returned.
// Operations that mutate a shared state must bring their own
// synchronization when run under a concurrent executor.
type State interface {
	onwardState()
}

// Model is the embeddable base for state payload types.
type Model struct{}

func (Model) onwardState() {}

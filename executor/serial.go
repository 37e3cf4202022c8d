package executor

import (
	"fmt"
	"time"

	"github.com/Zwork101/onward"
)

// Serial executes units synchronously in the calling goroutine. Submit
// pushes onto a stack of deferred calls; JoinNext pops the most
// recently submitted unit and runs it, so a batch executes in
// last-submitted-first order. Nothing runs before JoinNext, which is
// why Close has nothing to cancel.
//
// Serial is driven by a single orchestrator goroutine and is not safe
// for concurrent use.
type Serial struct {
	schedule []Unit
}

// NewSerial creates a Serial executor.
func NewSerial() *Serial {
	return &Serial{}
}

// Running reports whether any unit is awaiting execution.
func (s *Serial) Running() bool { return len(s.schedule) > 0 }

// Submit pushes units onto the deferred-call stack.
func (s *Serial) Submit(units ...Unit) error {
	s.schedule = append(s.schedule, units...)
	return nil
}

// SubmitSuspending always fails: Serial has no cooperative scheduler.
func (s *Serial) SubmitSuspending(_ ...SuspendingUnit) error {
	return fmt.Errorf("serial executor: %w", onward.ErrSuspendNotSupported)
}

// JoinNext pops the most recently submitted unit and executes it in the
// calling goroutine. Execution is synchronous, so the timeout does not
// apply.
func (s *Serial) JoinNext(_ time.Duration) (Completion, error) {
	if len(s.schedule) == 0 {
		return Completion{}, fmt.Errorf("serial executor: %w", onward.ErrNotRunning)
	}

	u := s.schedule[len(s.schedule)-1]
	s.schedule = s.schedule[:len(s.schedule)-1]

	start := time.Now()
	value, err := u.Call()
	if err != nil {
		return Completion{Key: u.Key}, err
	}
	return Completion{Key: u.Key, Value: value, Elapsed: time.Since(start)}, nil
}

// Close drops all deferred units.
func (s *Serial) Close() error {
	s.schedule = nil
	return nil
}

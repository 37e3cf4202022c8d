package onward

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Zwork101/onward/id"
)

// Plan is the long-lived root context for a single run. It carries the
// run identifier, the logger, an immutable configuration value bag, and
// the result mapping from OutputKey to produced state.
//
// The Plan is shared by every in-flight operation. The result mapping is
// guarded internally; anything an operation stores inside a state value
// it hands out is not.
type Plan struct {
	runID  id.RunID
	logger *slog.Logger
	values map[string]any

	mu     sync.RWMutex
	states map[OutputKey]State
}

// PlanOption configures a Plan.
type PlanOption func(*Plan)

// WithLogger sets the structured logger for the plan.
func WithLogger(l *slog.Logger) PlanOption {
	return func(p *Plan) { p.logger = l }
}

// WithValue stores a configuration value readable via Plan.Value.
// Values are fixed at construction time.
func WithValue(key string, value any) PlanOption {
	return func(p *Plan) { p.values[key] = value }
}

// NewPlan creates a Plan for one run.
func NewPlan(opts ...PlanOption) *Plan {
	p := &Plan{
		runID:  id.NewRunID(),
		logger: slog.Default(),
		values: make(map[string]any),
		states: make(map[OutputKey]State),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunID returns the plan's unique run identifier.
func (p *Plan) RunID() id.RunID { return p.runID }

// Logger returns the plan's logger.
func (p *Plan) Logger() *slog.Logger { return p.logger }

// Value returns a configuration value set at construction time.
func (p *Plan) Value(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// RecordState records a produced state under its key. Each key is
// recorded exactly once per run; a second record fails with
// ErrStateExists.
func (p *Plan) RecordState(key OutputKey, s State) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.states[key]; ok {
		return fmt.Errorf("%w: %s", ErrStateExists, key)
	}
	p.states[key] = s
	return nil
}

// StateValue returns the recorded state for the given key. It reports
// false — never an error — for a key whose producer has not run.
func (p *Plan) StateValue(key OutputKey) (State, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.states[key]
	return s, ok
}

// StateOf returns the recorded state of type T, if its producer has run.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func StateOf[T State](p *Plan) (T, bool) {
	var zero T
	s, ok := p.StateValue(KeyFor[T]())
	if !ok {
		return zero, false
	}
	v, ok := s.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

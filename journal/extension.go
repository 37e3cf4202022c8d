package journal

import (
	"context"
	"sync"
	"time"

	"github.com/Zwork101/onward"
	"github.com/Zwork101/onward/ext"
	"github.com/Zwork101/onward/operation"
)

// Compile-time interface checks.
var (
	_ ext.Extension          = (*Extension)(nil)
	_ ext.RunStarted         = (*Extension)(nil)
	_ ext.RunCompleted       = (*Extension)(nil)
	_ ext.RunFailed          = (*Extension)(nil)
	_ ext.OperationStarted   = (*Extension)(nil)
	_ ext.OperationCompleted = (*Extension)(nil)
	_ ext.OperationFailed    = (*Extension)(nil)
)

// Event names recorded in journal entries.
const (
	EventRunStarted         = "run.started"
	EventRunCompleted       = "run.completed"
	EventRunFailed          = "run.failed"
	EventOperationStarted   = "operation.started"
	EventOperationCompleted = "operation.completed"
	EventOperationFailed    = "operation.failed"
)

// Entry is one recorded lifecycle event.
type Entry struct {
	Time      time.Time
	Event     string
	RunID     string
	Operation string
	Key       string
	Elapsed   time.Duration
	Err       string
}

// Option configures an Extension.
type Option func(*Extension)

// WithLimit caps the number of retained entries; the oldest are dropped
// first. Zero means unbounded.
func WithLimit(n int) Option {
	return func(e *Extension) { e.limit = n }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Extension) { e.now = now }
}

// Extension records run lifecycle events into an in-memory journal.
type Extension struct {
	limit int
	now   func() time.Time

	mu      sync.Mutex
	entries []Entry
}

// New creates a journal extension.
func New(opts ...Option) *Extension {
	e := &Extension{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "run-journal" }

// Entries returns a snapshot of the recorded journal in order.
func (e *Extension) Entries() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Entry, len(e.entries))
	copy(out, e.entries)
	return out
}

// Completed returns the operation names of completion entries in the
// order they were recorded.
func (e *Extension) Completed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var names []string
	for _, entry := range e.entries {
		if entry.Event == EventOperationCompleted {
			names = append(names, entry.Operation)
		}
	}
	return names
}

// Reset discards all recorded entries.
func (e *Extension) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = nil
}

func (e *Extension) record(entry Entry) {
	entry.Time = e.now()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = append(e.entries, entry)
	if e.limit > 0 && len(e.entries) > e.limit {
		e.entries = e.entries[len(e.entries)-e.limit:]
	}
}

// OnRunStarted implements ext.RunStarted.
func (e *Extension) OnRunStarted(_ context.Context, p *onward.Plan) error {
	e.record(Entry{Event: EventRunStarted, RunID: p.RunID().String()})
	return nil
}

// OnRunCompleted implements ext.RunCompleted.
func (e *Extension) OnRunCompleted(_ context.Context, p *onward.Plan, elapsed time.Duration) error {
	e.record(Entry{Event: EventRunCompleted, RunID: p.RunID().String(), Elapsed: elapsed})
	return nil
}

// OnRunFailed implements ext.RunFailed.
func (e *Extension) OnRunFailed(_ context.Context, p *onward.Plan, err error) error {
	e.record(Entry{Event: EventRunFailed, RunID: p.RunID().String(), Err: err.Error()})
	return nil
}

// OnOperationStarted implements ext.OperationStarted.
func (e *Extension) OnOperationStarted(_ context.Context, p *onward.Plan, op *operation.Descriptor) error {
	e.record(Entry{
		Event:     EventOperationStarted,
		RunID:     p.RunID().String(),
		Operation: op.Name(),
		Key:       op.Key().String(),
	})
	return nil
}

// OnOperationCompleted implements ext.OperationCompleted.
func (e *Extension) OnOperationCompleted(_ context.Context, p *onward.Plan, op *operation.Descriptor, elapsed time.Duration) error {
	e.record(Entry{
		Event:     EventOperationCompleted,
		RunID:     p.RunID().String(),
		Operation: op.Name(),
		Key:       op.Key().String(),
		Elapsed:   elapsed,
	})
	return nil
}

// OnOperationFailed implements ext.OperationFailed.
func (e *Extension) OnOperationFailed(_ context.Context, p *onward.Plan, op *operation.Descriptor, err error) error {
	e.record(Entry{
		Event:     EventOperationFailed,
		RunID:     p.RunID().String(),
		Operation: op.Name(),
		Key:       op.Key().String(),
		Err:       err.Error(),
	})
	return nil
}

package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Zwork101/onward"
)

// Loop is the cooperative executor: one scheduler goroutine owns
// execution. Suspending units run natively with a cancellable per-unit
// context. Immediate units run inline on the loop goroutine — blocking
// it, exactly like a blocking call on an event loop — unless
// WithOffload delegates them to helper goroutines so the loop never
// stalls.
type Loop struct {
	offload bool
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	submitCh    chan task
	completions chan result

	mu      sync.Mutex
	pending int
	cancels map[onward.OutputKey]context.CancelFunc
}

type task struct {
	key        onward.OutputKey
	name       string
	immediate  func() (onward.State, error)
	suspending func(ctx context.Context) (onward.State, error)
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithOffload makes the loop run immediate units on helper goroutines
// instead of inline, so blocking legacy operations never stall the
// scheduler.
func WithOffload() LoopOption {
	return func(l *Loop) { l.offload = true }
}

// WithLoopLogger sets the structured logger for the loop.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) { l.logger = logger }
}

// NewLoop creates a cooperative loop executor and starts its scheduler
// goroutine.
func NewLoop(opts ...LoopOption) *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loop{
		logger:   slog.Default(),
		ctx:      ctx,
		cancel:   cancel,
		submitCh: make(chan task),
		// One slot plus a spill goroutine in deliver keeps the loop
		// goroutine from stalling on an unread completion.
		completions: make(chan result, 1),
		cancels:     make(map[onward.OutputKey]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(l)
	}

	go l.run()
	return l
}

func (l *Loop) run() {
	for {
		select {
		case <-l.ctx.Done():
			return
		case t := <-l.submitCh:
			l.dispatch(t)
		}
	}
}

func (l *Loop) dispatch(t task) {
	tctx, cancel := context.WithCancel(l.ctx)

	l.mu.Lock()
	l.cancels[t.key] = cancel
	l.mu.Unlock()

	switch {
	case t.suspending != nil:
		go l.execute(t, tctx)
	case l.offload:
		go l.execute(t, tctx)
	default:
		l.execute(t, tctx)
	}
}

func (l *Loop) execute(t task, ctx context.Context) {
	start := time.Now()

	var value onward.State
	var err error
	if t.suspending != nil {
		value, err = t.suspending(ctx)
	} else {
		value, err = t.immediate()
	}

	res := result{
		completion: Completion{Key: t.key, Value: value, Elapsed: time.Since(start)},
		err:        err,
	}
	if err != nil {
		res.completion = Completion{Key: t.key}
	}
	l.deliver(res)
}

// deliver hands a completion to JoinNext without ever stalling the loop
// goroutine: if the buffer is full, a spill goroutine carries the send.
func (l *Loop) deliver(res result) {
	select {
	case l.completions <- res:
	case <-l.ctx.Done():
	default:
		go func() {
			select {
			case l.completions <- res:
			case <-l.ctx.Done():
			}
		}()
	}
}

// Running reports whether any unit is in flight.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending > 0
}

// Submit schedules immediate units on the loop (or helper goroutines
// under WithOffload).
func (l *Loop) Submit(units ...Unit) error {
	for _, u := range units {
		if err := l.submit(task{key: u.Key, name: u.Name, immediate: u.Call}); err != nil {
			return err
		}
	}
	return nil
}

// SubmitSuspending schedules suspension-capable units natively.
func (l *Loop) SubmitSuspending(units ...SuspendingUnit) error {
	for _, u := range units {
		if err := l.submit(task{key: u.Key, name: u.Name, suspending: u.Call}); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loop) submit(t task) error {
	if l.ctx.Err() != nil {
		return fmt.Errorf("cooperative loop: %w", onward.ErrClosed)
	}

	l.mu.Lock()
	l.pending++
	l.mu.Unlock()

	select {
	case l.submitCh <- t:
		return nil
	case <-l.ctx.Done():
		l.mu.Lock()
		l.pending--
		l.mu.Unlock()
		return fmt.Errorf("cooperative loop: %w", onward.ErrClosed)
	}
}

// JoinNext races all in-flight units, returns the first to finish, and
// removes it from the in-flight map.
func (l *Loop) JoinNext(timeout time.Duration) (Completion, error) {
	l.mu.Lock()
	if l.pending == 0 {
		l.mu.Unlock()
		return Completion{}, fmt.Errorf("cooperative loop: %w", onward.ErrNotRunning)
	}
	l.mu.Unlock()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case res := <-l.completions:
		l.mu.Lock()
		l.pending--
		if cancel, ok := l.cancels[res.completion.Key]; ok {
			delete(l.cancels, res.completion.Key)
			cancel()
		}
		l.mu.Unlock()
		return res.completion, res.err
	case <-expired:
		return Completion{}, fmt.Errorf("cooperative loop: %w", onward.ErrJoinTimeout)
	case <-l.ctx.Done():
		return Completion{}, fmt.Errorf("cooperative loop: %w", onward.ErrClosed)
	}
}

// Close cancels all pending units and stops the scheduler goroutine.
func (l *Loop) Close() error {
	l.mu.Lock()
	for key, cancel := range l.cancels {
		delete(l.cancels, key)
		cancel()
	}
	l.pending = 0
	l.mu.Unlock()

	l.cancel()
	return nil
}

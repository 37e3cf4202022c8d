package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/Zwork101/onward"
)

// Pool runs each submitted unit on its own goroutine, bounded by a
// weighted semaphore, and reports completions one at a time through
// JoinNext. Units must tolerate running on an arbitrary goroutine.
type Pool struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	completions chan result

	mu       sync.Mutex
	inflight int
}

type result struct {
	completion Completion
	err        error
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithWorkers bounds how many units may execute simultaneously.
func WithWorkers(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithRateLimit caps the sustained unit start rate with a token-bucket
// limiter. Zero disables rate limiting.
func WithRateLimit(perSecond float64, burst int) PoolOption {
	return func(p *Pool) {
		if perSecond <= 0 {
			return
		}
		if burst <= 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithPoolLogger sets the structured logger for the pool.
func WithPoolLogger(l *slog.Logger) PoolOption {
	return func(p *Pool) { p.logger = l }
}

// NewPool creates a worker pool. The default bound is 10 concurrent
// units.
func NewPool(opts ...PoolOption) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		sem:         semaphore.NewWeighted(10),
		logger:      slog.Default(),
		ctx:         ctx,
		cancel:      cancel,
		completions: make(chan result),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Running reports whether any unit is in flight.
func (p *Pool) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inflight > 0
}

// Submit dispatches each unit to the pool immediately.
func (p *Pool) Submit(units ...Unit) error {
	if p.ctx.Err() != nil {
		return fmt.Errorf("worker pool: %w", onward.ErrClosed)
	}

	p.mu.Lock()
	p.inflight += len(units)
	p.mu.Unlock()

	for _, u := range units {
		go p.run(u)
	}
	return nil
}

// SubmitSuspending always fails: the pool has no cooperative scheduler.
func (p *Pool) SubmitSuspending(_ ...SuspendingUnit) error {
	return fmt.Errorf("worker pool: %w", onward.ErrSuspendNotSupported)
}

func (p *Pool) run(u Unit) {
	if p.limiter != nil {
		if err := p.limiter.Wait(p.ctx); err != nil {
			return // pool closed while waiting for a token
		}
	}
	if err := p.sem.Acquire(p.ctx, 1); err != nil {
		return // pool closed while waiting for a slot
	}
	defer p.sem.Release(1)

	start := time.Now()
	value, err := u.Call()
	res := result{
		completion: Completion{Key: u.Key, Value: value, Elapsed: time.Since(start)},
		err:        err,
	}
	if err != nil {
		res.completion = Completion{Key: u.Key}
	}

	select {
	case p.completions <- res:
	case <-p.ctx.Done():
	}
}

// JoinNext waits for the first in-flight unit to finish and removes it
// from the in-flight set.
func (p *Pool) JoinNext(timeout time.Duration) (Completion, error) {
	p.mu.Lock()
	if p.inflight == 0 {
		p.mu.Unlock()
		return Completion{}, fmt.Errorf("worker pool: %w", onward.ErrNotRunning)
	}
	p.mu.Unlock()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case res := <-p.completions:
		p.mu.Lock()
		p.inflight--
		p.mu.Unlock()
		return res.completion, res.err
	case <-expired:
		return Completion{}, fmt.Errorf("worker pool: %w", onward.ErrJoinTimeout)
	case <-p.ctx.Done():
		return Completion{}, fmt.Errorf("worker pool: %w", onward.ErrClosed)
	}
}

// Close cancels in-flight units best-effort. Units already past their
// cancellable point keep running, but their completions are discarded.
func (p *Pool) Close() error {
	p.cancel()

	p.mu.Lock()
	p.inflight = 0
	p.mu.Unlock()
	return nil
}

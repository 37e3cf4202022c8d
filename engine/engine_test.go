package engine_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Zwork101/onward"
	"github.com/Zwork101/onward/engine"
	"github.com/Zwork101/onward/executor"
	"github.com/Zwork101/onward/journal"
	"github.com/Zwork101/onward/middleware"
	"github.com/Zwork101/onward/operation"
)

type firstState struct {
	onward.Model
	Receivers []string
}

type secondState struct {
	onward.Model
	Receivers []string
}

type thirdState struct {
	onward.Model
	Receivers []string
}

type fourthState struct {
	onward.Model
	Receivers []string
}

type fifthState struct {
	onward.Model
	Receivers []string
}

type unusedState struct{ onward.Model }

// scenario tracks execution order and synchronizes mutation of the
// shared Receivers slices. Operations running on pool goroutines mutate
// earlier states, so the operations bring their own lock.
type scenario struct {
	mu    sync.Mutex
	order []string
}

func (s *scenario) note(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = append(s.order, name)
}

func (s *scenario) receive(slot *[]string, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*slot = append(*slot, name)
}

func (s *scenario) executionOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// buildChain registers the six-operation pipeline:
//
//	operation1 → operation2 → operation3 ─┬─→ operation4 (no output, also needs second)
//	                                      └─→ operation5 → operation6
func buildChain(t *testing.T) (*scenario, *operation.Registry) {
	t.Helper()
	sc := &scenario{}
	reg := operation.NewRegistry()

	operation.MustRegister(reg, func(p *onward.Plan) *firstState {
		sc.note("operation1")
		return &firstState{}
	}, operation.WithName("operation1"))

	operation.MustRegister(reg, func(p *onward.Plan, f *firstState) *secondState {
		sc.note("operation2")
		sc.receive(&f.Receivers, "operation2")
		return &secondState{}
	}, operation.WithName("operation2"))

	operation.MustRegister(reg, func(p *onward.Plan, s *secondState) *thirdState {
		sc.note("operation3")
		sc.receive(&s.Receivers, "operation3")
		return &thirdState{}
	}, operation.WithName("operation3"))

	operation.MustRegister(reg, func(p *onward.Plan, s *secondState, th *thirdState) error {
		sc.note("operation4")
		sc.receive(&s.Receivers, "operation4")
		sc.receive(&th.Receivers, "operation4")
		return nil
	}, operation.WithName("operation4"))

	operation.MustRegister(reg, func(p *onward.Plan, th *thirdState) *fourthState {
		sc.note("operation5")
		sc.receive(&th.Receivers, "operation5")
		return &fourthState{}
	}, operation.WithName("operation5"))

	operation.MustRegister(reg, func(p *onward.Plan, fo *fourthState) *fifthState {
		sc.note("operation6")
		sc.receive(&fo.Receivers, "operation6")
		return &fifthState{}
	}, operation.WithName("operation6"))

	return sc, reg
}

// acceptedOrders are the linear extensions of the six-operation
// pipeline: operation4 joins the two branches and may run before,
// between, or after operation5 and operation6.
var acceptedOrders = [][]string{
	{"operation1", "operation2", "operation3", "operation4", "operation5", "operation6"},
	{"operation1", "operation2", "operation3", "operation5", "operation4", "operation6"},
	{"operation1", "operation2", "operation3", "operation5", "operation6", "operation4"},
}

func orderAccepted(got []string) bool {
	for _, want := range acceptedOrders {
		if len(got) != len(want) {
			continue
		}
		match := true
		for i := range want {
			if got[i] != want[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func sameElements(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	counts := make(map[string]int)
	for _, v := range got {
		counts[v]++
	}
	for _, v := range want {
		counts[v]--
	}
	for _, n := range counts {
		if n != 0 {
			return false
		}
	}
	return true
}

func TestStartOrResume_Chain(t *testing.T) {
	executors := map[string]func() executor.Executor{
		"serial":       func() executor.Executor { return executor.NewSerial() },
		"pool":         func() executor.Executor { return executor.NewPool(executor.WithWorkers(4)) },
		"loop":         func() executor.Executor { return executor.NewLoop() },
		"loop_offload": func() executor.Executor { return executor.NewLoop(executor.WithOffload()) },
	}

	for name, newExec := range executors {
		t.Run(name, func(t *testing.T) {
			sc, reg := buildChain(t)
			plan := onward.NewPlan(onward.WithLogger(slog.New(slog.DiscardHandler)))

			eng, err := engine.Build(plan, reg, engine.WithExecutor(newExec()))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer eng.Close(context.Background())

			if eng.State() != engine.StateIdle {
				t.Fatalf("State = %v before start, want idle", eng.State())
			}

			if err := eng.StartOrResume(context.Background()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if eng.State() != engine.StateCompleted {
				t.Errorf("State = %v, want completed", eng.State())
			}
			if eng.PlanActive() {
				t.Error("plan must be inactive after a completed run")
			}

			order := sc.executionOrder()
			if !orderAccepted(order) {
				t.Errorf("execution order %v is not a valid linear extension", order)
			}

			first, ok := onward.StateOf[*firstState](plan)
			if !ok {
				t.Fatal("first state missing")
			}
			if len(first.Receivers) != 1 || first.Receivers[0] != "operation2" {
				t.Errorf("first.Receivers = %v, want [operation2]", first.Receivers)
			}

			second, ok := onward.StateOf[*secondState](plan)
			if !ok {
				t.Fatal("second state missing")
			}
			if !sameElements(second.Receivers, []string{"operation3", "operation4"}) {
				t.Errorf("second.Receivers = %v, want operation3 and operation4", second.Receivers)
			}

			third, ok := onward.StateOf[*thirdState](plan)
			if !ok {
				t.Fatal("third state missing")
			}
			if !sameElements(third.Receivers, []string{"operation4", "operation5"}) {
				t.Errorf("third.Receivers = %v, want operation4 and operation5", third.Receivers)
			}

			fourth, ok := onward.StateOf[*fourthState](plan)
			if !ok {
				t.Fatal("fourth state missing")
			}
			if len(fourth.Receivers) != 1 || fourth.Receivers[0] != "operation6" {
				t.Errorf("fourth.Receivers = %v, want [operation6]", fourth.Receivers)
			}

			fifth, ok := onward.StateOf[*fifthState](plan)
			if !ok {
				t.Fatal("fifth state missing")
			}
			if len(fifth.Receivers) != 0 {
				t.Errorf("fifth.Receivers = %v, want empty", fifth.Receivers)
			}

			if _, ok := onward.StateOf[*unusedState](plan); ok {
				t.Error("state with no producing operation must report false")
			}
		})
	}
}

func TestBuild_DefaultExecutorIsSerial(t *testing.T) {
	sc, reg := buildChain(t)
	plan := onward.NewPlan(onward.WithLogger(slog.New(slog.DiscardHandler)))

	eng, err := engine.Build(plan, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer eng.Close(context.Background())

	if err := eng.StartOrResume(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(sc.executionOrder()); got != 6 {
		t.Errorf("executed %d operations, want 6", got)
	}
}

func TestBuild_Cycle(t *testing.T) {
	reg := operation.NewRegistry()
	operation.MustRegister(reg, func(p *onward.Plan, s *secondState) *firstState { return &firstState{} })
	operation.MustRegister(reg, func(p *onward.Plan, f *firstState) *secondState { return &secondState{} })

	_, err := engine.Build(onward.NewPlan(), reg)
	if !errors.Is(err, onward.ErrCycle) {
		t.Errorf("expected ErrCycle, got %v", err)
	}
}

func TestBuild_UnknownDependency(t *testing.T) {
	reg := operation.NewRegistry()
	operation.MustRegister(reg, func(p *onward.Plan, f *firstState) *secondState { return &secondState{} })

	_, err := engine.Build(onward.NewPlan(), reg)
	if !errors.Is(err, onward.ErrUnknownDependency) {
		t.Errorf("expected ErrUnknownDependency, got %v", err)
	}
}

func TestStartOrResume_OperationFailure(t *testing.T) {
	errStage := errors.New("stage exploded")

	reg := operation.NewRegistry()
	operation.MustRegister(reg, func(p *onward.Plan) *firstState {
		return &firstState{}
	}, operation.WithName("operation1"))
	operation.MustRegister(reg, func(p *onward.Plan, f *firstState) (*secondState, error) {
		return nil, errStage
	}, operation.WithName("operation2"))
	operation.MustRegister(reg, func(p *onward.Plan, s *secondState) *thirdState {
		return &thirdState{}
	}, operation.WithName("operation3"))

	plan := onward.NewPlan(onward.WithLogger(slog.New(slog.DiscardHandler)))
	eng, err := engine.Build(plan, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer eng.Close(context.Background())

	err = eng.StartOrResume(context.Background())
	if !errors.Is(err, errStage) {
		t.Fatalf("expected the operation error, got %v", err)
	}
	if eng.State() != engine.StateFailed {
		t.Errorf("State = %v, want failed", eng.State())
	}

	// States recorded before the failure stay readable.
	if _, ok := onward.StateOf[*firstState](plan); !ok {
		t.Error("first state must survive the failure")
	}
	if _, ok := onward.StateOf[*secondState](plan); ok {
		t.Error("failed operation must not record a state")
	}
	if _, ok := onward.StateOf[*thirdState](plan); ok {
		t.Error("downstream operation must not have run")
	}
}

func TestStartOrResume_SuspendingOnSerial(t *testing.T) {
	reg := operation.NewRegistry()
	operation.MustRegisterSuspending(reg, func(ctx context.Context, p *onward.Plan) *firstState {
		return &firstState{}
	}, operation.WithName("wait_first"))

	plan := onward.NewPlan(onward.WithLogger(slog.New(slog.DiscardHandler)))
	eng, err := engine.Build(plan, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer eng.Close(context.Background())

	err = eng.StartOrResume(context.Background())
	if !errors.Is(err, onward.ErrSuspendNotSupported) {
		t.Errorf("expected ErrSuspendNotSupported, got %v", err)
	}
	if eng.State() != engine.StateFailed {
		t.Errorf("State = %v, want failed", eng.State())
	}
}

func TestStartOrResume_SuspendingOnLoop(t *testing.T) {
	reg := operation.NewRegistry()
	operation.MustRegisterSuspending(reg, func(ctx context.Context, p *onward.Plan) (*firstState, error) {
		select {
		case <-time.After(10 * time.Millisecond):
			return &firstState{}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, operation.WithName("wait_first"))
	operation.MustRegister(reg, func(p *onward.Plan, f *firstState) *secondState {
		return &secondState{}
	}, operation.WithName("follow_up"))

	plan := onward.NewPlan(onward.WithLogger(slog.New(slog.DiscardHandler)))
	eng, err := engine.Build(plan, reg, engine.WithExecutor(executor.NewLoop()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer eng.Close(context.Background())

	if err := eng.StartOrResume(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := onward.StateOf[*secondState](plan); !ok {
		t.Error("downstream of the suspending operation must have run")
	}
}

func TestStartOrResume_JournalObservesRun(t *testing.T) {
	_, reg := buildChain(t)
	plan := onward.NewPlan(onward.WithLogger(slog.New(slog.DiscardHandler)))
	j := journal.New()

	eng, err := engine.Build(plan, reg,
		engine.WithExecutor(executor.NewPool(executor.WithWorkers(4))),
		engine.WithExtension(j),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer eng.Close(context.Background())

	if err := eng.StartOrResume(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := j.Entries()
	if len(entries) == 0 {
		t.Fatal("journal recorded nothing")
	}
	if entries[0].Event != journal.EventRunStarted {
		t.Errorf("first event = %q, want %q", entries[0].Event, journal.EventRunStarted)
	}
	if last := entries[len(entries)-1]; last.Event != journal.EventRunCompleted {
		t.Errorf("last event = %q, want %q", last.Event, journal.EventRunCompleted)
	}

	// Completions respect the dependency edges.
	completed := j.Completed()
	if len(completed) != 6 {
		t.Fatalf("completed %d operations, want 6", len(completed))
	}
	pos := make(map[string]int)
	for i, name := range completed {
		pos[name] = i
	}
	edges := [][2]string{
		{"operation1", "operation2"},
		{"operation2", "operation3"},
		{"operation2", "operation4"},
		{"operation3", "operation4"},
		{"operation3", "operation5"},
		{"operation5", "operation6"},
	}
	for _, e := range edges {
		if pos[e[0]] >= pos[e[1]] {
			t.Errorf("%s completed at %d, after its dependent %s at %d", e[0], pos[e[0]], e[1], pos[e[1]])
		}
	}
}

func TestStartOrResume_WithMiddleware(t *testing.T) {
	_, reg := buildChain(t)
	logger := slog.New(slog.DiscardHandler)
	plan := onward.NewPlan(onward.WithLogger(logger))

	var invoked int
	var mu sync.Mutex
	counting := func(ctx context.Context, op *operation.Descriptor, next middleware.Handler) (onward.State, error) {
		mu.Lock()
		invoked++
		mu.Unlock()
		return next(ctx)
	}

	eng, err := engine.Build(plan, reg,
		engine.WithMiddleware(middleware.Recover(logger), counting),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer eng.Close(context.Background())

	if err := eng.StartOrResume(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if invoked != 6 {
		t.Errorf("middleware saw %d invocations, want 6", invoked)
	}
}

func TestStartOrResume_PanicRecoveredAsFailure(t *testing.T) {
	reg := operation.NewRegistry()
	operation.MustRegister(reg, func(p *onward.Plan) *firstState {
		panic("bad arithmetic")
	}, operation.WithName("operation1"))

	logger := slog.New(slog.DiscardHandler)
	plan := onward.NewPlan(onward.WithLogger(logger))

	eng, err := engine.Build(plan, reg,
		engine.WithMiddleware(middleware.Recover(logger)),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer eng.Close(context.Background())

	err = eng.StartOrResume(context.Background())
	if err == nil {
		t.Fatal("expected the panic to surface as a run failure")
	}
	if eng.State() != engine.StateFailed {
		t.Errorf("State = %v, want failed", eng.State())
	}
}

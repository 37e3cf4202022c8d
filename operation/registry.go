package operation

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"github.com/Zwork101/onward"
)

var (
	planType  = reflect.TypeFor[*onward.Plan]()
	stateType = reflect.TypeFor[onward.State]()
	ctxType   = reflect.TypeFor[context.Context]()
	errType   = reflect.TypeFor[error]()
)

// Registry maps OutputKeys to operation descriptors. Each key has
// exactly one provider. It is safe for concurrent use.
type Registry struct {
	mu  sync.RWMutex
	ops map[onward.OutputKey]*Descriptor
}

// NewRegistry creates an empty operation registry.
func NewRegistry() *Registry {
	return &Registry{
		ops: make(map[onward.OutputKey]*Descriptor),
	}
}

// Option configures a registration.
type Option func(*registerConfig)

type registerConfig struct {
	name string
}

// WithName overrides the operation name derived from the function
// symbol. The name identifies no-output operations in the graph, so it
// must be unique among them.
func WithName(name string) Option {
	return func(c *registerConfig) { c.name = name }
}

// Register validates an immediate operation function and inserts its
// descriptor into the registry. Every parameter must be *onward.Plan or
// a concrete state type; the function may return one state value,
// optionally paired with an error. Validation failures wrap
// onward.ErrInvalidSignature; a key conflict wraps
// onward.ErrDuplicateProvider.
func (r *Registry) Register(fn any, opts ...Option) (*Descriptor, error) {
	return r.register(fn, Immediate, opts)
}

// RegisterSuspending validates a suspension-capable operation function
// and inserts its descriptor. The function must declare a leading
// context.Context parameter; the remaining parameters and results
// follow the same rules as Register. Only the cooperative Loop executor
// runs suspending operations natively.
func (r *Registry) RegisterSuspending(fn any, opts ...Option) (*Descriptor, error) {
	return r.register(fn, Suspending, opts)
}

// MustRegister is like Register but panics on error. Use for
// process-startup registration where a bad signature is fatal anyway.
func MustRegister(r *Registry, fn any, opts ...Option) *Descriptor {
	d, err := r.Register(fn, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// MustRegisterSuspending is like RegisterSuspending but panics on error.
func MustRegisterSuspending(r *Registry, fn any, opts ...Option) *Descriptor {
	d, err := r.RegisterSuspending(fn, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

func (r *Registry) register(fn any, kind Kind, opts []Option) (*Descriptor, error) {
	var cfg registerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	fv := reflect.ValueOf(fn)
	if !fv.IsValid() || fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("operation: %w: %T is not a function", onward.ErrInvalidSignature, fn)
	}

	name := cfg.name
	if name == "" {
		name = funcName(fv)
	}

	ft := fv.Type()
	if ft.IsVariadic() {
		return nil, fmt.Errorf("operation %q: %w: variadic functions cannot be operations", name, onward.ErrInvalidSignature)
	}

	d := &Descriptor{
		name:   name,
		kind:   kind,
		fn:     fv,
		fnType: ft,
	}

	if err := checkResults(d, ft); err != nil {
		return nil, err
	}
	if err := checkParams(d, ft); err != nil {
		return nil, err
	}

	key := d.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if other, ok := r.ops[key]; ok {
		if key.ByType() {
			return nil, fmt.Errorf("operation %q: %w: %q already provides %s", name, onward.ErrDuplicateProvider, other.name, key)
		}
		return nil, fmt.Errorf("operation %q: %w: another no-output operation already uses this name", name, onward.ErrDuplicateProvider)
	}
	r.ops[key] = d

	return d, nil
}

// checkResults validates the result shape: (), (error), (T) or
// (T, error) where T is a concrete state type.
func checkResults(d *Descriptor, ft reflect.Type) error {
	switch ft.NumOut() {
	case 0:
		return nil
	case 1:
		if ft.Out(0) == errType {
			d.hasErr = true
			return nil
		}
		return setProvides(d, ft.Out(0))
	case 2:
		if ft.Out(1) != errType {
			return fmt.Errorf("operation %q: %w: second result must be error, got %s", d.name, onward.ErrInvalidSignature, ft.Out(1))
		}
		d.hasErr = true
		return setProvides(d, ft.Out(0))
	default:
		return fmt.Errorf("operation %q: %w: operations return at most one state value and one error", d.name, onward.ErrInvalidSignature)
	}
}

func setProvides(d *Descriptor, t reflect.Type) error {
	if !isStateType(t) {
		return fmt.Errorf("operation %q: %w: return type %s is not a state type", d.name, onward.ErrInvalidSignature, t)
	}
	d.provides = onward.KeyForType(t)
	d.hasOut = true
	return nil
}

// checkParams validates the parameters and builds the ordered
// dependency list with its parameter-binding slots.
func checkParams(d *Descriptor, ft reflect.Type) error {
	start := 0
	if d.kind == Suspending {
		if ft.NumIn() == 0 || ft.In(0) != ctxType {
			return fmt.Errorf("operation %q: %w: suspending operations must declare a leading context.Context", d.name, onward.ErrInvalidSignature)
		}
		start = 1
	}

	if ft.NumIn()-start == 0 {
		return fmt.Errorf("operation %q: %w: operations must declare at least one Plan or state parameter", d.name, onward.ErrInvalidSignature)
	}

	seen := make(map[onward.OutputKey]struct{})
	seenPlan := false

	for i := start; i < ft.NumIn(); i++ {
		pt := ft.In(i)
		switch {
		case pt == planType:
			if seenPlan {
				return fmt.Errorf("operation %q: %w: the Plan may be declared only once", d.name, onward.ErrInvalidSignature)
			}
			seenPlan = true
			d.deps = append(d.deps, Dependency{Plan: true, param: i})
		case pt == ctxType:
			return fmt.Errorf("operation %q: %w: context.Context is only valid as the leading parameter of a suspending operation", d.name, onward.ErrInvalidSignature)
		case isStateType(pt):
			key := onward.KeyForType(pt)
			if _, dup := seen[key]; dup {
				return fmt.Errorf("operation %q: %w: state type %s declared twice; arguments bind by type", d.name, onward.ErrInvalidSignature, pt)
			}
			seen[key] = struct{}{}
			d.deps = append(d.deps, Dependency{Key: key, param: i})
		default:
			return fmt.Errorf("operation %q: %w: parameter %d has type %s; operations accept *onward.Plan and state types", d.name, onward.ErrInvalidSignature, i, pt)
		}
	}

	return nil
}

// isStateType reports whether t is a concrete type implementing
// onward.State. The interface itself is not a valid dependency — keys
// are nominal.
func isStateType(t reflect.Type) bool {
	return t.Kind() != reflect.Interface && t.Implements(stateType)
}

// Get returns the descriptor providing the given key.
func (r *Registry) Get(key onward.OutputKey) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.ops[key]
	return d, ok
}

// Keys returns all registered OutputKeys.
func (r *Registry) Keys() []onward.OutputKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]onward.OutputKey, 0, len(r.ops))
	for key := range r.ops {
		keys = append(keys, key)
	}
	return keys
}

// Descriptors returns all registered descriptors.
func (r *Registry) Descriptors() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, 0, len(r.ops))
	for _, d := range r.ops {
		out = append(out, d)
	}
	return out
}

// Len returns the number of registered operations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ops)
}

// funcName derives a short operation name from the function symbol,
// e.g. "github.com/acme/etl.ReadFile" becomes "ReadFile".
func funcName(fv reflect.Value) string {
	full := runtime.FuncForPC(fv.Pointer()).Name()
	full = strings.TrimSuffix(full, "-fm")
	if i := strings.LastIndex(full, "/"); i >= 0 {
		full = full[i+1:]
	}
	if i := strings.Index(full, "."); i >= 0 {
		full = full[i+1:]
	}
	return full
}

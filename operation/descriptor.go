package operation

import (
	"context"
	"fmt"
	"reflect"

	"github.com/Zwork101/onward"
)

// Kind distinguishes the two descriptor flavors.
type Kind int

const (
	// Immediate operations run to completion in a single call.
	Immediate Kind = iota
	// Suspending operations declare a leading context.Context and may
	// block at explicit points; only the cooperative Loop executor runs
	// them natively.
	Suspending
)

// String returns the kind name for logs.
func (k Kind) String() string {
	switch k {
	case Immediate:
		return "immediate"
	case Suspending:
		return "suspending"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Dependency pairs one declared input with its parameter slot.
type Dependency struct {
	// Key identifies the producing node. Zero when Plan is true.
	Key onward.OutputKey
	// Plan reports whether this dependency is the run context itself.
	// The context is always satisfied and never becomes a graph edge.
	Plan bool

	// param is the function parameter index the value binds to.
	param int
}

// Descriptor is the immutable registered form of an operation: the
// callable body, the ordered dependency list, and the produced key.
// Descriptors are created once at registration time and live for the
// process.
type Descriptor struct {
	name     string
	kind     Kind
	fn       reflect.Value
	fnType   reflect.Type
	deps     []Dependency
	provides onward.OutputKey
	hasOut   bool
	hasErr   bool
}

// Name returns the operation's function name (or the name given with
// WithName).
func (d *Descriptor) Name() string { return d.name }

// Kind returns the descriptor flavor.
func (d *Descriptor) Kind() Kind { return d.kind }

// Key returns the node identity: the produced OutputKey if the
// operation has an output, else the by-name key for its function name.
func (d *Descriptor) Key() onward.OutputKey {
	if d.hasOut {
		return d.provides
	}
	return onward.KeyForName(d.name)
}

// Provides returns the produced OutputKey and whether the operation
// produces one at all.
func (d *Descriptor) Provides() (onward.OutputKey, bool) {
	return d.provides, d.hasOut
}

// Dependencies returns the declared inputs in parameter order.
func (d *Descriptor) Dependencies() []Dependency {
	out := make([]Dependency, len(d.deps))
	copy(out, d.deps)
	return out
}

// Invocation is a bound, deferred call of a descriptor: arguments are
// already resolved into parameter slots, and Invoke performs the call.
type Invocation struct {
	desc *Descriptor
	in   []reflect.Value
}

// Descriptor returns the descriptor this invocation was bound from.
func (iv Invocation) Descriptor() *Descriptor { return iv.desc }

// Bind resolves the call arguments against the declared dependencies
// and returns a deferred invocation. Arguments may be given in any
// order: each is matched to its parameter slot by runtime type — the
// plan to the context slot, every state value to the slot declaring its
// exact type.
func (d *Descriptor) Bind(args ...any) (Invocation, error) {
	in := make([]reflect.Value, d.fnType.NumIn())
	filled := make([]bool, len(in))

	// Reserve the context slot of a suspending operation; Invoke fills it.
	if d.kind == Suspending {
		filled[0] = true
	}

	for _, arg := range args {
		dep, ok := d.slotFor(arg)
		if !ok {
			return Invocation{}, fmt.Errorf("operation %q: no parameter accepts argument of type %T", d.name, arg)
		}
		if filled[dep.param] {
			return Invocation{}, fmt.Errorf("operation %q: parameter %d bound twice", d.name, dep.param)
		}
		in[dep.param] = reflect.ValueOf(arg)
		filled[dep.param] = true
	}

	for i, ok := range filled {
		if !ok {
			return Invocation{}, fmt.Errorf("operation %q: missing argument for parameter %d (%s)", d.name, i, d.fnType.In(i))
		}
	}

	return Invocation{desc: d, in: in}, nil
}

// slotFor finds the dependency whose declared type matches the runtime
// type of arg.
func (d *Descriptor) slotFor(arg any) (Dependency, bool) {
	if _, ok := arg.(*onward.Plan); ok {
		for _, dep := range d.deps {
			if dep.Plan {
				return dep, true
			}
		}
		return Dependency{}, false
	}

	key := onward.KeyForType(reflect.TypeOf(arg))
	for _, dep := range d.deps {
		if !dep.Plan && dep.Key == key {
			return dep, true
		}
	}
	return Dependency{}, false
}

// Invoke calls the underlying function. The context is passed through to
// suspending operations and unused by immediate ones.
//
// If the operation declares an output, the returned value must be
// non-nil and carry exactly the declared type; anything else fails with
// onward.ErrInvalidReturn. An error returned by the body propagates
// wrapped with the operation name.
func (iv Invocation) Invoke(ctx context.Context) (onward.State, error) {
	d := iv.desc

	in := iv.in
	if d.kind == Suspending {
		in = make([]reflect.Value, len(iv.in))
		copy(in, iv.in)
		in[0] = reflect.ValueOf(ctx)
	}

	out := d.fn.Call(in)

	if d.hasErr {
		if errVal := out[len(out)-1]; !errVal.IsNil() {
			return nil, fmt.Errorf("operation %q: %w", d.name, errVal.Interface().(error))
		}
	}

	if !d.hasOut {
		return nil, nil
	}

	val := out[0]
	if isNilValue(val) {
		return nil, fmt.Errorf("operation %q: %w: promised %s, returned nil", d.name, onward.ErrInvalidReturn, d.provides)
	}
	if val.Type() != d.provides.Type() {
		// Only reachable if the descriptor and function have desynced;
		// registration guarantees the static types line up.
		return nil, fmt.Errorf("operation %q: %w: promised %s, returned %s", d.name, onward.ErrInvalidReturn, d.provides, val.Type())
	}

	return val.Interface().(onward.State), nil
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

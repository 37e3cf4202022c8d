package onward

import "reflect"

// OutputKey identifies a node in the dependency graph. It is a two-case
// tagged value: either the reflect.Type of a distinguishing State output,
// or a synthetic name for operations that produce no output.
//
// OutputKey is comparable and usable as a map key. The zero value is
// neither by-type nor by-name and identifies nothing.
type OutputKey struct {
	typ  reflect.Type
	name string
}

// KeyForType returns the by-type key for the given state type.
func KeyForType(t reflect.Type) OutputKey {
	return OutputKey{typ: t}
}

// KeyFor returns the by-type key for the state type T.
func KeyFor[T State]() OutputKey {
	return OutputKey{typ: reflect.TypeFor[T]()}
}

// KeyForName returns the by-name key for a no-output operation.
func KeyForName(name string) OutputKey {
	return OutputKey{name: name}
}

// ByType reports whether the key identifies a state output type.
func (k OutputKey) ByType() bool { return k.typ != nil }

// ByName reports whether the key is a synthetic operation name.
func (k OutputKey) ByName() bool { return k.typ == nil && k.name != "" }

// Type returns the state type for a by-type key, or nil.
func (k OutputKey) Type() reflect.Type { return k.typ }

// IsZero reports whether the key identifies nothing.
func (k OutputKey) IsZero() bool { return k.typ == nil && k.name == "" }

// String renders the key for logs and error messages.
func (k OutputKey) String() string {
	switch {
	case k.typ != nil:
		return k.typ.String()
	case k.name != "":
		return k.name
	default:
		return "<zero key>"
	}
}

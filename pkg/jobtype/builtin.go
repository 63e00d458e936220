package jobtype

// ============================================================================
// Built-in classes
//
//   Type
//    └── JSONValue                      (abstract) values with a JSON form
//         ├── String, Integer, Float, Boolean
//         └── Finite                    (abstract) enumerable value sets
//              └── ServerResident       (abstract) backed by a remote table
//                   └── NamedServerResident (abstract) rows carry a unique name
//
// These are built directly rather than through Define because literal bounds
// refer back to the primitive classes.
// ============================================================================

import (
	"context"
)

func builtin(name string, parent *Class, abstract bool, behaviour any) *Class {
	return &Class{name: name, parent: parent, abstract: abstract, behaviour: behaviour}
}

var (
	JSONValue           = builtin("JSONValue", Base, true, nil)
	Finite              = builtin("Finite", JSONValue, true, nil)
	ServerResident      = builtin("ServerResident", Finite, true, nil)
	NamedServerResident = builtin("NamedServerResident", ServerResident, true, nil)

	String  = builtin("String", JSONValue, false, stringBehaviour{})
	Integer = builtin("Integer", JSONValue, false, integerBehaviour{})
	Float   = builtin("Float", JSONValue, false, floatBehaviour{})
	Boolean = builtin("Boolean", JSONValue, false, booleanBehaviour{})
)

// The primitive types, each standing for "any literal of its kind".
var (
	StringType  = &Type{class: String}
	IntegerType = &Type{class: Integer}
	FloatType   = &Type{class: Float}
	BooleanType = &Type{class: Boolean}
)

// Builtins returns the built-in classes under their default names.
func Builtins() map[string]*Class {
	return map[string]*Class{
		"Type":                Base,
		"JSONValue":           JSONValue,
		"Finite":              Finite,
		"ServerResident":      ServerResident,
		"NamedServerResident": NamedServerResident,
		"String":              String,
		"Integer":             Integer,
		"Float":               Float,
		"Boolean":             Boolean,
	}
}

func primitiveClass(k Kind) *Class {
	switch k {
	case KindString:
		return String
	case KindInt:
		return Integer
	case KindFloat:
		return Float
	case KindBool:
		return Boolean
	default:
		return nil
	}
}

func primitiveType(k Kind) *Type {
	switch k {
	case KindString:
		return StringType
	case KindInt:
		return IntegerType
	case KindFloat:
		return FloatType
	case KindBool:
		return BooleanType
	default:
		return nil
	}
}

// ============================================================================
// Primitive behaviours
// ============================================================================

type stringBehaviour struct{}

func (stringBehaviour) Schema(context.Context, *Registry, *Type) (Schema, error) {
	return TypeSchema("string"), nil
}

func (stringBehaviour) ParseJSON(_ context.Context, _ *Registry, _ *Type, v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, ShapeErrorf("expected a string, got %s", describe(v))
	}
	return s, nil
}

func (b stringBehaviour) FormatJSON(ctx context.Context, reg *Registry, t *Type, v any) (any, error) {
	return b.ParseJSON(ctx, reg, t, v)
}

type integerBehaviour struct{}

func (integerBehaviour) Schema(context.Context, *Registry, *Type) (Schema, error) {
	return TypeSchema("integer"), nil
}

func (integerBehaviour) ParseJSON(_ context.Context, _ *Registry, _ *Type, v any) (any, error) {
	i, ok := AsInt64(v)
	if !ok {
		return nil, ShapeErrorf("expected an integer, got %s", describe(v))
	}
	return i, nil
}

func (b integerBehaviour) FormatJSON(ctx context.Context, reg *Registry, t *Type, v any) (any, error) {
	return b.ParseJSON(ctx, reg, t, v)
}

type floatBehaviour struct{}

func (floatBehaviour) Schema(context.Context, *Registry, *Type) (Schema, error) {
	return TypeSchema("number"), nil
}

func (floatBehaviour) ParseJSON(_ context.Context, _ *Registry, _ *Type, v any) (any, error) {
	f, ok := AsFloat64(v)
	if !ok {
		return nil, ShapeErrorf("expected a number, got %s", describe(v))
	}
	return f, nil
}

func (b floatBehaviour) FormatJSON(ctx context.Context, reg *Registry, t *Type, v any) (any, error) {
	return b.ParseJSON(ctx, reg, t, v)
}

type booleanBehaviour struct{}

func (booleanBehaviour) Schema(context.Context, *Registry, *Type) (Schema, error) {
	return TypeSchema("boolean"), nil
}

func (booleanBehaviour) ParseJSON(_ context.Context, _ *Registry, _ *Type, v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, ShapeErrorf("expected a boolean, got %s", describe(v))
	}
	return b, nil
}

func (b booleanBehaviour) FormatJSON(ctx context.Context, reg *Registry, t *Type, v any) (any, error) {
	return b.ParseJSON(ctx, reg, t, v)
}

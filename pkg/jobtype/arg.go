package jobtype

import (
	"math"
	"strconv"
	"strings"
)

// String representations of the boolean literals
const (
	TrueSymbol  = "@true"
	FalseSymbol = "@false"
)

// Kind is the primitive kind of a literal type argument.
type Kind int

const (
	KindString Kind = iota + 1
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "boolean"
	default:
		return "invalid"
	}
}

// Arg is a type argument: either a *Type or one of the literal types
// StringLit, IntLit, FloatLit, BoolLit.
type Arg interface {
	// String renders the argument in type-expression syntax.
	String() string
	isArg()
}

// Literal is an Arg carrying a primitive value.
type Literal interface {
	Arg
	Kind() Kind
	// Value returns the literal as a plain Go value (string, int64, float64, bool).
	Value() any
}

type (
	StringLit string
	IntLit    int64
	FloatLit  float64
	BoolLit   bool
)

func (StringLit) isArg() {}
func (IntLit) isArg()    {}
func (FloatLit) isArg()  {}
func (BoolLit) isArg()   {}

func (StringLit) Kind() Kind { return KindString }
func (IntLit) Kind() Kind    { return KindInt }
func (FloatLit) Kind() Kind  { return KindFloat }
func (BoolLit) Kind() Kind   { return KindBool }

func (l StringLit) Value() any { return string(l) }
func (l IntLit) Value() any    { return int64(l) }
func (l FloatLit) Value() any  { return float64(l) }
func (l BoolLit) Value() any   { return bool(l) }

// String single-quotes the value, backslash-escaping internal quotes.
func (l StringLit) String() string {
	return "'" + strings.ReplaceAll(string(l), "'", `\'`) + "'"
}

func (l IntLit) String() string { return strconv.FormatInt(int64(l), 10) }

// String always yields text that re-parses as a float rather than an integer.
func (l FloatLit) String() string {
	s := strconv.FormatFloat(float64(l), 'g', -1, 64)
	if strings.ContainsAny(s, ".eEnN") {
		return s
	}
	return s + ".0"
}

func (l BoolLit) String() string {
	if l {
		return TrueSymbol
	}
	return FalseSymbol
}

// argsEqual is structural equality over arguments.
func argsEqual(a, b Arg) bool {
	switch x := a.(type) {
	case *Type:
		y, ok := b.(*Type)
		return ok && x.Equal(y)
	case FloatLit:
		y, ok := b.(FloatLit)
		if !ok {
			return false
		}
		return x == y || (math.IsNaN(float64(x)) && math.IsNaN(float64(y)))
	case Literal:
		y, ok := b.(Literal)
		return ok && x.Kind() == y.Kind() && x.Value() == y.Value()
	default:
		return false
	}
}

// LiteralFromValue converts a plain Go value into a literal argument.
func LiteralFromValue(v any) (Literal, bool) {
	switch x := v.(type) {
	case string:
		return StringLit(x), true
	case bool:
		return BoolLit(x), true
	case int:
		return IntLit(x), true
	case int32:
		return IntLit(x), true
	case int64:
		return IntLit(x), true
	case float32:
		return FloatLit(x), true
	case float64:
		return FloatLit(x), true
	default:
		return nil, false
	}
}

package jobtype

import (
	"errors"
	"strings"
)

var errNilClass = errors.New("jobtype: nil class")

// Type is a class applied to one argument per parameter. Types are
// immutable once New returns and are safe to share between goroutines.
type Type struct {
	class    *Class
	args     []Arg
	abstract bool
}

func (*Type) isArg() {}

// New instantiates class with args, checking arity first and then each
// argument against its slot's bound in order.
func New(class *Class, args ...Arg) (*Type, error) {
	if class == nil {
		return nil, errNilClass
	}
	if len(args) != len(class.params) {
		return nil, &ArityError{
			TypeName: class.name,
			Passed:   len(args),
			Required: len(class.params),
		}
	}

	frozen := make([]Arg, len(args))
	abstract := class.abstract
	for i, a := range args {
		bound := class.params[i]
		if a == nil || !bound.Accepts(a) {
			return nil, &BoundError{
				TypeName: class.name,
				Index:    i,
				Arg:      argString(a),
				Bound:    bound.String(),
			}
		}
		if t, ok := a.(*Type); ok && t.abstract {
			abstract = true
		}
		frozen[i] = a
	}

	return &Type{class: class, args: frozen, abstract: abstract}, nil
}

// MustNew is New for types built from constants.
func MustNew(class *Class, args ...Arg) *Type {
	t, err := New(class, args...)
	if err != nil {
		panic(err)
	}
	return t
}

// Unconstrained instantiates class with the top of every bound, which is the
// meaning of a bare class name in a type expression.
func Unconstrained(class *Class) *Type {
	args := make([]Arg, len(class.params))
	abstract := class.abstract
	for i, b := range class.params {
		args[i] = b.Top()
		if t, ok := args[i].(*Type); ok && t.abstract {
			abstract = true
		}
	}
	return &Type{class: class, args: args, abstract: abstract}
}

func (t *Type) Class() *Class { return t.class }

// Args returns a copy of the type arguments.
func (t *Type) Args() []Arg {
	out := make([]Arg, len(t.args))
	copy(out, t.args)
	return out
}

// Arg returns the i-th type argument.
func (t *Type) Arg(i int) Arg { return t.args[i] }

// TypeArg returns the i-th argument if it is a type.
func (t *Type) TypeArg(i int) (*Type, bool) {
	if i < 0 || i >= len(t.args) {
		return nil, false
	}
	a, ok := t.args[i].(*Type)
	return a, ok
}

// LiteralArg returns the i-th argument if it is a literal.
func (t *Type) LiteralArg(i int) (Literal, bool) {
	if i < 0 || i >= len(t.args) {
		return nil, false
	}
	l, ok := t.args[i].(Literal)
	return l, ok
}

// Abstract reports whether the class is abstract or any type argument is.
func (t *Type) Abstract() bool { return t.abstract }

// Is reports whether t's class is c or a descendant of c.
func (t *Type) Is(c *Class) bool { return t.class.IsA(c) }

// Equal is structural equality: identical class and pairwise-equal args.
func (t *Type) Equal(other *Type) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil || t.class != other.class || len(t.args) != len(other.args) {
		return false
	}
	for i := range t.args {
		if !argsEqual(t.args[i], other.args[i]) {
			return false
		}
	}
	return true
}

// IsSubtypeOf reports whether every value of t is also a value of other.
// A literal argument is a subtype of the primitive type of its kind, and of
// any type that primitive type is a subtype of.
func (t *Type) IsSubtypeOf(other *Type) bool {
	if t == nil || other == nil || !t.class.IsA(other.class) {
		return false
	}
	if len(t.args) < len(other.args) {
		return false
	}
	for i, oa := range other.args {
		if !argIsSubtype(t.args[i], oa) {
			return false
		}
	}
	return true
}

func argIsSubtype(a, b Arg) bool {
	bt, bIsType := b.(*Type)
	switch x := a.(type) {
	case *Type:
		return bIsType && x.IsSubtypeOf(bt)
	case Literal:
		if bIsType {
			return primitiveType(x.Kind()).IsSubtypeOf(bt)
		}
		return argsEqual(a, b)
	default:
		return false
	}
}

// String renders t with intrinsic class names. Registry.Format produces the
// canonical form.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	var b strings.Builder
	writeType(&b, t, func(c *Class) (string, error) { return c.name, nil })
	return b.String()
}

func argString(a Arg) string {
	if a == nil {
		return "<nil>"
	}
	return a.String()
}

// writeType renders t using nameOf for class names.
func writeType(b *strings.Builder, t *Type, nameOf func(*Class) (string, error)) error {
	name, err := nameOf(t.class)
	if err != nil {
		return err
	}
	b.WriteString(name)
	if len(t.args) == 0 {
		return nil
	}
	b.WriteByte('<')
	for i, a := range t.args {
		if i > 0 {
			b.WriteString(", ")
		}
		if nested, ok := a.(*Type); ok {
			if err := writeType(b, nested, nameOf); err != nil {
				return err
			}
			continue
		}
		b.WriteString(a.String())
	}
	b.WriteByte('>')
	return nil
}

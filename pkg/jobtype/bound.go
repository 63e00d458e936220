package jobtype

import "strings"

type boundKind int

const (
	boundClass boundKind = iota + 1
	boundType
	boundLiteral
)

// Bound is the constraint a parameter slot places on its argument. It is
// one of: an instance of a class (or a descendant), a subtype of a given
// type, or a literal of a primitive kind.
type Bound struct {
	kind  boundKind
	class *Class
	typ   *Type
	lit   Kind
}

// OfClass accepts any type whose class is c or a descendant of c.
func OfClass(c *Class) Bound { return Bound{kind: boundClass, class: c} }

// SubtypeOf accepts any type that is a subtype of t.
func SubtypeOf(t *Type) Bound { return Bound{kind: boundType, typ: t} }

// LiteralOf accepts a literal of kind k, or the primitive type of kind k
// standing for "any value of that kind".
func LiteralOf(k Kind) Bound { return Bound{kind: boundLiteral, lit: k} }

func (b Bound) valid() bool {
	switch b.kind {
	case boundClass:
		return b.class != nil
	case boundType:
		return b.typ != nil
	case boundLiteral:
		return primitiveClass(b.lit) != nil
	default:
		return false
	}
}

// IsLiteral reports whether the slot takes a literal, and of which kind.
func (b Bound) IsLiteral() (Kind, bool) {
	return b.lit, b.kind == boundLiteral
}

// Accepts reports whether a satisfies the bound. A string literal ending in
// a backslash is refused: its quoted form would escape the closing quote.
func (b Bound) Accepts(a Arg) bool {
	switch b.kind {
	case boundClass:
		t, ok := a.(*Type)
		return ok && t != nil && t.class.IsA(b.class)
	case boundType:
		t, ok := a.(*Type)
		return ok && t != nil && t.IsSubtypeOf(b.typ)
	case boundLiteral:
		switch x := a.(type) {
		case *Type:
			return x != nil && x.class == primitiveClass(b.lit)
		case StringLit:
			return b.lit == KindString && !strings.HasSuffix(string(x), `\`)
		case Literal:
			return x.Kind() == b.lit
		}
	}
	return false
}

// Top is the least constrained argument that satisfies the bound.
func (b Bound) Top() Arg {
	switch b.kind {
	case boundClass:
		return Unconstrained(b.class)
	case boundType:
		return b.typ
	default:
		return primitiveType(b.lit)
	}
}

func (b Bound) String() string {
	switch b.kind {
	case boundClass:
		return b.class.name
	case boundType:
		return b.typ.String()
	case boundLiteral:
		return primitiveClass(b.lit).name
	default:
		return "<invalid bound>"
	}
}

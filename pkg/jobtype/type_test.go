package jobtype

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Local classes so that these tests only depend on the builtins.
var (
	sized = MustDefine(ClassSpec{
		Name:   "Sized",
		Parent: JSONValue,
		Params: []Bound{OfClass(JSONValue), LiteralOf(KindInt)},
	})
	tagged = MustDefine(ClassSpec{
		Name:   "Tagged",
		Parent: JSONValue,
		Params: []Bound{LiteralOf(KindString)},
	})
	abstractHolder = MustDefine(ClassSpec{
		Name:     "Holder",
		Abstract: true,
		Params:   []Bound{SubtypeOf(IntegerType)},
	})
)

func TestDefine(t *testing.T) {
	tests := []struct {
		name    string
		spec    ClassSpec
		wantErr bool
	}{
		{"valid", ClassSpec{Name: "Ok"}, false},
		{"bad identifier", ClassSpec{Name: "1bad"}, true},
		{"empty name", ClassSpec{Name: ""}, true},
		{"fewer params than parent", ClassSpec{Name: "Child", Parent: sized}, true},
		{"invalid bound", ClassSpec{Name: "Broken", Params: []Bound{{}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Define(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Base, c.Parent(), "parent defaults to the base class")
			assert.True(t, c.IsA(Base))
		})
	}
}

func TestClassBehaviourInherited(t *testing.T) {
	child := MustDefine(ClassSpec{Name: "MyString", Parent: String})
	_, ok := child.Behaviour().(JSONBehaviour)
	assert.True(t, ok, "behaviour comes from the nearest ancestor that has one")
	assert.True(t, IsJSON(Unconstrained(child)))
}

func TestNew_Arity(t *testing.T) {
	tests := []struct {
		name string
		args []Arg
	}{
		{"too few", []Arg{IntegerType}},
		{"too many", []Arg{IntegerType, IntLit(1), IntLit(2)}},
		{"none", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(sized, tt.args...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrWrongNumberOfTypeArgs))
			assert.Equal(t, KindArity, KindOf(err))

			var arityErr *ArityError
			require.ErrorAs(t, err, &arityErr)
			assert.Equal(t, len(tt.args), arityErr.Passed)
			assert.Equal(t, 2, arityErr.Required)
		})
	}
}

func TestNew_ArityCheckedBeforeBounds(t *testing.T) {
	_, err := New(sized, StringLit("not a type"))
	assert.Equal(t, KindArity, KindOf(err))
}

func TestNew_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		class   *Class
		args    []Arg
		wantErr bool
	}{
		{"class bound accepts descendant", sized, []Arg{IntegerType, IntLit(3)}, false},
		{"literal slot accepts primitive type", sized, []Arg{IntegerType, IntegerType}, false},
		{"class bound rejects literal", sized, []Arg{IntLit(1), IntLit(3)}, true},
		{"literal slot rejects wrong kind", sized, []Arg{IntegerType, StringLit("3")}, true},
		{"literal slot rejects other primitive", sized, []Arg{IntegerType, StringType}, true},
		{"nil argument", sized, []Arg{nil, IntLit(3)}, true},
		{"string literal", tagged, []Arg{StringLit("x")}, false},
		{"string literal with inner backslash", tagged, []Arg{StringLit(`a\b`)}, false},
		{"string literal ending in backslash", tagged, []Arg{StringLit(`a\`)}, true},
		{"subtype bound accepts itself", abstractHolder, []Arg{IntegerType}, false},
		{"subtype bound rejects other type", abstractHolder, []Arg{FloatType}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, err := New(tt.class, tt.args...)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrIsNotSubtype))
				assert.Equal(t, KindBound, KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.class, typ.Class())
		})
	}
}

func TestNew_NilClass(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestUnconstrained(t *testing.T) {
	typ := Unconstrained(sized)
	require.Len(t, typ.Args(), 2)

	inner, ok := typ.TypeArg(0)
	require.True(t, ok)
	assert.Equal(t, JSONValue, inner.Class())
	assert.True(t, typ.Abstract(), "an abstract argument makes the type abstract")

	size, ok := typ.TypeArg(1)
	require.True(t, ok)
	assert.True(t, size.Equal(IntegerType), "a literal slot's top is its primitive type")

	assert.False(t, Unconstrained(tagged).Abstract())
	assert.True(t, Unconstrained(abstractHolder).Abstract())
}

func TestArgsAreCopied(t *testing.T) {
	typ := MustNew(sized, IntegerType, IntLit(3))
	args := typ.Args()
	args[1] = IntLit(99)
	lit, ok := typ.LiteralArg(1)
	require.True(t, ok)
	assert.Equal(t, IntLit(3), lit)

	_, ok = typ.LiteralArg(5)
	assert.False(t, ok)
}

func TestEqual(t *testing.T) {
	a := MustNew(sized, IntegerType, IntLit(3))
	b := MustNew(sized, IntegerType, IntLit(3))
	c := MustNew(sized, IntegerType, IntLit(4))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))

	nan := MustDefine(ClassSpec{Name: "Ratio", Params: []Bound{LiteralOf(KindFloat)}})
	x := MustNew(nan, FloatLit(math.NaN()))
	y := MustNew(nan, FloatLit(math.NaN()))
	assert.True(t, x.Equal(y), "NaN literals are structurally equal")
}

func TestIsSubtypeOf(t *testing.T) {
	sized3 := MustNew(sized, IntegerType, IntLit(3))
	sizedAny := MustNew(sized, IntegerType, IntegerType)
	sizedJSON := Unconstrained(sized)
	sizedFloat := MustNew(sized, FloatType, IntLit(3))

	tests := []struct {
		name string
		a, b *Type
		want bool
	}{
		{"reflexive", sized3, sized3, true},
		{"literal below its primitive", sized3, sizedAny, true},
		{"primitive not below literal", sizedAny, sized3, false},
		{"covariant in type args", sized3, sizedJSON, true},
		{"unrelated element", sized3, sizedFloat, false},
		{"class below ancestor", IntegerType, Unconstrained(JSONValue), true},
		{"ancestor not below class", Unconstrained(JSONValue), IntegerType, false},
		{"siblings", IntegerType, FloatType, false},
		{"nil", sized3, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.IsSubtypeOf(tt.b))
		})
	}
}

func TestIsSubtypeOf_Antisymmetric(t *testing.T) {
	types := []*Type{
		MustNew(sized, IntegerType, IntLit(3)),
		MustNew(sized, IntegerType, IntegerType),
		Unconstrained(sized),
		IntegerType,
		StringType,
		Unconstrained(JSONValue),
	}
	for _, a := range types {
		assert.True(t, a.IsSubtypeOf(a), "%s is a subtype of itself", a)
		for _, b := range types {
			if a.IsSubtypeOf(b) && b.IsSubtypeOf(a) {
				assert.True(t, a.Equal(b), "%s and %s are mutual subtypes", a, b)
			}
		}
	}
}

func TestTypeString(t *testing.T) {
	typ := MustNew(sized, MustNew(tagged, StringLit("it's")), IntLit(3))
	assert.Equal(t, `Sized<Tagged<'it\'s'>, 3>`, typ.String())
	assert.Equal(t, "Integer", IntegerType.String())
}

func TestLiteralString(t *testing.T) {
	tests := []struct {
		lit  Literal
		want string
	}{
		{StringLit("plain"), "'plain'"},
		{StringLit("it's"), `'it\'s'`},
		{IntLit(-12), "-12"},
		{FloatLit(2), "2.0"},
		{FloatLit(0.5), "0.5"},
		{FloatLit(1e21), "1e+21"},
		{BoolLit(true), "@true"},
		{BoolLit(false), "@false"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.lit.String())
		})
	}
}

func TestLiteralFromValue(t *testing.T) {
	lit, ok := LiteralFromValue(7)
	require.True(t, ok)
	assert.Equal(t, IntLit(7), lit)

	_, ok = LiteralFromValue([]int{1})
	assert.False(t, ok)
}

func TestIsIdentifier(t *testing.T) {
	for _, s := range []string{"A", "_x", "Docker_Image2"} {
		assert.True(t, IsIdentifier(s), s)
	}
	for _, s := range []string{"", "2A", "a-b", "a b", "A<"} {
		assert.False(t, IsIdentifier(s), s)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{&ArityError{TypeName: "X"}, KindArity},
		{&BoundError{TypeName: "X"}, KindBound},
		{&UnknownNameError{Name: "X"}, KindUnknownName},
		{&ParseError{Text: "X", Cause: &UnknownNameError{Name: "X"}}, KindParse},
		{ErrNotInitialised, KindNotInitialised},
		{ErrTypeDoesNotSupportJSON, KindUnsupportedEncoding},
		{ErrAbstractType, KindUnsupportedEncoding},
		{&LookupError{Err: ErrNoUniqueValue}, KindLookup},
		{ErrNoValueWithName, KindLookup},
		{&SchemaValidationError{}, KindValueShape},
		{ShapeErrorf("bad %d", 1), KindValueShape},
		{errors.New("other"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	err := &ArityError{TypeName: "Array", Passed: 1, Required: 2}
	assert.Equal(t,
		"wrong number of type arguments passed to generic type 'Array': expected 2 but got 1",
		err.Error())

	assert.Equal(t, "unknown type-name 'Nope'", (&UnknownNameError{Name: "Nope"}).Error())

	parseErr := &ParseError{Text: "Array<", Reason: "unterminated type-argument list"}
	assert.Contains(t, parseErr.Error(), "error parsing type-string 'Array<'")
}

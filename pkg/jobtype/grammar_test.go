package jobtype_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/jobtypes/internal/fixture"
	"github.com/ChuLiYu/jobtypes/pkg/jobtype"
	"github.com/ChuLiYu/jobtypes/pkg/jobtype/catalog"
	"github.com/ChuLiYu/jobtypes/pkg/jobtype/server"
	"github.com/ChuLiYu/jobtypes/pkg/jobtype/standard"
)

func newRegistry(t *testing.T) *jobtype.Registry {
	t.Helper()
	reg, err := catalog.NewRegistry(fixture.New())
	require.NoError(t, err)
	return reg
}

func TestParseFormat_RoundTrip(t *testing.T) {
	reg := newRegistry(t)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"primitive", "Integer", "Integer"},
		{"bare name takes bound tops", "Array", "Array<JSONValue, Integer>"},
		{"fixed size", "Array<Integer,3>", "Array<Integer, 3>"},
		{"whitespace", "  Array < Integer , 3 >  ", "Array<Integer, 3>"},
		{"nested", "PK<DockerImage<Domain<'Image Classification'>, Framework<'tf', '2.3'>>>",
			"PK<DockerImage<Domain<'Image Classification'>, Framework<'tf', '2.3'>>>"},
		{"escaped quote", `Domain<'it\'s'>`, `Domain<'it\'s'>`},
		{"backslash before quote", `Domain<'a\\'b'>`, `Domain<'a\\'b'>`},
		{"comma inside string", "Domain<'a, b'>", "Domain<'a, b'>"},
		{"bracket inside string", "Domain<'a<b>'>", "Domain<'a<b>'>"},
		{"compressed", "Compressed<BLOB, Zstd>", "Compressed<BLOB<String>, Zstd>"},
		{"map", "Map<Array<Float, 2>>", "Map<Array<Float, 2>>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, err := reg.ParseType(tt.text)
			require.NoError(t, err)

			formatted, err := reg.Format(typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, formatted)

			again, err := reg.ParseType(formatted)
			require.NoError(t, err)
			assert.True(t, again.Equal(typ), "format/parse round trip of %s", formatted)
		})
	}
}

func TestParse_Literals(t *testing.T) {
	reg := newRegistry(t)

	tests := []struct {
		text string
		want jobtype.Literal
	}{
		{"'hello'", jobtype.StringLit("hello")},
		{`'it\'s'`, jobtype.StringLit("it's")},
		{"''", jobtype.StringLit("")},
		{"42", jobtype.IntLit(42)},
		{"-7", jobtype.IntLit(-7)},
		{"1.5", jobtype.FloatLit(1.5)},
		{"2.0", jobtype.FloatLit(2)},
		{"1e3", jobtype.FloatLit(1000)},
		{"@true", jobtype.BoolLit(true)},
		{"@false", jobtype.BoolLit(false)},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			a, err := reg.Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a)

			formatted, err := reg.Format(a)
			require.NoError(t, err)
			back, err := reg.Parse(formatted)
			require.NoError(t, err)
			assert.Equal(t, tt.want, back)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	reg := newRegistry(t)

	tests := []struct {
		name string
		text string
		kind jobtype.ErrorKind
	}{
		{"empty", "   ", jobtype.KindParse},
		{"unterminated list", "Array<Integer", jobtype.KindParse},
		{"unbalanced", "Array<Integer>>", jobtype.KindParse},
		{"trailing junk", "Array<Integer>x", jobtype.KindParse},
		{"empty argument", "Array<Integer,>", jobtype.KindParse},
		{"unterminated string", "Domain<'abc>", jobtype.KindParse},
		{"unescaped quote", "'a'b'", jobtype.KindParse},
		{"bad name", "Array-X", jobtype.KindParse},
		{"unknown top-level name", "Nope", jobtype.KindUnknownName},
		{"unknown nested name", "Array<Nope>", jobtype.KindParse},
		{"arity nested", "Array<Integer, 3, 4>", jobtype.KindParse},
		{"bound nested", "Array<Integer, 'three'>", jobtype.KindParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Parse(tt.text)
			require.Error(t, err)
			assert.Equal(t, tt.kind, jobtype.KindOf(err), "error: %v", err)
		})
	}
}

func TestParse_NestedCauseIsKept(t *testing.T) {
	reg := newRegistry(t)

	_, err := reg.Parse("Array<Integer, 3, 4>")
	require.Error(t, err)
	assert.True(t, errors.Is(err, jobtype.ErrTypeParsing))
	assert.True(t, errors.Is(err, jobtype.ErrWrongNumberOfTypeArgs))

	var arityErr *jobtype.ArityError
	require.ErrorAs(t, err, &arityErr)
	assert.Equal(t, 3, arityErr.Passed)
}

func TestParseType_RejectsLiteral(t *testing.T) {
	reg := newRegistry(t)

	_, err := reg.ParseType("3")
	assert.Equal(t, jobtype.KindParse, jobtype.KindOf(err))
}

func TestFormat_UnregisteredClass(t *testing.T) {
	reg := jobtype.NewRegistry()
	require.NoError(t, reg.Register(jobtype.Builtins(), fixture.New()))

	_, err := reg.Format(jobtype.MustNew(standard.Array, jobtype.IntegerType, jobtype.IntLit(3)))
	assert.Equal(t, jobtype.KindUnknownName, jobtype.KindOf(err))

	s, err := reg.Format(jobtype.IntLit(3))
	require.NoError(t, err)
	assert.Equal(t, "3", s)
}

func TestFormat_UsesRegisteredNames(t *testing.T) {
	classes := catalog.Classes()
	delete(classes, "Domain")
	classes["Area"] = server.Domain

	reg := jobtype.NewRegistry()
	require.NoError(t, reg.Register(classes, fixture.New()))

	typ, err := reg.ParseType("Area<'x'>")
	require.NoError(t, err)
	assert.Equal(t, "Domain<'x'>", typ.String(), "String uses the intrinsic class name")
	assert.Equal(t, "Area<'x'>", reg.MustFormat(typ))

	_, err = reg.ParseType("Domain<'x'>")
	assert.Equal(t, jobtype.KindUnknownName, jobtype.KindOf(err))
}

func TestNotInitialised(t *testing.T) {
	reg := jobtype.NewRegistry()

	_, err := reg.Parse("Integer")
	assert.ErrorIs(t, err, jobtype.ErrNotInitialised)

	_, err = reg.Format(jobtype.IntegerType)
	assert.ErrorIs(t, err, jobtype.ErrNotInitialised)

	_, err = reg.Names()
	assert.ErrorIs(t, err, jobtype.ErrNotInitialised)

	_, err = reg.Schema(context.Background(), jobtype.IntegerType)
	assert.ErrorIs(t, err, jobtype.ErrNotInitialised)

	_, err = reg.QueryList(context.Background(), "domain", nil)
	assert.ErrorIs(t, err, jobtype.ErrNotInitialised)
}

func TestSubtypeThroughParse(t *testing.T) {
	reg := newRegistry(t)

	tests := []struct {
		a, b string
		want bool
	}{
		{"Array<Integer, 3>", "Array<Integer, Integer>", true},
		{"Array<Integer, Integer>", "Array<Integer, 3>", false},
		{"Array<Integer, 3>", "Array", true},
		{"Array<Integer, 3>", "Array<Integer, 4>", false},
		{"Domain<'x'>", "Domain", true},
		{"Domain", "Domain<'x'>", false},
		{"PK<Domain<'x'>>", "PK<Domain>", true},
		{"Name<Domain<'x'>>", "PK<Domain<'x'>>", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+" <: "+tt.b, func(t *testing.T) {
			a, err := reg.ParseType(tt.a)
			require.NoError(t, err)
			b, err := reg.ParseType(tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.IsSubtypeOf(b))
		})
	}
}

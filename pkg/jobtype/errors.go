package jobtype

// ============================================================================
// Error taxonomy
// Every failure raised by the type system belongs to exactly one ErrorKind.
// Sentinels identify the kind with errors.Is; the struct errors carry detail.
// ============================================================================

import (
	"errors"
	"fmt"
	"strings"
)

// Predefined errors
var (
	// ErrWrongNumberOfTypeArgs is raised when a class receives the wrong arity
	ErrWrongNumberOfTypeArgs = errors.New("jobtype: wrong number of type arguments")

	// ErrIsNotSubtype is raised when a type argument violates its slot's bound
	ErrIsNotSubtype = errors.New("jobtype: type argument is not a subtype of its bound")

	// ErrUnknownTypeName is raised when a name has no registry entry
	ErrUnknownTypeName = errors.New("jobtype: unknown type name")

	// ErrTypeParsing is raised for malformed type-expression text
	ErrTypeParsing = errors.New("jobtype: error parsing type expression")

	// ErrNotInitialised is raised when the registry is used before Register
	ErrNotInitialised = errors.New("jobtype: registry is not yet initialised")

	// ErrUnsupportedEncoding is the parent of every encoding refusal
	ErrUnsupportedEncoding = errors.New("jobtype: unsupported encoding")

	// ErrTypeDoesNotSupportJSON is raised when JSON is requested from a binary-only type
	ErrTypeDoesNotSupportJSON = fmt.Errorf("%w: type does not support JSON values", ErrUnsupportedEncoding)

	// ErrTypeDoesNotSupportBinary is raised when binary is requested from a type without it
	ErrTypeDoesNotSupportBinary = fmt.Errorf("%w: type does not support binary values", ErrUnsupportedEncoding)

	// ErrAbstractType is raised when a value operation is invoked on an abstract type
	ErrAbstractType = fmt.Errorf("%w: type is abstract", ErrUnsupportedEncoding)

	// ErrLookup is the parent of every failed name/pk resolution
	ErrLookup = errors.New("jobtype: lookup failed")

	// ErrNoUniqueValue is raised when a key matches zero or several rows
	ErrNoUniqueValue = fmt.Errorf("%w: no unique value for key", ErrLookup)

	// ErrNoValueWithName is raised when a name matches no row
	ErrNoValueWithName = fmt.Errorf("%w: no value with that name", ErrLookup)

	// ErrValueShape is raised when a value has the wrong structure
	ErrValueShape = errors.New("jobtype: value has the wrong shape")

	// ErrSchemaValidation is raised when a value fails JSON schema validation
	ErrSchemaValidation = fmt.Errorf("%w: schema validation failed", ErrValueShape)
)

// ErrorKind is the closed set of failure categories.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindArity
	KindBound
	KindUnknownName
	KindParse
	KindNotInitialised
	KindUnsupportedEncoding
	KindLookup
	KindValueShape
)

func (k ErrorKind) String() string {
	switch k {
	case KindArity:
		return "arity"
	case KindBound:
		return "bound"
	case KindUnknownName:
		return "unknown-name"
	case KindParse:
		return "parse"
	case KindNotInitialised:
		return "not-initialised"
	case KindUnsupportedEncoding:
		return "unsupported-encoding"
	case KindLookup:
		return "lookup"
	case KindValueShape:
		return "value-shape"
	default:
		return "unknown"
	}
}

// KindOf classifies err. A parse error takes precedence over its cause, so
// an unknown name nested in a larger expression reports KindParse.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrTypeParsing):
		return KindParse
	case errors.Is(err, ErrWrongNumberOfTypeArgs):
		return KindArity
	case errors.Is(err, ErrIsNotSubtype):
		return KindBound
	case errors.Is(err, ErrUnknownTypeName):
		return KindUnknownName
	case errors.Is(err, ErrNotInitialised):
		return KindNotInitialised
	case errors.Is(err, ErrUnsupportedEncoding):
		return KindUnsupportedEncoding
	case errors.Is(err, ErrLookup):
		return KindLookup
	case errors.Is(err, ErrValueShape):
		return KindValueShape
	default:
		return KindUnknown
	}
}

// ArityError reports a wrong number of type arguments.
type ArityError struct {
	TypeName string // name of the class being instantiated
	Passed   int    // number of arguments supplied
	Required int    // arity of the class
}

func (e *ArityError) Error() string {
	return fmt.Sprintf(
		"wrong number of type arguments passed to generic type '%s': expected %d but got %d",
		e.TypeName, e.Required, e.Passed,
	)
}

func (e *ArityError) Is(target error) bool { return target == ErrWrongNumberOfTypeArgs }

// BoundError reports a type argument that does not satisfy its bound.
type BoundError struct {
	TypeName string // class being instantiated
	Index    int    // slot index
	Arg      string // formatted argument
	Bound    string // formatted bound
}

func (e *BoundError) Error() string {
	return fmt.Sprintf(
		"type argument %d of '%s': %s is not a subtype of %s",
		e.Index, e.TypeName, e.Arg, e.Bound,
	)
}

func (e *BoundError) Is(target error) bool { return target == ErrIsNotSubtype }

// UnknownNameError reports a type name with no registry entry.
type UnknownNameError struct {
	Name string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("unknown type-name '%s'", e.Name)
}

func (e *UnknownNameError) Is(target error) bool { return target == ErrUnknownTypeName }

// ParseError reports malformed type-expression text. Cause is set when the
// failure happened while building a nested type.
type ParseError struct {
	Text   string
	Reason string
	Cause  error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "error parsing type-string '%s'", e.Text)
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *ParseError) Is(target error) bool { return target == ErrTypeParsing }

func (e *ParseError) Unwrap() error { return e.Cause }

// SchemaValidationError reports a value rejected by a JSON schema.
type SchemaValidationError struct {
	Value   any
	Schema  Schema
	Details []string
}

func (e *SchemaValidationError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("value %v failed schema validation", e.Value)
	}
	return fmt.Sprintf("value %v failed schema validation: %s", e.Value, strings.Join(e.Details, "; "))
}

func (e *SchemaValidationError) Is(target error) bool {
	return target == ErrSchemaValidation || target == ErrValueShape
}

// LookupError reports a name or primary key that did not resolve to exactly
// one row.
type LookupError struct {
	Table string
	Key   any
	Found int
	Err   error // ErrNoUniqueValue or ErrNoValueWithName
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: table %q, key %v, %d matches", e.Err, e.Table, e.Key, e.Found)
}

func (e *LookupError) Unwrap() error { return e.Err }

// ShapeErrorf builds an ErrValueShape error with a message.
func ShapeErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValueShape, fmt.Sprintf(format, args...))
}

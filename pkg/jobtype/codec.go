package jobtype

// ============================================================================
// Value protocol
//
// A class's behaviour object decides which encodings its instances support.
// The registry dispatches on the interfaces below; a behaviour implements
// whichever subset applies. Binary defaults to UTF-8 JSON text for any
// JSON-capable type.
//
// ParseJSON validates its input and FormatJSON its output against the
// type's schema, so behaviours only see and produce schema-valid JSON.
// ============================================================================

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// JSONBehaviour is implemented by classes whose values have a JSON form.
// ParseJSON turns a decoded JSON value into the in-process value and
// FormatJSON does the reverse.
type JSONBehaviour interface {
	Schema(ctx context.Context, reg *Registry, t *Type) (Schema, error)
	ParseJSON(ctx context.Context, reg *Registry, t *Type, v any) (any, error)
	FormatJSON(ctx context.Context, reg *Registry, t *Type, v any) (any, error)
}

// KeyedBehaviour is implemented by classes whose JSON values are keys
// resolved against the backend. Input is validated against KeySchema rather
// than the full enumeration, so an unmatched key fails as a lookup.
type KeyedBehaviour interface {
	KeySchema(t *Type) Schema
}

// BinaryBehaviour overrides the default JSON-text binary encoding.
type BinaryBehaviour interface {
	ParseBinary(ctx context.Context, reg *Registry, t *Type, data []byte) (any, error)
	FormatBinary(ctx context.Context, reg *Registry, t *Type, v any) ([]byte, error)
}

// FiniteBehaviour enumerates every legal JSON value of a type.
type FiniteBehaviour interface {
	ListAllValues(ctx context.Context, reg *Registry, t *Type) ([]any, error)
}

// ServerResidentBehaviour names the table backing a type and the filter
// field for each of its parameters ("" for none).
type ServerResidentBehaviour interface {
	Table(t *Type) string
	FilterFields(t *Type) []string
}

// NamedBehaviour is implemented by server-resident classes whose rows carry
// a unique name.
type NamedBehaviour interface {
	ExtractName(t *Type, row Row) (string, error)
	NameField(t *Type) string
}

func behaviourAs[B any](t *Type) (B, bool) {
	b, ok := t.class.Behaviour().(B)
	return b, ok
}

// IsJSON reports whether t's values have a JSON form.
func IsJSON(t *Type) bool {
	_, ok := behaviourAs[JSONBehaviour](t)
	return ok
}

// IsFinite reports whether t's values can be enumerated.
func IsFinite(t *Type) bool {
	if _, ok := behaviourAs[FiniteBehaviour](t); ok {
		return true
	}
	return IsServerResident(t)
}

// IsServerResident reports whether t is backed by a server table.
func IsServerResident(t *Type) bool {
	_, ok := behaviourAs[ServerResidentBehaviour](t)
	return ok
}

// IsNamed reports whether t's rows can be addressed by name.
func IsNamed(t *Type) bool {
	_, ok := behaviourAs[NamedBehaviour](t)
	return ok && IsServerResident(t)
}

func (r *Registry) jsonBehaviour(t *Type) (JSONBehaviour, error) {
	if t == nil {
		return nil, fmt.Errorf("jobtype: nil type")
	}
	if !r.Initialised() {
		return nil, ErrNotInitialised
	}
	if t.abstract {
		return nil, fmt.Errorf("%s: %w", t, ErrAbstractType)
	}
	b, ok := behaviourAs[JSONBehaviour](t)
	if !ok {
		return nil, fmt.Errorf("%s: %w", t, ErrTypeDoesNotSupportJSON)
	}
	return b, nil
}

// Schema returns the JSON schema of t's values.
func (r *Registry) Schema(ctx context.Context, t *Type) (Schema, error) {
	s, err := r.schema(ctx, t)
	r.observe("schema", err)
	return s, err
}

func (r *Registry) schema(ctx context.Context, t *Type) (Schema, error) {
	b, err := r.jsonBehaviour(t)
	if err != nil {
		return nil, err
	}
	return b.Schema(ctx, r, t)
}

// Validate checks a JSON value against t's schema.
func (r *Registry) Validate(ctx context.Context, t *Type, v any) error {
	err := r.validate(ctx, t, v)
	r.observe("validate", err)
	return err
}

func (r *Registry) validate(ctx context.Context, t *Type, v any) error {
	s, err := r.schema(ctx, t)
	if err != nil {
		return err
	}
	return ValidateSchema(s, v)
}

// ParseJSON decodes a JSON value of type t.
func (r *Registry) ParseJSON(ctx context.Context, t *Type, v any) (any, error) {
	out, err := r.parseJSON(ctx, t, v)
	r.observe("parse_json", err)
	return out, err
}

func (r *Registry) parseJSON(ctx context.Context, t *Type, v any) (any, error) {
	b, err := r.jsonBehaviour(t)
	if err != nil {
		return nil, err
	}
	var s Schema
	if k, ok := b.(KeyedBehaviour); ok {
		s = k.KeySchema(t)
	} else if s, err = b.Schema(ctx, r, t); err != nil {
		return nil, err
	}
	if err := ValidateSchema(s, v); err != nil {
		return nil, err
	}
	return b.ParseJSON(ctx, r, t, v)
}

// FormatJSON encodes a value of type t as JSON.
func (r *Registry) FormatJSON(ctx context.Context, t *Type, v any) (any, error) {
	out, err := r.formatJSON(ctx, t, v)
	r.observe("format_json", err)
	return out, err
}

func (r *Registry) formatJSON(ctx context.Context, t *Type, v any) (any, error) {
	b, err := r.jsonBehaviour(t)
	if err != nil {
		return nil, err
	}
	out, err := b.FormatJSON(ctx, r, t, v)
	if err != nil {
		return nil, err
	}
	s, err := b.Schema(ctx, r, t)
	if err != nil {
		return nil, err
	}
	if err := ValidateSchema(s, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseBinary decodes a binary value of type t.
func (r *Registry) ParseBinary(ctx context.Context, t *Type, data []byte) (any, error) {
	out, err := r.parseBinary(ctx, t, data)
	r.observe("parse_binary", err)
	return out, err
}

func (r *Registry) parseBinary(ctx context.Context, t *Type, data []byte) (any, error) {
	if err := r.checkConcrete(t); err != nil {
		return nil, err
	}
	if b, ok := behaviourAs[BinaryBehaviour](t); ok {
		return b.ParseBinary(ctx, r, t, data)
	}
	if !IsJSON(t) {
		return nil, fmt.Errorf("%s: %w", t, ErrTypeDoesNotSupportBinary)
	}
	if !utf8.Valid(data) {
		return nil, ShapeErrorf("binary value of %s is not UTF-8 text", t)
	}
	v, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return r.parseJSON(ctx, t, v)
}

// FormatBinary encodes a value of type t as bytes.
func (r *Registry) FormatBinary(ctx context.Context, t *Type, v any) ([]byte, error) {
	out, err := r.formatBinary(ctx, t, v)
	r.observe("format_binary", err)
	return out, err
}

func (r *Registry) formatBinary(ctx context.Context, t *Type, v any) ([]byte, error) {
	if err := r.checkConcrete(t); err != nil {
		return nil, err
	}
	if b, ok := behaviourAs[BinaryBehaviour](t); ok {
		return b.FormatBinary(ctx, r, t, v)
	}
	if !IsJSON(t) {
		return nil, fmt.Errorf("%s: %w", t, ErrTypeDoesNotSupportBinary)
	}
	j, err := r.formatJSON(ctx, t, v)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(j)
	if err != nil {
		return nil, ShapeErrorf("value of %s is not JSON-encodable: %v", t, err)
	}
	return data, nil
}

func (r *Registry) checkConcrete(t *Type) error {
	if t == nil {
		return fmt.Errorf("jobtype: nil type")
	}
	if !r.Initialised() {
		return ErrNotInitialised
	}
	if t.abstract {
		return fmt.Errorf("%s: %w", t, ErrAbstractType)
	}
	return nil
}

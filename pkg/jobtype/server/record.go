// Package server provides the classes of the records kept in the platform's
// server tables: domains, frameworks, hardware generations, CUDA versions,
// docker images, pretrained models, datasets and models.
package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ChuLiYu/jobtypes/pkg/jobtype"
)

// record is the behaviour of a server-resident class whose rows decode to R.
type record[R any] struct {
	table  func(t *jobtype.Type) string
	fields []string
	schema jobtype.Schema
}

func fixedTable(name string) func(*jobtype.Type) string {
	return func(*jobtype.Type) string { return name }
}

func (r record[R]) Table(t *jobtype.Type) string { return r.table(t) }

func (r record[R]) FilterFields(*jobtype.Type) []string { return r.fields }

func (r record[R]) Schema(context.Context, *jobtype.Registry, *jobtype.Type) (jobtype.Schema, error) {
	return r.schema, nil
}

func (r record[R]) ParseJSON(_ context.Context, _ *jobtype.Registry, _ *jobtype.Type, v any) (any, error) {
	var rec R
	if err := convert(v, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r record[R]) FormatJSON(_ context.Context, _ *jobtype.Registry, t *jobtype.Type, v any) (any, error) {
	switch rec := v.(type) {
	case R:
		return rowOf(rec)
	case *R:
		if rec != nil {
			return rowOf(*rec)
		}
	}
	var zero R
	return nil, jobtype.ShapeErrorf("%s expects a %T value, got %T", t, zero, v)
}

// namedRecord is a record whose rows carry a unique name.
type namedRecord[R any] struct {
	record[R]
	nameField string
}

func (n namedRecord[R]) NameField(*jobtype.Type) string { return n.nameField }

func (n namedRecord[R]) ExtractName(_ *jobtype.Type, row jobtype.Row) (string, error) {
	name, ok := row[n.nameField].(string)
	if !ok {
		return "", jobtype.ShapeErrorf("row has no string %q field", n.nameField)
	}
	return name, nil
}

// convert moves a JSON value into out through its JSON encoding.
func convert(v any, out any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return jobtype.ShapeErrorf("encode row: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return jobtype.ShapeErrorf("decode row into %T: %v", out, err)
	}
	return nil
}

func rowOf(rec any) (jobtype.Row, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", rec, err)
	}
	v, err := jobtype.DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	row, ok := v.(map[string]any)
	if !ok {
		return nil, jobtype.ShapeErrorf("%T does not encode to an object", rec)
	}
	return row, nil
}

// objectSchema builds an object schema from required and optional properties.
func objectSchema(required, optional map[string]jobtype.Schema) jobtype.Schema {
	s := jobtype.ObjectSchema(required)
	props := s["properties"].(map[string]any)
	for name, p := range optional {
		props[name] = p
	}
	return s
}

var (
	pkSchema     = jobtype.Schema{"type": "integer", "minimum": 1}
	stringSchema = jobtype.TypeSchema("string")
	numberSchema = jobtype.TypeSchema("number")
	boolSchema   = jobtype.TypeSchema("boolean")
)

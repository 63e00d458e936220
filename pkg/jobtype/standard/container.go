package standard

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ChuLiYu/jobtypes/pkg/jobtype"
)

var (
	// Array<Element, Size> is a JSON array of Element values. A literal Size
	// fixes the length; the Integer type leaves it open.
	Array = jobtype.MustDefine(jobtype.ClassSpec{
		Name:   "Array",
		Parent: jobtype.JSONValue,
		Params: []jobtype.Bound{
			jobtype.OfClass(jobtype.JSONValue),
			jobtype.LiteralOf(jobtype.KindInt),
		},
		Behaviour: arrayBehaviour{},
	})

	// Map<Value> is a JSON object with string keys and Value values.
	Map = jobtype.MustDefine(jobtype.ClassSpec{
		Name:      "Map",
		Parent:    jobtype.JSONValue,
		Params:    []jobtype.Bound{jobtype.OfClass(jobtype.JSONValue)},
		Behaviour: mapBehaviour{},
	})
)

// ArrayOf builds Array<element, size>; a negative size leaves the length open.
func ArrayOf(element *jobtype.Type, size int) (*jobtype.Type, error) {
	var sizeArg jobtype.Arg = jobtype.IntegerType
	if size >= 0 {
		sizeArg = jobtype.IntLit(size)
	}
	return jobtype.New(Array, element, sizeArg)
}

// ============================================================================
// Array
// ============================================================================

type arrayBehaviour struct{}

func arrayArgs(t *jobtype.Type) (*jobtype.Type, int64, bool) {
	element, _ := t.TypeArg(0)
	size, fixed := t.LiteralArg(1)
	if !fixed {
		return element, 0, false
	}
	n, _ := jobtype.AsInt64(size.Value())
	return element, n, true
}

func (arrayBehaviour) Schema(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type) (jobtype.Schema, error) {
	element, size, fixed := arrayArgs(t)
	items, err := reg.Schema(ctx, element)
	if err != nil {
		return nil, err
	}
	s := jobtype.Schema{"type": "array", "items": items}
	if fixed {
		s["minItems"] = size
		s["maxItems"] = size
	}
	return s, nil
}

func (arrayBehaviour) ParseJSON(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type, v any) (any, error) {
	values, ok := v.([]any)
	if !ok {
		return nil, jobtype.ShapeErrorf("expected a JSON array, got %T", v)
	}
	return mapElements(ctx, t, values, reg.ParseJSON)
}

func (arrayBehaviour) FormatJSON(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type, v any) (any, error) {
	values, err := sliceValues(v)
	if err != nil {
		return nil, err
	}
	return mapElements(ctx, t, values, reg.FormatJSON)
}

type elementFunc func(ctx context.Context, t *jobtype.Type, v any) (any, error)

func mapElements(ctx context.Context, t *jobtype.Type, values []any, fn elementFunc) ([]any, error) {
	element, size, fixed := arrayArgs(t)
	if fixed && int64(len(values)) != size {
		return nil, jobtype.ShapeErrorf("expected %d elements, got %d", size, len(values))
	}
	out := make([]any, len(values))
	for i, e := range values {
		converted, err := fn(ctx, element, e)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = converted
	}
	return out, nil
}

func sliceValues(v any) ([]any, error) {
	if values, ok := v.([]any); ok {
		return values, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, jobtype.ShapeErrorf("expected a slice, got %T", v)
	}
	values := make([]any, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return values, nil
}

// ============================================================================
// Map
// ============================================================================

type mapBehaviour struct{}

func (mapBehaviour) Schema(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type) (jobtype.Schema, error) {
	value, _ := t.TypeArg(0)
	s, err := reg.Schema(ctx, value)
	if err != nil {
		return nil, err
	}
	return jobtype.Schema{"type": "object", "additionalProperties": s}, nil
}

func (mapBehaviour) ParseJSON(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type, v any) (any, error) {
	entries, err := stringKeyed(v)
	if err != nil {
		return nil, err
	}
	return mapEntries(ctx, t, entries, reg.ParseJSON)
}

func (mapBehaviour) FormatJSON(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type, v any) (any, error) {
	entries, err := stringKeyed(v)
	if err != nil {
		return nil, err
	}
	return mapEntries(ctx, t, entries, reg.FormatJSON)
}

func mapEntries(ctx context.Context, t *jobtype.Type, entries map[string]any, fn elementFunc) (map[string]any, error) {
	value, _ := t.TypeArg(0)
	out := make(map[string]any, len(entries))
	for k, e := range entries {
		converted, err := fn(ctx, value, e)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = converted
	}
	return out, nil
}

// stringKeyed accepts any map whose keys are strings.
func stringKeyed(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, jobtype.ShapeErrorf("expected a JSON object, got %T", v)
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := iter.Key()
		if key.Kind() == reflect.Interface {
			key = key.Elem()
		}
		if key.Kind() != reflect.String {
			return nil, jobtype.ShapeErrorf("map key %v is not a string", iter.Key().Interface())
		}
		out[key.String()] = iter.Value().Interface()
	}
	return out, nil
}

// Package standard provides the generic classes every job-type registry
// carries: key and name adapters over server tables, containers, job
// outputs, and the raw JSON, null and binary utility types.
package standard

import (
	"context"
	"fmt"

	"github.com/ChuLiYu/jobtypes/pkg/jobtype"
)

// PKField is the primary-key field of every server row.
const PKField = "pk"

var (
	// PK<T> is a server-resident value addressed by its integer primary key.
	PK = jobtype.MustDefine(jobtype.ClassSpec{
		Name:      "PK",
		Parent:    jobtype.Finite,
		Params:    []jobtype.Bound{jobtype.OfClass(jobtype.ServerResident)},
		Behaviour: pkBehaviour{},
	})

	// Name<T> is a named server-resident value addressed by its name.
	Name = jobtype.MustDefine(jobtype.ClassSpec{
		Name:      "Name",
		Parent:    jobtype.Finite,
		Params:    []jobtype.Bound{jobtype.OfClass(jobtype.NamedServerResident)},
		Behaviour: nameBehaviour{},
	})
)

// PKOf returns the primary key of a server row.
func PKOf(row any) (int64, error) {
	m, ok := row.(map[string]any)
	if !ok {
		return 0, jobtype.ShapeErrorf("expected a server row, got %T", row)
	}
	pk, ok := jobtype.AsInt64(m[PKField])
	if !ok {
		return 0, jobtype.ShapeErrorf("row has no integer %q field", PKField)
	}
	return pk, nil
}

func innerType(t *jobtype.Type) *jobtype.Type {
	inner, _ := t.TypeArg(0)
	return inner
}

// ============================================================================
// PK<T>
// ============================================================================

type pkBehaviour struct{}

func (pkBehaviour) KeySchema(*jobtype.Type) jobtype.Schema { return jobtype.TypeSchema("integer") }

func (b pkBehaviour) ListAllValues(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type) ([]any, error) {
	rows, err := reg.ListAllValues(ctx, innerType(t))
	if err != nil {
		return nil, err
	}
	pks := make([]any, 0, len(rows))
	for _, row := range rows {
		pk, err := PKOf(row)
		if err != nil {
			return nil, err
		}
		pks = append(pks, pk)
	}
	return pks, nil
}

func (b pkBehaviour) Schema(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type) (jobtype.Schema, error) {
	pks, err := b.ListAllValues(ctx, reg, t)
	if err != nil {
		return nil, err
	}
	return jobtype.Enum(pks...), nil
}

func (pkBehaviour) ParseJSON(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type, v any) (any, error) {
	pk, ok := jobtype.AsInt64(v)
	if !ok {
		return nil, jobtype.ShapeErrorf("expected an integer primary key, got %v", v)
	}
	inner := innerType(t)
	row, err := reg.UniqueRow(ctx, inner, pk, jobtype.ErrNoUniqueValue, jobtype.Exact{Field: PKField, Value: pk})
	if err != nil {
		return nil, err
	}
	return reg.ParseJSON(ctx, inner, row)
}

func (pkBehaviour) FormatJSON(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type, v any) (any, error) {
	if pk, ok := jobtype.AsInt64(v); ok {
		return pk, nil
	}
	j, err := reg.FormatJSON(ctx, innerType(t), v)
	if err != nil {
		return nil, err
	}
	return PKOf(j)
}

// ============================================================================
// Name<T>
// ============================================================================

type nameBehaviour struct{}

func (nameBehaviour) KeySchema(*jobtype.Type) jobtype.Schema { return jobtype.TypeSchema("string") }

func (nameBehaviour) ListAllValues(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type) ([]any, error) {
	inner := innerType(t)
	rows, err := reg.ListAllValues(ctx, inner)
	if err != nil {
		return nil, err
	}
	names := make([]any, 0, len(rows))
	for _, v := range rows {
		row, ok := v.(map[string]any)
		if !ok {
			return nil, jobtype.ShapeErrorf("expected a server row, got %T", v)
		}
		name, err := reg.NameOf(inner, row)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func (b nameBehaviour) Schema(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type) (jobtype.Schema, error) {
	names, err := b.ListAllValues(ctx, reg, t)
	if err != nil {
		return nil, err
	}
	return jobtype.Enum(names...), nil
}

func (nameBehaviour) ParseJSON(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type, v any) (any, error) {
	name, ok := v.(string)
	if !ok {
		return nil, jobtype.ShapeErrorf("expected a name, got %v", v)
	}
	inner := innerType(t)
	row, err := reg.RowByName(ctx, inner, name)
	if err != nil {
		return nil, err
	}
	return reg.ParseJSON(ctx, inner, row)
}

func (nameBehaviour) FormatJSON(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type, v any) (any, error) {
	inner := innerType(t)
	j, err := reg.FormatJSON(ctx, inner, v)
	if err != nil {
		return nil, err
	}
	row, ok := j.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s formatted to %T, not a row: %w", inner, j, jobtype.ErrValueShape)
	}
	return reg.NameOf(inner, row)
}

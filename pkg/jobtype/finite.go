package jobtype

// ============================================================================
// Finite and server-resident types
//
// The filter of a server-resident type has one exact-match term per literal
// leaf argument. A term's field is the dot-joined path of filter field names
// from the root type down to the literal, so
//
//   DockerImage<Domain<'Image Classification'>, Framework<'mmdet', '2.0'>>
//
// filters on domain.name, framework.name and framework.version. Arguments
// whose field name is empty, and type arguments that are not themselves
// server-resident, contribute nothing.
// ============================================================================

import (
	"context"
	"fmt"
)

// FilterOf derives the filter for a server-resident type.
func FilterOf(t *Type) Filter {
	var f Filter
	appendFilter(&f, "", t)
	return f
}

func appendFilter(f *Filter, prefix string, t *Type) {
	sr, ok := behaviourAs[ServerResidentBehaviour](t)
	if !ok {
		return
	}
	fields := sr.FilterFields(t)
	for i, a := range t.args {
		if i >= len(fields) || fields[i] == "" {
			continue
		}
		path := prefix + fields[i]
		switch x := a.(type) {
		case Literal:
			*f = append(*f, Exact{Field: path, Value: x.Value()})
		case *Type:
			appendFilter(f, path+".", x)
		}
	}
}

// FilterExtender is implemented by server-resident classes whose filter
// has terms that do not come from literal arguments.
type FilterExtender interface {
	ExtendFilter(reg *Registry, t *Type, f Filter) (Filter, error)
}

// Filter returns the filter a server-resident type queries its table with.
func (r *Registry) Filter(t *Type) (Filter, error) {
	if _, err := r.serverResident(t); err != nil {
		return nil, err
	}
	f := FilterOf(t)
	if fe, ok := behaviourAs[FilterExtender](t); ok {
		return fe.ExtendFilter(r, t, f)
	}
	return f, nil
}

// Table returns the server table backing t.
func (r *Registry) Table(t *Type) (string, error) {
	sr, err := r.serverResident(t)
	if err != nil {
		return "", err
	}
	return sr.Table(t), nil
}

func (r *Registry) serverResident(t *Type) (ServerResidentBehaviour, error) {
	if t == nil {
		return nil, fmt.Errorf("jobtype: nil type")
	}
	sr, ok := behaviourAs[ServerResidentBehaviour](t)
	if !ok {
		return nil, fmt.Errorf("jobtype: %s is not a server-resident type", t)
	}
	return sr, nil
}

// Rows lists the rows of t's table that match its filter and extra.
func (r *Registry) Rows(ctx context.Context, t *Type, extra ...Exact) ([]Row, error) {
	sr, err := r.serverResident(t)
	if err != nil {
		return nil, err
	}
	filter, err := r.Filter(t)
	if err != nil {
		return nil, err
	}
	filter = append(filter, extra...)
	return r.QueryList(ctx, sr.Table(t), filter)
}

// ListAllValues enumerates the legal JSON values of a finite type. For a
// server-resident type without its own enumeration these are the rows of
// its table that match its filter.
func (r *Registry) ListAllValues(ctx context.Context, t *Type) ([]any, error) {
	values, err := r.listAllValues(ctx, t)
	r.observe("list_all_values", err)
	return values, err
}

func (r *Registry) listAllValues(ctx context.Context, t *Type) ([]any, error) {
	if err := r.checkConcrete(t); err != nil {
		return nil, err
	}
	if fb, ok := behaviourAs[FiniteBehaviour](t); ok {
		return fb.ListAllValues(ctx, r, t)
	}
	if !IsServerResident(t) {
		return nil, fmt.Errorf("jobtype: %s is not a finite type", t)
	}
	rows, err := r.Rows(ctx, t)
	if err != nil {
		return nil, err
	}
	values := make([]any, len(rows))
	for i, row := range rows {
		values[i] = row
	}
	return values, nil
}

// UniqueRow returns the single row of t matching extra, or a *LookupError
// wrapping notFound when there is none and ErrNoUniqueValue when there are
// several.
func (r *Registry) UniqueRow(ctx context.Context, t *Type, key any, notFound error, extra ...Exact) (Row, error) {
	rows, err := r.Rows(ctx, t, extra...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 1 {
		return rows[0], nil
	}
	lookupErr := ErrNoUniqueValue
	if len(rows) == 0 && notFound != nil {
		lookupErr = notFound
	}
	table, _ := r.Table(t)
	return nil, &LookupError{Table: table, Key: key, Found: len(rows), Err: lookupErr}
}

// RowByName looks up the row of a named server-resident type called name.
func (r *Registry) RowByName(ctx context.Context, t *Type, name string) (Row, error) {
	nb, ok := behaviourAs[NamedBehaviour](t)
	if !ok {
		return nil, fmt.Errorf("jobtype: %s rows have no name", t)
	}
	return r.UniqueRow(ctx, t, name, ErrNoValueWithName, Exact{Field: nb.NameField(t), Value: name})
}

// NameOf extracts the name from a row of a named server-resident type.
func (r *Registry) NameOf(t *Type, row Row) (string, error) {
	nb, ok := behaviourAs[NamedBehaviour](t)
	if !ok {
		return "", fmt.Errorf("jobtype: %s rows have no name", t)
	}
	return nb.ExtractName(t, row)
}

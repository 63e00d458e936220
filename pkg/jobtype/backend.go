package jobtype

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// Row is one record of a server table, as decoded JSON.
type Row = map[string]any

// Exact is an exact field-equality predicate. Field may be a dotted path
// into nested objects.
type Exact struct {
	Field string `json:"field" yaml:"field"`
	Value any    `json:"value" yaml:"value"`
}

// Filter is a conjunction of exact-match predicates.
type Filter []Exact

// With returns a copy of f extended with field == value.
func (f Filter) With(field string, value any) Filter {
	out := make(Filter, len(f), len(f)+1)
	copy(out, f)
	return append(out, Exact{Field: field, Value: value})
}

// Matches reports whether row satisfies every predicate. Numbers compare by
// value regardless of their Go representation.
func (f Filter) Matches(row Row) bool {
	for _, e := range f {
		v, ok := Lookup(row, e.Field)
		if !ok || !reflect.DeepEqual(Normalize(v), Normalize(e.Value)) {
			return false
		}
	}
	return true
}

func (f Filter) String() string {
	parts := make([]string, len(f))
	for i, e := range f {
		parts[i] = fmt.Sprintf("%s == %v", e.Field, e.Value)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Lookup resolves a dotted path inside row.
func Lookup(row Row, path string) (any, bool) {
	var cur any = row
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Backend performs list, retrieve and download against the remote store.
// Calls may block; timeouts and retries belong to the implementation.
type Backend interface {
	List(ctx context.Context, table string, filter Filter) ([]Row, error)
	Retrieve(ctx context.Context, table string, pk int64) (Row, error)
	Download(ctx context.Context, table string, pk int64) (io.ReadCloser, error)
}

// BackendFuncs adapts three plain functions to Backend. Nil functions fail.
type BackendFuncs struct {
	ListFunc     func(ctx context.Context, table string, filter Filter) ([]Row, error)
	RetrieveFunc func(ctx context.Context, table string, pk int64) (Row, error)
	DownloadFunc func(ctx context.Context, table string, pk int64) (io.ReadCloser, error)
}

func (b BackendFuncs) List(ctx context.Context, table string, filter Filter) ([]Row, error) {
	if b.ListFunc == nil {
		return nil, fmt.Errorf("jobtype: backend has no list function")
	}
	return b.ListFunc(ctx, table, filter)
}

func (b BackendFuncs) Retrieve(ctx context.Context, table string, pk int64) (Row, error) {
	if b.RetrieveFunc == nil {
		return nil, fmt.Errorf("jobtype: backend has no retrieve function")
	}
	return b.RetrieveFunc(ctx, table, pk)
}

func (b BackendFuncs) Download(ctx context.Context, table string, pk int64) (io.ReadCloser, error) {
	if b.DownloadFunc == nil {
		return nil, fmt.Errorf("jobtype: backend has no download function")
	}
	return b.DownloadFunc(ctx, table, pk)
}

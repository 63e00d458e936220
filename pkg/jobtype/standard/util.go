package standard

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/ChuLiYu/jobtypes/pkg/jobtype"
)

var (
	// JSON is any JSON value, passed through unchanged.
	JSON = jobtype.MustDefine(jobtype.ClassSpec{
		Name:      "JSON",
		Parent:    jobtype.JSONValue,
		Behaviour: jsonBehaviour{},
	})

	// Nothing has the single value null.
	Nothing = jobtype.MustDefine(jobtype.ClassSpec{
		Name:      "Nothing",
		Parent:    jobtype.Finite,
		Behaviour: nothingBehaviour{},
	})

	// BLOB<Hint> is raw binary data. Hint is a free-form description of the
	// content, such as a MIME type.
	BLOB = jobtype.MustDefine(jobtype.ClassSpec{
		Name:      "BLOB",
		Params:    []jobtype.Bound{jobtype.LiteralOf(jobtype.KindString)},
		Behaviour: BinaryOnly{},
	})
)

type jsonBehaviour struct{}

func (jsonBehaviour) Schema(context.Context, *jobtype.Registry, *jobtype.Type) (jobtype.Schema, error) {
	return jobtype.Schema{}, nil
}

func (jsonBehaviour) ParseJSON(_ context.Context, _ *jobtype.Registry, _ *jobtype.Type, v any) (any, error) {
	if _, err := json.Marshal(v); err != nil {
		return nil, jobtype.ShapeErrorf("not a JSON value: %v", err)
	}
	return v, nil
}

func (b jsonBehaviour) FormatJSON(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type, v any) (any, error) {
	return b.ParseJSON(ctx, reg, t, v)
}

type nothingBehaviour struct{}

func (nothingBehaviour) Schema(context.Context, *jobtype.Registry, *jobtype.Type) (jobtype.Schema, error) {
	return jobtype.TypeSchema("null"), nil
}

func (nothingBehaviour) ListAllValues(context.Context, *jobtype.Registry, *jobtype.Type) ([]any, error) {
	return []any{nil}, nil
}

func (nothingBehaviour) ParseJSON(_ context.Context, _ *jobtype.Registry, _ *jobtype.Type, v any) (any, error) {
	if v != nil {
		return nil, jobtype.ShapeErrorf("expected null, got %v", v)
	}
	return nil, nil
}

func (b nothingBehaviour) FormatJSON(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type, v any) (any, error) {
	return b.ParseJSON(ctx, reg, t, v)
}

// BinaryOnly is the behaviour of classes whose values are opaque bytes. The
// in-process value is a []byte; FormatBinary also accepts an io.Reader.
type BinaryOnly struct{}

func (BinaryOnly) ParseBinary(_ context.Context, _ *jobtype.Registry, _ *jobtype.Type, data []byte) (any, error) {
	return bytes.Clone(data), nil
}

func (BinaryOnly) FormatBinary(_ context.Context, _ *jobtype.Registry, _ *jobtype.Type, v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case io.Reader:
		data, err := io.ReadAll(x)
		if err != nil {
			return nil, jobtype.ShapeErrorf("read binary value: %v", err)
		}
		return data, nil
	default:
		return nil, jobtype.ShapeErrorf("expected bytes, got %T", v)
	}
}

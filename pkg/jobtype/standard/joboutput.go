package standard

import (
	"context"
	"fmt"

	"github.com/ChuLiYu/jobtypes/pkg/jobtype"
)

// JobOutputTable is the server table holding the outputs of finished jobs.
const JobOutputTable = "JobOutput"

// JobOutput<T> is the output of an earlier job, stored on the server as T's
// binary encoding. Its JSON form is the output's primary key.
var JobOutput = jobtype.MustDefine(jobtype.ClassSpec{
	Name:      "JobOutput",
	Parent:    jobtype.ServerResident,
	Params:    []jobtype.Bound{jobtype.OfClass(jobtype.Base)},
	Behaviour: jobOutputBehaviour{},
})

type jobOutputBehaviour struct{}

func (jobOutputBehaviour) Table(*jobtype.Type) string { return JobOutputTable }

func (jobOutputBehaviour) FilterFields(*jobtype.Type) []string { return []string{""} }

// KeySchema admits the primary key or the output's server row.
func (jobOutputBehaviour) KeySchema(*jobtype.Type) jobtype.Schema {
	return jobtype.Schema{"type": []any{"integer", "object"}}
}

// ExtendFilter restricts the table to outputs whose type is the canonical
// form of T.
func (jobOutputBehaviour) ExtendFilter(reg *jobtype.Registry, t *jobtype.Type, f jobtype.Filter) (jobtype.Filter, error) {
	name, err := reg.Format(innerType(t))
	if err != nil {
		return nil, err
	}
	return f.With("type", name), nil
}

func (jobOutputBehaviour) Schema(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type) (jobtype.Schema, error) {
	rows, err := reg.ListAllValues(ctx, t)
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
	return jobtype.Enum(pks...), nil
}

// ParseJSON accepts either the output's primary key or its server row, and
// decodes the downloaded content through T.
func (jobOutputBehaviour) ParseJSON(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type, v any) (any, error) {
	pk, ok := jobtype.AsInt64(v)
	if !ok {
		var err error
		if pk, err = PKOf(v); err != nil {
			return nil, jobtype.ShapeErrorf("expected the integer primary key of a job output, got %v", v)
		}
	}
	data, err := reg.Download(ctx, JobOutputTable, pk)
	if err != nil {
		return nil, err
	}
	return reg.ParseBinary(ctx, innerType(t), data)
}

func (jobOutputBehaviour) FormatJSON(_ context.Context, _ *jobtype.Registry, t *jobtype.Type, _ any) (any, error) {
	return nil, fmt.Errorf("%s: job outputs are created by the server: %w", t, jobtype.ErrUnsupportedEncoding)
}

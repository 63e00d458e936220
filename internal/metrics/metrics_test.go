package metrics

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/jobtypes/pkg/jobtype"
)

func TestNewCollector(t *testing.T) {
	// Reset Prometheus registry to avoid duplicate registration
	prometheus.DefaultRegisterer = prometheus.NewRegistry()

	collector := NewCollector()

	assert.NotNil(t, collector, "NewCollector should return a non-nil collector")
	assert.NotNil(t, collector.backendCalls, "backendCalls counter should be initialized")
	assert.NotNil(t, collector.backendLatency, "backendLatency histogram should be initialized")
	assert.NotNil(t, collector.typeOperations, "typeOperations counter should be initialized")
	assert.NotNil(t, collector.registeredClasses, "registeredClasses gauge should be initialized")
}

func TestNewCollectorFor_DuplicatePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollectorFor(reg)

	assert.Panics(t, func() { NewCollectorFor(reg) }, "registering twice should panic")
}

func TestObserveOperation(t *testing.T) {
	c := NewCollectorFor(prometheus.NewRegistry())

	c.ObserveOperation("parse_json", nil)
	c.ObserveOperation("parse_json", nil)
	c.ObserveOperation("parse_json", &jobtype.LookupError{Err: jobtype.ErrNoUniqueValue})
	c.ObserveOperation("schema", jobtype.ErrAbstractType)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.typeOperations.WithLabelValues("parse_json", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.typeOperations.WithLabelValues("parse_json", "lookup")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.typeOperations.WithLabelValues("schema", "unsupported-encoding")))
	assert.Equal(t, 3, testutil.CollectAndCount(c.typeOperations))
}

func TestSetRegisteredClasses(t *testing.T) {
	c := NewCollectorFor(prometheus.NewRegistry())

	c.SetRegisteredClasses(21)
	assert.Equal(t, 21.0, testutil.ToFloat64(c.registeredClasses))

	c.SetRegisteredClasses(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(c.registeredClasses))
}

func TestInstrumentBackend(t *testing.T) {
	c := NewCollectorFor(prometheus.NewRegistry())
	failure := errors.New("boom")

	backend := InstrumentBackend(jobtype.BackendFuncs{
		ListFunc: func(ctx context.Context, table string, filter jobtype.Filter) ([]jobtype.Row, error) {
			return []jobtype.Row{{"pk": 1}}, nil
		},
		RetrieveFunc: func(ctx context.Context, table string, pk int64) (jobtype.Row, error) {
			return nil, failure
		},
		DownloadFunc: func(ctx context.Context, table string, pk int64) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte("x"))), nil
		},
	}, c)
	ctx := context.Background()

	rows, err := backend.List(ctx, "domain", nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = backend.Retrieve(ctx, "domain", 1)
	assert.ErrorIs(t, err, failure, "errors pass through unchanged")

	rc, err := backend.Download(ctx, "job-outputs", 1)
	require.NoError(t, err)
	rc.Close()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.backendCalls.WithLabelValues("list", "domain", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.backendCalls.WithLabelValues("retrieve", "domain", "unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.backendCalls.WithLabelValues("download", "job-outputs", "ok")))
	assert.Equal(t, 3, testutil.CollectAndCount(c.backendLatency))
}

func TestCollectorAsObserver(t *testing.T) {
	c := NewCollectorFor(prometheus.NewRegistry())
	reg := jobtype.NewRegistry(jobtype.WithObserver(c))
	require.NoError(t, reg.Register(jobtype.Builtins(), InstrumentBackend(jobtype.BackendFuncs{}, c)))
	ctx := context.Background()

	_, err := reg.ParseJSON(ctx, jobtype.IntegerType, 1)
	require.NoError(t, err)
	_, err = reg.ParseJSON(ctx, jobtype.IntegerType, "one")
	require.Error(t, err)
	_, err = reg.QueryList(ctx, "domain", nil)
	require.Error(t, err, "the backend has no list function")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.typeOperations.WithLabelValues("parse_json", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.typeOperations.WithLabelValues("parse_json", "value-shape")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.typeOperations.WithLabelValues("query_list", "unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.backendCalls.WithLabelValues("list", "domain", "unknown")))
}

package fixture

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/jobtypes/pkg/jobtype"
)

const sample = `tables:
  domain:
    - {pk: 1, name: Image Classification}
    - {pk: 2, name: Object Detection}
  empty: []
downloads:
  job-outputs:
    7: {text: hello}
    8: {base64: aGk=}
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))
	return path
}

func readDownload(t *testing.T, s *Store, table string, pk int64) string {
	t.Helper()
	rc, err := s.Download(context.Background(), table, pk)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestLoad(t *testing.T) {
	s, err := Load(writeSample(t))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"domain": 2, "empty": 0}, s.Tables())
	assert.Equal(t, "hello", readDownload(t, s, "job-outputs", 7))
	assert.Equal(t, "hi", readDownload(t, s, "job-outputs", 8))
}

func TestLoad_MissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Empty(t, s.Tables())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "tables: ["},
		{"row without pk", "tables:\n  domain:\n    - {name: x}\n"},
		{"bad base64", "downloads:\n  t:\n    1: {base64: '!!'}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "fixture.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidFile))
		})
	}
}

func TestList(t *testing.T) {
	s, err := Load(writeSample(t))
	require.NoError(t, err)
	ctx := context.Background()

	rows, err := s.List(ctx, "domain", nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = s.List(ctx, "domain", jobtype.Filter{{Field: "name", Value: "Object Detection"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0]["pk"])

	rows[0]["name"] = "changed"
	again, err := s.List(ctx, "domain", jobtype.Filter{{Field: "pk", Value: int64(2)}})
	require.NoError(t, err)
	assert.Equal(t, "Object Detection", again[0]["name"], "returned rows are copies")

	rows, err = s.List(ctx, "empty", nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = s.List(ctx, "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestList_Cancelled(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.List(ctx, "domain", nil)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Download(ctx, "t", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetrieve(t *testing.T) {
	s, err := Load(writeSample(t))
	require.NoError(t, err)
	ctx := context.Background()

	row, err := s.Retrieve(ctx, "domain", 1)
	require.NoError(t, err)
	assert.Equal(t, "Image Classification", row["name"])

	_, err = s.Retrieve(ctx, "domain", 5)
	assert.ErrorIs(t, err, ErrRowNotFound)

	_, err = s.Download(ctx, "job-outputs", 99)
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestPut(t *testing.T) {
	s := New()
	assert.Error(t, s.Put("domain", map[string]any{"name": "x"}))
	require.NoError(t, s.Put("domain", map[string]any{"pk": 3, "name": "x"}))
	s.PutBlob("job-outputs", 3, []byte("data"))

	row, err := s.Retrieve(context.Background(), "domain", 3)
	require.NoError(t, err)
	assert.Equal(t, "x", row["name"])
	assert.Equal(t, "data", readDownload(t, s, "job-outputs", 3))
}

func TestSaveAndReload(t *testing.T) {
	s, err := Load(writeSample(t))
	require.NoError(t, err)
	s.PutBlob("job-outputs", 9, []byte{0, 1, 2})

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, s.Save(path))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file is renamed away")

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s.Tables(), reloaded.Tables())
	assert.Equal(t, "hello", readDownload(t, reloaded, "job-outputs", 7))
	assert.Equal(t, string([]byte{0, 1, 2}), readDownload(t, reloaded, "job-outputs", 9))
}

func TestStoreAsBackend(t *testing.T) {
	s, err := Load(writeSample(t))
	require.NoError(t, err)

	reg := jobtype.NewRegistry()
	require.NoError(t, reg.Register(jobtype.Builtins(), s))

	data, err := reg.Download(context.Background(), "job-outputs", 7)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

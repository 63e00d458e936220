// Package fixture implements jobtype.Backend over a static set of tables
// loaded from a YAML file. It stands in for the platform server in the CLI
// and in tests.
package fixture

// ============================================================================
// File layout
//
//   tables:
//     DataDomain:
//       - {pk: 1, name: Image Classification, description: ic}
//   downloads:
//     JobOutput:
//       7: {text: '["a", "b"]'}
//       8: {base64: UEsDBBQACAAIAA...}
//
// Rows are returned in file order. Every row must carry an integer pk.
// ============================================================================

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ChuLiYu/jobtypes/pkg/jobtype"
)

var (
	ErrUnknownTable = errors.New("fixture: unknown table")
	ErrRowNotFound  = errors.New("fixture: row not found")
	ErrInvalidFile  = errors.New("fixture: invalid fixture file")
)

// Blob is the content of a download, given either as text or base64.
type Blob struct {
	Text   string `yaml:"text,omitempty"`
	Base64 string `yaml:"base64,omitempty"`
}

// Bytes decodes the blob.
func (b Blob) Bytes() ([]byte, error) {
	if b.Base64 != "" {
		return base64.StdEncoding.DecodeString(b.Base64)
	}
	return []byte(b.Text), nil
}

// File is the YAML layout of a fixture.
type File struct {
	Tables    map[string][]map[string]any `yaml:"tables"`
	Downloads map[string]map[int64]Blob   `yaml:"downloads,omitempty"`
}

var _ jobtype.Backend = (*Store)(nil)

// Store is an in-memory Backend.
type Store struct {
	mu        sync.RWMutex
	tables    map[string][]jobtype.Row
	downloads map[string]map[int64][]byte
}

// New returns an empty store.
func New() *Store {
	return &Store{
		tables:    make(map[string][]jobtype.Row),
		downloads: make(map[string]map[int64][]byte),
	}
}

// Load reads a fixture file. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return FromFile(f)
}

// FromFile builds a store from a decoded fixture.
func FromFile(f File) (*Store, error) {
	s := New()
	for table, rows := range f.Tables {
		for i, row := range rows {
			if err := s.Put(table, row); err != nil {
				return nil, fmt.Errorf("%w: table %s row %d: %v", ErrInvalidFile, table, i, err)
			}
		}
		if len(rows) == 0 {
			s.tables[table] = nil
		}
	}
	for table, blobs := range f.Downloads {
		for pk, blob := range blobs {
			data, err := blob.Bytes()
			if err != nil {
				return nil, fmt.Errorf("%w: download %s/%d: %v", ErrInvalidFile, table, pk, err)
			}
			s.PutBlob(table, pk, data)
		}
	}
	return s, nil
}

// Save writes the store to path atomically through a temporary file.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	f := File{
		Tables:    make(map[string][]map[string]any, len(s.tables)),
		Downloads: make(map[string]map[int64]Blob, len(s.downloads)),
	}
	for table, rows := range s.tables {
		f.Tables[table] = append([]map[string]any(nil), rows...)
	}
	for table, blobs := range s.downloads {
		f.Downloads[table] = make(map[int64]Blob, len(blobs))
		for pk, data := range blobs {
			f.Downloads[table][pk] = Blob{Base64: base64.StdEncoding.EncodeToString(data)}
		}
	}
	s.mu.RUnlock()

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal fixture: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp fixture: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename fixture: %w", err)
	}
	return nil
}

// Put appends a row to table.
func (s *Store) Put(table string, row jobtype.Row) error {
	if _, ok := jobtype.AsInt64(row["pk"]); !ok {
		return fmt.Errorf("row has no integer pk")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], maps.Clone(row))
	return nil
}

// PutBlob sets the download content of table/pk.
func (s *Store) PutBlob(table string, pk int64, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.downloads[table] == nil {
		s.downloads[table] = make(map[int64][]byte)
	}
	s.downloads[table][pk] = bytes.Clone(data)
}

// Tables returns the number of rows per table.
func (s *Store) Tables() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int, len(s.tables))
	for table, rows := range s.tables {
		counts[table] = len(rows)
	}
	return counts
}

func (s *Store) List(ctx context.Context, table string, filter jobtype.Filter) ([]jobtype.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	var out []jobtype.Row
	for _, row := range rows {
		if filter.Matches(row) {
			out = append(out, maps.Clone(row))
		}
	}
	return out, nil
}

func (s *Store) Retrieve(ctx context.Context, table string, pk int64) (jobtype.Row, error) {
	rows, err := s.List(ctx, table, jobtype.Filter{{Field: "pk", Value: pk}})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s/%d", ErrRowNotFound, table, pk)
	}
	return rows[0], nil
}

func (s *Store) Download(ctx context.Context, table string, pk int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.downloads[table][pk]
	if !ok {
		return nil, fmt.Errorf("%w: download %s/%d", ErrRowNotFound, table, pk)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

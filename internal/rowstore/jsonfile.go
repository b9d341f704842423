package rowstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONFile is a Source over a single JSON snapshot file shaped
// {"<table>": [ {column: value, ...}, ... ]}. Writes rewrite the whole
// file through a temp-and-rename so a crash never leaves a torn snapshot.
type JSONFile struct {
	path string
	mu   sync.Mutex
}

// NewJSONFile builds a Source over the snapshot at path.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// ReadAll implements Source.
func (f *JSONFile) ReadAll(ctx context.Context, table string) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tables, err := f.load()
	if err != nil {
		return nil, err
	}
	return tables[table], nil
}

// WriteBatch implements Source.
func (f *JSONFile) WriteBatch(ctx context.Context, table string, rows []Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if table == "" {
		return errors.New("table name is required")
	}
	if len(rows) == 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tables, err := f.load()
	if err != nil {
		return err
	}
	tables[table] = append(tables[table], rows...)
	return f.store(tables)
}

func (f *JSONFile) load() (map[string][]Row, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string][]Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	tables := map[string][]Row{}
	if len(raw) == 0 {
		return tables, nil
	}
	if err := json.Unmarshal(raw, &tables); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return tables, nil
}

func (f *JSONFile) store(tables map[string][]Row) error {
	raw, err := json.MarshalIndent(tables, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".snapshot-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

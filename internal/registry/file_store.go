package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// FileStore persists the registry as a pretty-printed JSON document with a
// single top-level "workers" array.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed registry store.
func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("registry path is required")
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the registry file. When the file does not exist an empty
// registry is initialized and persisted immediately. A parse error or a
// "workers" field that is not an array is fatal to the caller.
func (s *FileStore) Load(ctx context.Context) (*Registry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			reg := New()
			if saveErr := s.Save(ctx, reg); saveErr != nil {
				return nil, fmt.Errorf("initialize registry %s: %w", s.path, saveErr)
			}
			return reg, nil
		}
		return nil, fmt.Errorf("read registry %s: %w", s.path, err)
	}

	var doc struct {
		Workers json.RawMessage `json:"workers"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", s.path, err)
	}
	if len(doc.Workers) == 0 {
		return nil, fmt.Errorf("registry %s: missing workers field", s.path)
	}

	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("registry %s: workers field must be an array: %w", s.path, err)
	}
	if reg.Workers == nil {
		return nil, fmt.Errorf("registry %s: workers field must be an array", s.path)
	}
	return &reg, nil
}

// Save serializes the full registry with stable 2-space indentation and
// overwrites the file.
func (s *FileStore) Save(_ context.Context, reg *Registry) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write registry %s: %w", s.path, err)
	}
	return nil
}

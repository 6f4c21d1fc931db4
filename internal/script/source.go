// Package script loads the deployable worker module source.
package script

import (
	"fmt"
	"os"
	"path/filepath"
)

// Source is the worker module payload. It is read once at startup and
// shared read-only across every deployment call in a run.
type Source struct {
	// FileName is the module file name used as the multipart part name and
	// as the metadata main_module reference.
	FileName string
	// Body is the raw module text.
	Body []byte
}

// Load reads the worker module at path. A missing file is a
// startup-precondition failure.
func Load(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("read worker script: %w", err)
	}
	return Source{
		FileName: filepath.Base(path),
		Body:     data,
	}, nil
}

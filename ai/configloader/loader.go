// Package configloader reads the optional YAML files that tune the hub.
package configloader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Loader resolves config files relative to a base directory.
type Loader struct {
	baseDir string
}

// NewLoader creates a loader rooted at baseDir.
func NewLoader(baseDir string) *Loader {
	return &Loader{baseDir: baseDir}
}

// Load reads path and unmarshals it into target. Unknown keys are rejected.
func (l *Loader) Load(path string, target any) error {
	data, err := l.ReadFileWithFallback(path)
	if err != nil {
		return fmt.Errorf("read file %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("unmarshal YAML %s: %w", path, err)
	}
	return nil
}

// ReadFileWithFallback reads path as given when absolute, otherwise relative
// to baseDir, then relative to the executable's directory.
func (l *Loader) ReadFileWithFallback(path string) ([]byte, error) {
	if filepath.IsAbs(path) {
		return os.ReadFile(path)
	}

	data, err := os.ReadFile(filepath.Join(l.baseDir, path))
	if err == nil {
		return data, nil
	}

	execPath, execErr := os.Executable()
	if execErr != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(filepath.Dir(execPath), l.baseDir, path))
}

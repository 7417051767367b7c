// Package persistence stores index structures as gob files.
package persistence

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const dirPerm = 0750

// File pairs a file name with the value stored in it.
type File struct {
	Name   string
	Object interface{}
}

// SaveGob gob-encodes object into filePath, creating missing directories.
// The data goes to a temporary file in the same directory that is synced and renamed over
// filePath, so readers see either the old or the new content.
func SaveGob(filePath string, object interface{}) (err error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(filePath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", filePath, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := gob.NewEncoder(tmp).Encode(object); err != nil {
		return fmt.Errorf("failed to gob encode %s: %w", filePath, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", filePath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filePath, err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", filePath, err)
	}
	return nil
}

// SaveAll saves every file into dir, stopping at the first failure.
func SaveAll(dir string, files ...File) error {
	for _, f := range files {
		if err := SaveGob(filepath.Join(dir, f.Name), f.Object); err != nil {
			return fmt.Errorf("failed to save %s: %w", f.Name, err)
		}
	}
	return nil
}

// LoadGob decodes the gob file at filePath into objectPointer.
// A missing file is reported as os.ErrNotExist itself so callers can start empty.
func LoadGob(filePath string, objectPointer interface{}) error {
	file, err := os.Open(filePath) // #nosec G304 -- paths are built from the data directory
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.ErrNotExist
		}
		return fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer func() { _ = file.Close() }()

	if err := gob.NewDecoder(file).Decode(objectPointer); err != nil {
		return fmt.Errorf("failed to gob decode %s: %w", filePath, err)
	}
	return nil
}

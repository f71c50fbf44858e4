package store

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// File keeps settings in a YAML map on disk and rewrites the file on every write.
type File struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// OpenFile loads the YAML file at path. A missing file starts empty.
func OpenFile(path string) (*File, error) {
	f := &File{
		path:   filepath.Clean(path),
		values: make(map[string]string),
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return nil, errors.Wrap(err, "failed to read settings file")
	}
	if err := yaml.Unmarshal(data, &f.values); err != nil {
		return nil, errors.Wrap(err, "failed to parse settings file")
	}
	if f.values == nil {
		f.values = make(map[string]string)
	}
	return f, nil
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Has reports whether key is present.
func (f *File) Has(key string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.values[key]
	return ok, nil
}

// GetString returns the value for key, or "" if absent.
func (f *File) GetString(key string) (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values[key], nil
}

// SetString stores value under key and flushes the file.
func (f *File) SetString(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.values[key]
	f.values[key] = value
	if err := f.flushLocked(); err != nil {
		if had {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

// Close is a no-op; every write is already on disk.
func (f *File) Close() error {
	return nil
}

func (f *File) flushLocked() error {
	data, err := yaml.Marshal(f.values)
	if err != nil {
		return errors.Wrap(err, "failed to marshal settings")
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create settings directory")
	}

	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "failed to write settings")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "failed to close temp file")
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "failed to replace settings file")
	}
	return nil
}

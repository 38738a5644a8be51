package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileAdapter stores all keys in a single JSON document on disk. Every
// Read loads the document fresh, so independent processes polling the
// same file observe each other's writes. Writes replace the document
// atomically via a temp file and rename, but no cross-process lock is
// taken: concurrent writers can lose updates, which is the documented
// behavior of the shared snapshot.
type FileAdapter struct {
	path string
}

func NewFileAdapter(path string) *FileAdapter {
	return &FileAdapter{
		path: path,
	}
}

func (a *FileAdapter) Read(ctx context.Context, key string) (string, error) {
	values, err := a.load()
	if err != nil {
		return "", err
	}
	value, ok := values[key]
	if !ok {
		return "", &ErrNotFound{}
	}
	return value, nil
}

func (a *FileAdapter) Write(ctx context.Context, key string, value string) error {
	values, err := a.load()
	if err != nil {
		return err
	}
	values[key] = value

	b, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal values: %v", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(a.path), ".roomsync-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %v", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %v", err)
	}
	if err := os.Rename(tmp.Name(), a.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %v", a.path, err)
	}

	return nil
}

func (a *FileAdapter) Close(ctx context.Context) error {
	return nil
}

func (a *FileAdapter) load() (map[string]string, error) {
	values := make(map[string]string)
	b, err := os.ReadFile(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, fmt.Errorf("failed to read %s: %v", a.path, err)
	}
	if err := json.Unmarshal(b, &values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %v", a.path, err)
	}
	return values, nil
}

package storage

import (
	"context"
	"sync"
)

// InMemoryAdapter is an Adapter backed by a process-local map. It is
// used in tests and in single-context deployments where nothing is
// shared with other processes.
type InMemoryAdapter struct {
	lock   sync.RWMutex
	values map[string]string
}

func NewInMemoryAdapter() *InMemoryAdapter {
	return &InMemoryAdapter{
		values: make(map[string]string),
	}
}

func (a *InMemoryAdapter) Read(ctx context.Context, key string) (string, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()
	value, ok := a.values[key]
	if !ok {
		return "", &ErrNotFound{}
	}
	return value, nil
}

func (a *InMemoryAdapter) Write(ctx context.Context, key string, value string) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.values[key] = value
	return nil
}

func (a *InMemoryAdapter) Close(ctx context.Context) error {
	return nil
}

package registry

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-memory Registry implementation for testing and
// single-process use. Thread-safe.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry // modelType + "/" + id
}

// NewMemory creates a new in-memory registry.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]Entry),
	}
}

func entryKey(modelType, id string) string {
	return modelType + "/" + id
}

// Register adds an entry.
func (m *Memory) Register(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := entryKey(e.ModelType, e.ID)
	if _, exists := m.entries[key]; exists {
		return ErrAlreadyRegistered
	}
	m.entries[key] = e
	return nil
}

// Lookup returns the entry for a model type and identity.
func (m *Memory) Lookup(_ context.Context, modelType, id string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[entryKey(modelType, id)]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return e, nil
}

// List returns all entries for a model type, newest first.
func (m *Memory) List(_ context.Context, modelType string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []Entry
	for _, e := range m.entries {
		if e.ModelType == modelType {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].FittedAt.After(entries[j].FittedAt)
	})
	return entries, nil
}

// Deregister removes an entry.
func (m *Memory) Deregister(_ context.Context, modelType, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, entryKey(modelType, id))
	return nil
}

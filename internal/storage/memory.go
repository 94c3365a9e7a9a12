package storage

import (
	"maps"
	"sync"
)

// Memory is an in-process KV. State lives only as long as the process.
// Read and write failures can be injected to exercise degraded paths.
type Memory struct {
	mu       sync.RWMutex
	data     map[string]string
	readErr  error
	writeErr error
	writes   int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// NewMemoryFrom creates an in-memory store seeded with data.
func NewMemoryFrom(data map[string]string) *Memory {
	m := NewMemory()
	maps.Copy(m.data, data)
	return m
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.readErr != nil {
		return "", false, newError("memory", "get", key, m.readErr)
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return newError("memory", "set", key, m.writeErr)
	}
	m.data[key] = value
	m.writes++
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return newError("memory", "delete", key, m.writeErr)
	}
	delete(m.data, key)
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// FailReads makes every subsequent Get fail with err. A nil err clears the failure.
func (m *Memory) FailReads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// FailWrites makes every subsequent Set and Delete fail with err.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Data returns a copy of the stored entries.
func (m *Memory) Data() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.data)
}

// Writes returns the number of successful Set calls.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

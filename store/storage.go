package store

import (
	"context"
	"sync"
)

// Persisted record keys. The unified account record supersedes the two legacy
// records, which are only consulted during migration.
const (
	accountKey       = "taptapsdk_account"
	legacyTokenKey   = "taptapsdk_accesstoken"
	legacyProfileKey = "taptapsdk_profile"
)

// Storage is a durable string-keyed record store. Load returns (nil, nil) for
// an absent key; absence is a valid steady state, never an error.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Memory is an in-process Storage, the default for tests and throwaway
// sessions.
type Memory struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemory creates an empty in-memory storage.
func NewMemory() *Memory {
	return &Memory{records: map[string][]byte{}}
}

// Load implements Storage.
func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	ret := make([]byte, len(data))
	copy(ret, data)
	return ret, nil
}

// Save implements Storage.
func (m *Memory) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	m.records[key] = stored
	return nil
}

// Delete implements Storage.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

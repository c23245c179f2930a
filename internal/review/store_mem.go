package review

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryStore struct {
	mu       sync.RWMutex
	states   map[string]State
	reviewer string
}

// NewInMemoryStore returns a StateStore backed by process memory. Used by
// tests and as a fallback when no database is configured.
func NewInMemoryStore() StateStore {
	return &memoryStore{states: map[string]State{}}
}

func (m *memoryStore) SaveState(_ context.Context, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st.LastModified = time.Now()
	m.states[StorageKey(st.FolderName, st.FileName)] = st
	return nil
}

func (m *memoryStore) LoadState(_ context.Context, folder, file string) (State, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[StorageKey(folder, file)]
	return st, ok, nil
}

func (m *memoryStore) SaveReviewerName(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviewer = name
	return nil
}

func (m *memoryStore) ReviewerName(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reviewer, nil
}

func (m *memoryStore) Cleanup(_ context.Context, maxAge time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-maxAge)
	deleted := 0
	for k, st := range m.states {
		if st.LastModified.Before(cutoff) {
			delete(m.states, k)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memoryStore) SizeInfo(_ context.Context) (SizeInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var info SizeInfo
	for k, st := range m.states {
		buf, _ := json.Marshal(st)
		info.Bytes += int64(len(k) + len(buf))
		info.Items++
	}
	return info, nil
}

package historystore

import (
	"context"
	"sync"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
)

// Memory keeps encoded histories in process memory.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

// Get implements port.FundHistoryStore.
func (m *Memory) Get(_ context.Context, userID string) ([]domain.FundHistoryEntry, error) {
	m.mu.RLock()
	raw, ok := m.items[Key(userID)]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decode(raw)
}

// Put implements port.FundHistoryStore.
func (m *Memory) Put(_ context.Context, userID string, entries []domain.FundHistoryEntry) error {
	raw, err := encode(entries)
	if err != nil {
		return err
	}
	m.PutRaw(userID, raw)
	return nil
}

// Delete implements port.FundHistoryStore.
func (m *Memory) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, Key(userID))
	return nil
}

// PutRaw stores raw bytes under userID's key, bypassing encoding.
func (m *Memory) PutRaw(userID string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[Key(userID)] = raw
}

// Ping implements port.Pinger. The in-memory store is always reachable.
func (m *Memory) Ping(context.Context) error { return nil }

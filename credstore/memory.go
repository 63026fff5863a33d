package credstore

import (
	"context"
	"sync"
)

type (
	Memory struct {
		mu     sync.RWMutex
		byID   map[int64]User
		byName map[string]int64
		lastID int64
	}
)

func NewMemory() *Memory {
	return &Memory{
		byID:   make(map[int64]User),
		byName: make(map[string]int64),
	}
}

func (m *Memory) FindByUsername(_ context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[username]
	if !ok {
		return nil, nil
	}
	u := m.byID[id]
	return &u, nil
}

func (m *Memory) FindByID(_ context.Context, id int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *Memory) InsertIfAbsent(_ context.Context, username, passwordHash string) (InsertOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[username]; ok {
		return AlreadyExists, nil
	}
	m.lastID++
	m.byID[m.lastID] = User{ID: m.lastID, Username: username, PasswordHash: passwordHash}
	m.byName[username] = m.lastID
	return Inserted, nil
}

// Len returns how many users are stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

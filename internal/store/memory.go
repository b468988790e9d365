package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/isometry/clerk-user-sync/internal/users"
)

// MemoryStore keeps users in process memory. State is lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]users.User
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]users.User)}
}

func (m *MemoryStore) UpsertUser(_ context.Context, id string, firstName, lastName, imageURL *string, emailAddresses []string, username *string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.ErrMissingID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = users.User{
		ID:             id,
		FirstName:      firstName,
		LastName:       lastName,
		ImageURL:       imageURL,
		EmailAddresses: slices.Clone(emailAddresses),
		Username:       username,
	}
	return nil
}

func (m *MemoryStore) DeleteUser(_ context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.ErrMissingID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, id string) (*users.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[strings.TrimSpace(id)]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// Len returns the number of stored users.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

func (m *MemoryStore) Close() error {
	return nil
}

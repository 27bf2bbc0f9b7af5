// Package session holds the authenticated identity and bearer token, persists them
// between invocations and tears the session down when the backend answers 401.
package session

import (
	"sync"

	"github.com/dentalscan/scanctl/internal/model"
)

// Keys under which credentials are persisted
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Credentials is what a successful login or registration leaves behind
type Credentials struct {
	Token string
	User  *model.User
}

// Empty reports whether no token is held
func (c Credentials) Empty() bool {
	return c.Token == ""
}

// Store persists credentials between runs
type Store interface {
	Load() (Credentials, error)
	Save(Credentials) error
	Clear() error
}

// MemoryStore keeps credentials in process memory
type MemoryStore struct {
	mu     sync.Mutex
	creds  Credentials
	clears int
}

// NewMemoryStore returns a store pre-filled with creds
func NewMemoryStore(creds Credentials) *MemoryStore {
	return &MemoryStore{creds: creds}
}

func (m *MemoryStore) Load() (Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds, nil
}

func (m *MemoryStore) Save(creds Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = Credentials{}
	m.clears++
	return nil
}

// Clears returns how many times Clear was called
func (m *MemoryStore) Clears() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears
}

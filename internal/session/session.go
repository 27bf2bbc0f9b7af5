package session

import (
	"sync"

	"github.com/dentalscan/scanctl/internal/errors"
	"github.com/dentalscan/scanctl/internal/logger"
	"github.com/dentalscan/scanctl/internal/model"
)

// Session is the process-wide authentication state. It is set by login and
// registration, read on every request and cleared by logout or a 401.
type Session struct {
	store Store
	log   logger.Logger

	mu        sync.Mutex
	token     string
	user      *model.User
	listeners map[uint64]func()
	nextID    uint64
}

// New restores a session from store
func New(store Store, log logger.Logger) (*Session, error) {
	if store == nil {
		return nil, errors.Newf("session store is required").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if log == nil {
		log = logger.NewDiscard()
	}

	creds, err := store.Load()
	if err != nil {
		return nil, err
	}

	return &Session{
		store:     store,
		log:       log,
		token:     creds.Token,
		user:      creds.User,
		listeners: make(map[uint64]func()),
	}, nil
}

// Token returns the current bearer token, or "" when unauthenticated
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns a copy of the current identity, or nil
func (s *Session) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Authenticated reports whether a token is held
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

// Begin persists a freshly issued token and identity and makes them current
func (s *Session) Begin(token string, user *model.User) error {
	if token == "" {
		return errors.ValidationError("empty token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(Credentials{Token: token, User: user}); err != nil {
		return err
	}
	s.token = token
	s.user = user
	s.log.Info("session started", logger.String("role", roleOf(user)))
	return nil
}

// UpdateUser replaces the stored identity while keeping the token
func (s *Session) UpdateUser(user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		return errors.Newf("not authenticated").Category(errors.CategoryState).Build()
	}
	if err := s.store.Save(Credentials{Token: s.token, User: user}); err != nil {
		return err
	}
	s.user = user
	return nil
}

// Logout clears the session. Unauthorized listeners are not notified.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.user = nil
	return s.store.Clear()
}

// OnUnauthorized registers fn to run once per teardown caused by a 401.
// The returned function unregisters it.
func (s *Session) OnUnauthorized(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// HandleUnauthorized tears the session down after a 401 for a request that carried
// sentToken. Only the first 401 for the current token has an effect; 401s for an
// older token or while already unauthenticated are ignored. Returns whether a
// teardown happened.
func (s *Session) HandleUnauthorized(sentToken string) bool {
	s.mu.Lock()
	if s.token == "" || sentToken != s.token {
		s.mu.Unlock()
		return false
	}

	s.token = ""
	s.user = nil
	if err := s.store.Clear(); err != nil {
		s.log.Error("failed to clear session store", logger.Error(err))
	}

	listeners := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	s.log.Warn("session expired, credentials cleared")
	for _, fn := range listeners {
		fn()
	}
	return true
}

func roleOf(u *model.User) string {
	if u == nil {
		return ""
	}
	return string(u.Role)
}

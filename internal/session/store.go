// Package session owns the credential list and the currently
// authenticated identity. Both are held in memory and written through to
// the key-value medium after every mutation; reads of absent or corrupt
// persisted state fall back to empty rather than failing.
package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicd/internal/platform/kv"
)

const (
	usersKey       = "users"
	currentUserKey = "currentUser"
)

// Store authenticates against the credential list and tracks the active
// session. The id generator and clock are injectable so tests can produce
// deterministic credentials.
type Store struct {
	mu     sync.RWMutex
	kv     kv.Store
	logger zerolog.Logger

	newID func() string
	now   func() time.Time

	creds   []Credential
	session *Session
	status  Status
}

// Option customizes a Store.
type Option func(*Store)

// WithIDGenerator overrides the credential id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithClock overrides the creation-timestamp clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore constructs a session store and loads the credential list from
// the medium. The store starts in StatusUnknown until Initialize runs.
func NewStore(store kv.Store, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		kv:     store,
		logger: logger,
		newID:  uuid.NewString,
		now:    time.Now,
		status: StatusUnknown,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.creds = s.loadCredentials()
	return s
}

func (s *Store) loadCredentials() []Credential {
	data, ok, err := s.kv.Load(usersKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("loading credentials, starting empty")
		return nil
	}
	if !ok {
		return nil
	}
	var creds []Credential
	if err := json.Unmarshal(data, &creds); err != nil {
		s.logger.Warn().Err(err).Msg("corrupt credential list, starting empty")
		return nil
	}
	return creds
}

// Initialize adopts a previously persisted session if one exists and is
// parseable; otherwise the store settles on unauthenticated. It always
// leaves the store in a determined state.
func (s *Store) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok, err := s.kv.Load(currentUserKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("reading persisted session")
		s.status = StatusUnauthenticated
		return
	}
	if !ok {
		s.status = StatusUnauthenticated
		return
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.logger.Warn().Err(err).Msg("corrupt persisted session, discarding")
		if err := s.kv.Delete(currentUserKey); err != nil {
			s.logger.Warn().Err(err).Msg("removing corrupt session record")
		}
		s.status = StatusUnauthenticated
		return
	}
	s.session = &sess
	s.status = StatusAuthenticated
}

// Status reports the current authentication state.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Current returns the active session, or false when logged out.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

// Login matches email and password exactly against the credential list.
// No match is a normal negative result: the existing session, if any, is
// left untouched.
func (s *Store) Login(email, password string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.creds {
		if c.Email == email && c.Password == password {
			sess := Session{ID: c.ID, Name: c.Name, Email: c.Email}
			s.session = &sess
			s.status = StatusAuthenticated
			s.persistSession(sess)
			return sess, true
		}
	}
	return Session{}, false
}

// Register appends a new credential unless the email is already taken.
// It does not log the new user in.
func (s *Store) Register(name, email, password, age string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.creds {
		if c.Email == email {
			return false
		}
	}
	s.creds = append(s.creds, Credential{
		ID:        s.newID(),
		Name:      name,
		Email:     email,
		Password:  password,
		Age:       age,
		CreatedAt: s.now().Format(time.RFC3339),
	})
	s.persistCredentials()
	return true
}

// Logout clears the active session. Calling it while logged out is fine.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	s.status = StatusUnauthenticated
	if err := s.kv.Delete(currentUserKey); err != nil {
		s.logger.Warn().Err(err).Msg("removing persisted session")
	}
}

// Credentials returns a copy of the credential list.
func (s *Store) Credentials() []Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Credential, len(s.creds))
	copy(out, s.creds)
	return out
}

func (s *Store) persistSession(sess Session) {
	data, err := json.Marshal(sess)
	if err != nil {
		s.logger.Error().Err(err).Msg("encoding session")
		return
	}
	if err := s.kv.Save(currentUserKey, data); err != nil {
		s.logger.Warn().Err(err).Msg("persisting session, in-memory state stands")
	}
}

func (s *Store) persistCredentials() {
	data, err := json.Marshal(s.creds)
	if err != nil {
		s.logger.Error().Err(err).Msg("encoding credentials")
		return
	}
	if err := s.kv.Save(usersKey, data); err != nil {
		s.logger.Warn().Err(err).Msg("persisting credentials, in-memory state stands")
	}
}

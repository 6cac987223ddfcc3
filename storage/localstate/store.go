// Package localstate persists the last-known session and profile to a local
// JSON file. It is a best-effort fallback consulted only when live session
// recovery is slow or unreachable; it is never authoritative.
package localstate

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/tolgakaban/lgstakip/core/profile"
	"github.com/tolgakaban/lgstakip/core/session"
)

type state struct {
	Session *session.Session `json:"session,omitempty"`
	Profile *profile.Profile `json:"profile,omitempty"`
	SavedAt time.Time        `json:"saved_at"`
}

type Store struct {
	mu   sync.Mutex
	path string
}

var _ session.LocalState = (*Store)(nil)

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) load() state {
	var st state
	b, err := ioutil.ReadFile(s.path)
	if err != nil {
		return st
	}
	if err = json.Unmarshal(b, &st); err != nil {
		return state{}
	}
	return st
}

// save writes atomically: temp file then rename.
func (s *Store) save(st state) error {
	st.SavedAt = time.Now().UTC()
	b, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "marshaling local state")
	}

	dir := filepath.Dir(s.path)
	tmp, err := ioutil.TempFile(dir, ".lgstakip-state-*")
	if err != nil {
		return errors.Wrap(err, "creating temp state file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(b); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing local state")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp state file")
	}
	if err = os.Chmod(tmp.Name(), 0600); err != nil {
		return errors.Wrap(err, "restricting state file mode")
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(err, "installing local state")
	}
	return nil
}

func (s *Store) SaveSession(sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load()
	st.Session = sess
	return s.save(st)
}

func (s *Store) LoadSession() (*session.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load()
	if st.Session == nil {
		return nil, false
	}
	return st.Session, true
}

func (s *Store) SaveProfile(prof profile.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load()
	st.Profile = &prof
	return s.save(st)
}

func (s *Store) LoadProfile() (profile.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load()
	if st.Profile == nil {
		return profile.Profile{}, false
	}
	return *st.Profile, true
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "clearing local state")
	}
	return nil
}

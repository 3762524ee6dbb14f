package siamatlas

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/siamatlas/siamatlas/pkg/models"
)

const sessionTTL = 24 * time.Hour

type session struct {
	admin     *models.Admin
	expiresAt time.Time
}

// sessionStore maps bearer tokens to signed-in admins. It lives on the App
// rather than at package level so independent App instances never share
// authentication state.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]session)}
}

// generateToken returns a 256-bit random token as hex.
func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// Create registers a new session and returns its token.
func (s *sessionStore) Create(admin *models.Admin) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.sessions[token] = session{admin: admin, expiresAt: time.Now().Add(sessionTTL)}
	s.mu.Unlock()
	return token, nil
}

// Get resolves a token to its admin, nil when unknown or expired.
func (s *sessionStore) Get(token string) *models.Admin {
	if token == "" {
		return nil
	}
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	if time.Now().After(sess.expiresAt) {
		s.Delete(token)
		return nil
	}
	return sess.admin
}

// Delete removes a session. Unknown tokens are ignored.
func (s *sessionStore) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Rotate atomically replaces an existing session's token. Returns "" when
// the old token is not active.
func (s *sessionStore) Rotate(oldToken string) (string, error) {
	admin := s.Get(oldToken)
	if admin == nil {
		return "", nil
	}
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	delete(s.sessions, oldToken)
	s.sessions[token] = session{admin: admin, expiresAt: time.Now().Add(sessionTTL)}
	s.mu.Unlock()
	return token, nil
}

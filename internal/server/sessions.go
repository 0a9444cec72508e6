package server

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var errNoSession = errors.New("no valid session")

// sessions maps bearer tokens to player ids. Tokens exist so a browser
// tab can prove which roster entry it logged in as without resending
// the raw player code on every call.
type sessions struct {
	mu      sync.RWMutex
	byToken map[string]string
}

func newSessions() *sessions {
	return &sessions{byToken: make(map[string]string)}
}

func (s *sessions) create(playerID string) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.byToken[token] = playerID
	s.mu.Unlock()
	return token
}

func (s *sessions) player(token string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byToken[token]
	return id, ok
}

func (s *sessions) reset() {
	s.mu.Lock()
	s.byToken = make(map[string]string)
	s.mu.Unlock()
}

func playerFromRequest(r *http.Request, s *sessions) (string, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return "", errNoSession
	}
	id, ok := s.player(token)
	if !ok {
		return "", errNoSession
	}
	return id, nil
}

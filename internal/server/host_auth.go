package server

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const hostCookieName = "host_session"

// hostAuth issues cookies for whoever knows the host passcode. Starting
// and resetting games is the one privileged surface in the system.
type hostAuth struct {
	passcodeHash []byte

	mu     sync.RWMutex
	tokens map[string]struct{}
}

func newHostAuth(passcodeHash []byte) *hostAuth {
	return &hostAuth{
		passcodeHash: passcodeHash,
		tokens:       make(map[string]struct{}),
	}
}

type HostLoginRequest struct {
	Passcode string `json:"passcode"`
}

func handleHostLogin(h *hostAuth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req HostLoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := bcrypt.CompareHashAndPassword(h.passcodeHash, []byte(req.Passcode)); err != nil {
			writeError(w, http.StatusUnauthorized, "wrong passcode")
			return
		}

		token := uuid.NewString()
		h.mu.Lock()
		h.tokens[token] = struct{}{}
		h.mu.Unlock()

		http.SetCookie(w, &http.Cookie{
			Name:     hostCookieName,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func (h *hostAuth) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(hostCookieName)
		if err != nil || cookie.Value == "" {
			writeError(w, http.StatusUnauthorized, "host authentication required")
			return
		}

		h.mu.RLock()
		_, ok := h.tokens[cookie.Value]
		h.mu.RUnlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "host authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

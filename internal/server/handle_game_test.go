package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/crewparty/shiptasks/internal/bus"
	"github.com/crewparty/shiptasks/internal/crew"
	"github.com/crewparty/shiptasks/internal/store"
)

const testPasscode = "open-sesame"

func testRouter(t *testing.T) *chi.Mux {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewMemoryStore()
	b := bus.NewMemoryBus()
	mgr := crew.NewManager(context.Background(), st, b, logger)
	gw := crew.NewGateway(mgr, st, logger)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPasscode), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	addRoutes(r, logger, Deps{
		Manager:          mgr,
		Gateway:          gw,
		Bus:              b,
		HostPasscodeHash: hash,
		PublicURL:        "http://ship.test",
	})
	return r
}

func hostCookie(t *testing.T, r *chi.Mux) *http.Cookie {
	t.Helper()

	body, _ := json.Marshal(HostLoginRequest{Passcode: testPasscode})
	req := httptest.NewRequest(http.MethodPost, "/api/host/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("host login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == hostCookieName {
			return c
		}
	}
	t.Fatal("host login: no session cookie set")
	return nil
}

func startGame(t *testing.T, r *chi.Mux, cookie *http.Cookie, playerCount int) StartResponse {
	t.Helper()

	body, _ := json.Marshal(StartRequest{PlayerCount: playerCount})
	req := httptest.NewRequest(http.MethodPost, "/api/game/start", bytes.NewReader(body))
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp StartResponse
	json.NewDecoder(w.Body).Decode(&resp)
	return resp
}

func loginPlayer(t *testing.T, r *chi.Mux, playerID string) LoginResponse {
	t.Helper()

	body, _ := json.Marshal(LoginRequest{PlayerID: playerID})
	req := httptest.NewRequest(http.MethodPost, "/api/game/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", playerID, w.Code, w.Body.String())
	}
	var resp LoginResponse
	json.NewDecoder(w.Body).Decode(&resp)
	return resp
}

func firstCrewmate(t *testing.T, roster []crew.Player) string {
	t.Helper()
	for _, p := range roster {
		if p.Role == crew.RoleCrewmate {
			return p.ID
		}
	}
	t.Fatal("no crewmate in roster")
	return ""
}

func gameState(t *testing.T, r *chi.Mux) GameStateResponse {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/game/state", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("state: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp GameStateResponse
	json.NewDecoder(w.Body).Decode(&resp)
	return resp
}

func TestStartRequiresHostAuth(t *testing.T) {
	r := testRouter(t)

	body, _ := json.Marshal(StartRequest{PlayerCount: 4})
	req := httptest.NewRequest(http.MethodPost, "/api/game/start", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestHostLoginWrongPasscode(t *testing.T) {
	r := testRouter(t)

	body, _ := json.Marshal(HostLoginRequest{Passcode: "guess"})
	req := httptest.NewRequest(http.MethodPost, "/api/host/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestStartAndLoginFlow(t *testing.T) {
	r := testRouter(t)
	cookie := hostCookie(t, r)

	started := startGame(t, r, cookie, 5)
	if len(started.Players) != 5 {
		t.Fatalf("expected 5 players, got %d", len(started.Players))
	}
	if started.ImpostorCount != 2 {
		t.Errorf("expected 2 impostors for 5 players, got %d", started.ImpostorCount)
	}

	login := loginPlayer(t, r, firstCrewmate(t, started.Players))
	if login.Token == "" {
		t.Fatal("expected a session token")
	}
	if login.Player.JoinedAt == nil {
		t.Error("expected joinedAt stamped on login")
	}

	state := gameState(t, r)
	if !state.Session.IsActive {
		t.Error("expected active session")
	}
	if len(state.Progress) != 5 {
		t.Errorf("expected progress for 5 players, got %d", len(state.Progress))
	}
	if state.Verdict != "no_decision" {
		t.Errorf("expected no_decision, got %q", state.Verdict)
	}
}

func TestLoginWrongCode(t *testing.T) {
	r := testRouter(t)

	// Inactive session: the ordinary wrong-code path, not a crash.
	body, _ := json.Marshal(LoginRequest{PlayerID: "P01"})
	req := httptest.NewRequest(http.MethodPost, "/api/game/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("inactive: expected 404, got %d", w.Code)
	}

	cookie := hostCookie(t, r)
	startGame(t, r, cookie, 4)

	body, _ = json.Marshal(LoginRequest{PlayerID: "P77"})
	req = httptest.NewRequest(http.MethodPost, "/api/game/login", bytes.NewReader(body))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown id: expected 404, got %d", w.Code)
	}
}

func TestCompleteTaskFlow(t *testing.T) {
	r := testRouter(t)
	cookie := hostCookie(t, r)
	started := startGame(t, r, cookie, 4)
	login := loginPlayer(t, r, firstCrewmate(t, started.Players))

	complete := func() CompleteResponse {
		req := httptest.NewRequest(http.MethodPost, "/api/tasks/fix-wiring/complete", nil)
		req.Header.Set("Authorization", "Bearer "+login.Token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("complete: expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp CompleteResponse
		json.NewDecoder(w.Body).Decode(&resp)
		return resp
	}

	complete()
	complete() // duplicate is absorbed, not an error

	state := gameState(t, r)
	for _, p := range state.Session.Players {
		if p.ID == login.Player.ID && p.TasksCompleted != 1 {
			t.Errorf("expected 1 completed task after duplicate report, got %d", p.TasksCompleted)
		}
	}
}

func TestCompleteTaskUnauthorized(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/fix-wiring/complete", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/tasks/fix-wiring/complete", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", w.Code)
	}
}

func TestCompleteUnknownTask(t *testing.T) {
	r := testRouter(t)
	cookie := hostCookie(t, r)
	started := startGame(t, r, cookie, 4)
	login := loginPlayer(t, r, firstCrewmate(t, started.Players))

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/polish-hull/complete", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown task, got %d", w.Code)
	}
}

func TestMeetingFlow(t *testing.T) {
	r := testRouter(t)
	cookie := hostCookie(t, r)
	started := startGame(t, r, cookie, 4)
	login := loginPlayer(t, r, firstCrewmate(t, started.Players))

	req := httptest.NewRequest(http.MethodPost, "/api/meeting/call", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("call: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var callResp MeetingResponse
	json.NewDecoder(w.Body).Decode(&callResp)
	if !callResp.Active {
		t.Error("expected meeting active")
	}
	if callResp.RemainingMS <= 0 {
		t.Error("expected positive countdown")
	}

	state := gameState(t, r)
	if state.Meeting.Caller != login.Player.ID {
		t.Errorf("expected caller %s, got %q", login.Player.ID, state.Meeting.Caller)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/meeting/end", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("end: expected 200, got %d", w.Code)
	}

	if gameState(t, r).Meeting.Active {
		t.Error("expected meeting ended")
	}
}

func TestMeetingAnonymousCaller(t *testing.T) {
	r := testRouter(t)
	cookie := hostCookie(t, r)
	startGame(t, r, cookie, 4)

	// No bearer token: a display-only screen pulling the alarm.
	req := httptest.NewRequest(http.MethodPost, "/api/meeting/call", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if caller := gameState(t, r).Meeting.Caller; caller != "" {
		t.Errorf("expected no caller, got %q", caller)
	}
}

func TestMeetingInactiveGame(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/meeting/call", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestResetFlow(t *testing.T) {
	r := testRouter(t)
	cookie := hostCookie(t, r)
	started := startGame(t, r, cookie, 4)
	login := loginPlayer(t, r, firstCrewmate(t, started.Players))

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/swipe-card/complete", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	req = httptest.NewRequest(http.MethodPost, "/api/game/reset", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d", w.Code)
	}

	state := gameState(t, r)
	if state.Session.IsActive {
		t.Error("expected inactive session after reset")
	}
	if len(state.Session.Players) != 0 {
		t.Errorf("expected empty roster, got %d", len(state.Session.Players))
	}

	// Old player tokens are gone too.
	req = httptest.NewRequest(http.MethodPost, "/api/tasks/swipe-card/complete", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 after reset, got %d", w.Code)
	}
}

func TestStartTooFewPlayers(t *testing.T) {
	r := testRouter(t)
	cookie := hostCookie(t, r)

	body, _ := json.Marshal(StartRequest{PlayerCount: 2})
	req := httptest.NewRequest(http.MethodPost, "/api/game/start", bytes.NewReader(body))
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestQRCode(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/game/qr", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if w.Body.Len() == 0 {
		t.Error("expected PNG bytes")
	}
}

func TestOpenAPISpec(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var spec map[string]any
	if err := json.NewDecoder(w.Body).Decode(&spec); err != nil {
		t.Fatalf("spec is not JSON: %v", err)
	}
	if _, ok := spec["paths"]; !ok {
		t.Error("expected a paths object")
	}
}

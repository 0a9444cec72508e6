package server

import (
	"errors"
	"net/http"

	"github.com/crewparty/shiptasks/internal/crew"
)

type StartRequest struct {
	PlayerCount int `json:"playerCount"`
}

type StartResponse struct {
	Players       []crew.Player `json:"players"`
	ImpostorCount int           `json:"impostorCount"`
}

func handleStart(mgr *crew.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		roster, err := crew.GenerateRoster(req.PlayerCount)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := mgr.StartGame(r.Context(), roster); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		// The host screen sees the full roster, roles included, so it
		// can hand out codes; player screens learn their own role at
		// login.
		writeJSON(w, http.StatusOK, StartResponse{
			Players:       roster,
			ImpostorCount: crew.ImpostorCount(req.PlayerCount),
		})
	}
}

type LoginRequest struct {
	PlayerID string `json:"playerId"`
}

type LoginResponse struct {
	Token  string      `json:"token"`
	Player crew.Player `json:"player"`
}

func handleLogin(mgr *crew.Manager, s *sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.PlayerID == "" {
			writeError(w, http.StatusBadRequest, "playerId is required")
			return
		}

		player, err := mgr.LoginPlayer(r.Context(), req.PlayerID)
		if errors.Is(err, crew.ErrNotFound) {
			writeError(w, http.StatusNotFound, "player not found or game not active")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			Token:  s.create(player.ID),
			Player: player,
		})
	}
}

type MeetingInfo struct {
	Active      bool   `json:"active"`
	Caller      string `json:"caller,omitempty"`
	RemainingMS int64  `json:"remainingMs"`
}

type GameStateResponse struct {
	Session  crew.SessionRecord    `json:"session"`
	Progress []crew.PlayerProgress `json:"progress"`
	Meeting  MeetingInfo           `json:"meeting"`
	Verdict  string                `json:"verdict"`
}

func handleGameState(mgr *crew.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := mgr.Snapshot()

		meeting := MeetingInfo{
			Active:      snap.MeetingActive,
			RemainingMS: mgr.MeetingRemaining().Milliseconds(),
		}
		if snap.MeetingCaller != nil {
			meeting.Caller = *snap.MeetingCaller
		}

		if snap.Players == nil {
			snap.Players = []crew.Player{}
		}

		writeJSON(w, http.StatusOK, GameStateResponse{
			Session:  snap,
			Progress: mgr.Progress(),
			Meeting:  meeting,
			Verdict:  crew.EvaluateWin(snap.Players).String(),
		})
	}
}

func handleReset(mgr *crew.Manager, gw *crew.Gateway, s *sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gw.Reset(r.Context())
		mgr.Reset(r.Context())
		s.reset()
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

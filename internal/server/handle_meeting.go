package server

import (
	"errors"
	"net/http"

	"github.com/crewparty/shiptasks/internal/crew"
)

type MeetingResponse struct {
	Active      bool  `json:"active"`
	RemainingMS int64 `json:"remainingMs"`
}

// handleCallMeeting starts an emergency meeting. Authentication is
// optional: a logged-in player is recorded as the caller, while an
// anonymous alarm (a wall-mounted display, say) carries no caller.
func handleCallMeeting(mgr *crew.Manager, s *sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, _ := playerFromRequest(r, s)

		err := mgr.CallMeeting(r.Context(), callerID)
		if errors.Is(err, crew.ErrNotActive) {
			writeError(w, http.StatusConflict, "game is not active")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, MeetingResponse{
			Active:      true,
			RemainingMS: mgr.MeetingRemaining().Milliseconds(),
		})
	}
}

func handleEndMeeting(mgr *crew.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := mgr.EndMeeting(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, MeetingResponse{Active: false})
	}
}

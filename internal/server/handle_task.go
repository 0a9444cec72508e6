package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crewparty/shiptasks/internal/crew"
)

type CompleteResponse struct {
	TaskID      string `json:"taskId"`
	CrewVictory bool   `json:"crewVictory"`
}

// handleCompleteTask is the contract every mini-game calls on success.
// Duplicate completions and store hiccups are absorbed by the gateway;
// the mini-game always gets a 200 once its identity and task check out.
func handleCompleteTask(gw *crew.Gateway, s *sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := playerFromRequest(r, s)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		taskID := chi.URLParam(r, "taskID")
		if !crew.KnownTask(taskID) {
			writeError(w, http.StatusNotFound, "unknown task")
			return
		}

		verdict := gw.Complete(r.Context(), playerID, taskID)

		writeJSON(w, http.StatusOK, CompleteResponse{
			TaskID:      taskID,
			CrewVictory: verdict == crew.CrewVictory,
		})
	}
}

package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "ShipTasks Coordinator API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Multiplayer coordination backend for the ship task game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/host/login
	postHostLogin, _ := r.NewOperationContext(http.MethodPost, "/api/host/login")
	postHostLogin.SetSummary("Host login")
	postHostLogin.SetDescription("Authenticate with the host passcode. Sets host_session cookie.")
	postHostLogin.AddReqStructure(HostLoginRequest{})
	postHostLogin.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postHostLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postHostLogin)

	// POST /api/game/start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/api/game/start")
	postStart.SetSummary("Start a game")
	postStart.SetDescription("Generates a roster and activates the session. Requires host_session cookie.")
	postStart.AddReqStructure(StartRequest{})
	postStart.AddRespStructure(StartResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postStart)

	// POST /api/game/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/game/login")
	postLogin.SetSummary("Player login")
	postLogin.SetDescription("Authenticate a player code into the active session. Returns a session token.")
	postLogin.AddReqStructure(LoginRequest{})
	postLogin.AddRespStructure(LoginResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postLogin)

	// GET /api/game/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/game/state")
	getState.SetSummary("Get session state")
	getState.SetDescription("Returns the full session snapshot, per-player progress and meeting countdown.")
	getState.AddRespStructure(GameStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getState)

	// POST /api/game/reset
	postReset, _ := r.NewOperationContext(http.MethodPost, "/api/game/reset")
	postReset.SetSummary("Reset the game")
	postReset.SetDescription("Returns to the inactive default and clears meeting and task records. Requires host_session cookie.")
	postReset.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postReset.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postReset)

	// POST /api/tasks/{taskID}/complete
	postComplete, _ := r.NewOperationContext(http.MethodPost, "/api/tasks/{taskID}/complete")
	postComplete.SetSummary("Report task completion")
	postComplete.SetDescription("Mini-games call this on success. Idempotent per player and task. Requires Bearer token.")
	postComplete.AddRespStructure(CompleteResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postComplete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postComplete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postComplete)

	// POST /api/meeting/call
	postCall, _ := r.NewOperationContext(http.MethodPost, "/api/meeting/call")
	postCall.SetSummary("Call an emergency meeting")
	postCall.SetDescription("Starts a meeting with a five-minute cap. Bearer token optional; a valid token records the caller.")
	postCall.AddRespStructure(MeetingResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postCall.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postCall)

	// POST /api/meeting/end
	postEnd, _ := r.NewOperationContext(http.MethodPost, "/api/meeting/end")
	postEnd.SetSummary("End the meeting")
	postEnd.SetDescription("Ends the meeting early. Ending an already-ended meeting is a no-op.")
	postEnd.AddRespStructure(MeetingResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postEnd)

	// GET /api/game/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/game/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of session updates, meeting alerts and meeting ends.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/game/ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/api/game/ws")
	getWS.SetSummary("WebSocket event stream")
	getWS.SetDescription("Upgrades to a WebSocket carrying the same events as the SSE stream.")
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	// GET /api/game/qr
	getQR, _ := r.NewOperationContext(http.MethodGet, "/api/game/qr")
	getQR.SetSummary("Join QR code")
	getQR.SetDescription("PNG QR code pointing at the public join URL.")
	getQR.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("image/png"))
	_ = r.AddOperation(getQR)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.Marshal(spec)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(data)
	}
}

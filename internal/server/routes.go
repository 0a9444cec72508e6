package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	sessions := newSessions()
	host := newHostAuth(deps.HostPasscodeHash)

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("ShipTasks Coordinator API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, deps.DB, deps.Redis))

	r.Post("/api/host/login", handleHostLogin(host))

	r.Route("/api/game", func(r chi.Router) {
		r.Get("/state", handleGameState(deps.Manager))
		r.Get("/events", handleEvents(deps.Bus))
		r.Get("/ws", handleWS(logger, deps.Bus))
		r.Get("/qr", handleQR(deps.PublicURL))
		r.Post("/login", handleLogin(deps.Manager, sessions))

		// Lifecycle transitions are host-only.
		r.Group(func(r chi.Router) {
			r.Use(host.middleware)
			r.Post("/start", handleStart(deps.Manager))
			r.Post("/reset", handleReset(deps.Manager, deps.Gateway, sessions))
		})
	})

	r.Route("/api/meeting", func(r chi.Router) {
		r.Post("/call", handleCallMeeting(deps.Manager, sessions))
		r.Post("/end", handleEndMeeting(deps.Manager))
	})

	r.Post("/api/tasks/{taskID}/complete", handleCompleteTask(deps.Gateway, sessions))
}

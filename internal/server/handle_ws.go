package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"nhooyr.io/websocket"

	"github.com/crewparty/shiptasks/internal/bus"
)

// handleWS streams the same bus events as the SSE endpoint over a
// WebSocket, for clients behind proxies that buffer event streams.
func handleWS(logger *slog.Logger, b bus.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ch := b.Subscribe()
		defer b.Unsubscribe(ch)

		// The stream is one-way, so hand the read side to the library.
		// CloseRead keeps processing control frames and cancels the
		// context when the peer goes away; without it an idle client's
		// close frame would sit unread and this goroutine would linger
		// until the next write failed.
		ctx := conn.CloseRead(r.Context())
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				data, err := json.Marshal(ev)
				if err != nil {
					logger.Error("encoding websocket event", "error", err)
					continue
				}
				if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
					logger.Debug("websocket write ended", "error", err)
					return
				}
			}
		}
	}
}

package server

import (
	"net/http"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// handleQR returns a PNG QR code of the join URL, for the host screen
// to put up so players can reach the login page on their own devices.
func handleQR(publicURL string) http.HandlerFunc {
	joinURL := strings.TrimRight(publicURL, "/") + "/login"

	return func(w http.ResponseWriter, r *http.Request) {
		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(joinURL, qrcode.Medium, qrSize)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "qr generation failed")
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

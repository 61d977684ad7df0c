package ws

import (
	"net/http"

	"github.com/Vovarama1992/lostfound/internal/models"
)

// FeedHandler serves GET /ws?kind=lost|found. The connection only receives;
// anything the browser sends is discarded.
func FeedHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := models.ParseKind(r.URL.Query().Get("kind"))
		if !ok {
			http.Error(w, "kind must be lost or found", http.StatusBadRequest)
			return
		}

		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the error response
			return
		}

		hub.Register(kind, conn)
		defer hub.Unregister(kind, conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

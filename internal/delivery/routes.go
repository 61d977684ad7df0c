package delivery

import (
	"net/http"

	"github.com/Vovarama1992/lostfound/internal/models"
	"github.com/go-chi/chi/v5"
)

// WebPrefix is where the browser client lives; / always answers with the banner.
const WebPrefix = "/app"

type Routes struct {
	Reports *ReportHandler
	Health  *HealthHandler
	Feed    http.HandlerFunc // websocket live feed
	Web     http.Handler     // browser client, mounted under WebPrefix
	Uploads http.Handler     // local image directory; nil unless IMAGE_PROVIDER=local
}

func RegisterRoutes(r chi.Router, rt Routes) {
	r.Get("/healthz", rt.Health.Live)
	r.Get("/readyz", rt.Health.Ready)

	for _, kind := range models.Kinds {
		// submit
		r.Post("/api/"+string(kind), rt.Reports.Create(kind))
		// gallery
		r.Get("/api/"+string(kind)+"-items", rt.Reports.List(kind))
	}

	if rt.Feed != nil {
		r.Get("/ws", rt.Feed)
	}

	if rt.Uploads != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", rt.Uploads))
	}

	r.Get("/", Banner)

	if rt.Web != nil {
		r.Get(WebPrefix, func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, WebPrefix+"/", http.StatusMovedPermanently)
		})
		r.Handle(WebPrefix+"/*", http.StripPrefix(WebPrefix, rt.Web))
	}
}

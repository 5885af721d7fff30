// internal/api/router.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"aquacare/internal/api/middleware"
	"aquacare/internal/api/respond"
)

// Handlers groups the request handlers mounted by the router.
type Handlers struct {
	ReminderDispatch http.HandlerFunc
	DeleteUser       http.HandlerFunc
	NotifyManagers   http.HandlerFunc
	DiseaseSearch    http.HandlerFunc
	SickFish         http.HandlerFunc
}

// NewRouter builds the HTTP routing tree with the shared middleware chain.
func NewRouter(h Handlers, log *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(log))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.RequestLogger(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/reminders/dispatch", h.ReminderDispatch)
		r.Delete("/users/{id}", h.DeleteUser)
		r.Post("/notifications/managers", h.NotifyManagers)
		r.Get("/diseases/search", h.DiseaseSearch)
		r.Post("/aquariums/{id}/diseases", h.SickFish)
	})

	return r
}

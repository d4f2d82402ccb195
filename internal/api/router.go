package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/profile", app.GetProfileHandler)
		r.Put("/profile", app.UpdateProfileHandler)

		r.Get("/sensing", app.SensingStatusHandler)
		r.Post("/sensing/start", app.StartSensingHandler)
		r.Post("/sensing/stop", app.StopSensingHandler)

		r.Get("/analysis/latest", app.LatestAnalysisHandler)
		r.Get("/analyses", app.ListAnalysesHandler)
		r.Post("/analyses", app.CreateAnalysisHandler)
		r.Get("/analyses/{id}", app.GetAnalysisHandler)

		r.Get("/events", app.EventsHandler)
	})

	r.Get("/images/*", app.ImageHandler)

	return r
}

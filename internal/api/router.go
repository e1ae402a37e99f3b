// Package api serves rotations, ports and route geometry over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ngmaloney/rotation-map/internal/app"
)

// Server holds the handlers' dependencies
type Server struct {
	app *app.App
}

// NewServer creates the API server
func NewServer(a *app.App) *Server {
	return &Server{app: a}
}

// Router returns the HTTP handler with every route mounted
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.Health)

		r.Route("/ports", func(r chi.Router) {
			r.Get("/", s.ListPorts)
			r.Post("/", s.CreatePort)
			r.Get("/check", s.CheckPorts)
		})

		r.Route("/services", func(r chi.Router) {
			r.Get("/", s.ListServices)
			r.Get("/{id}", s.GetService)
			r.Get("/{id}/geometry", s.ServiceGeometry)
		})

		r.Post("/routes", s.BuildRoute)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

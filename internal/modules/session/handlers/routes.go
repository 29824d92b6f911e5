package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers all session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.HandleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGetSession)
			r.Get("/assets", h.HandleAssets)
			r.Post("/metrics", h.HandleMetrics)
			r.Route("/frontier", func(r chi.Router) {
				r.Get("/", h.HandleFrontier)
				r.Get("/max-sharpe", h.HandleMaxSharpe)
				r.Get("/min-risk", h.HandleMinRisk)
				r.Get("/edge", h.HandleEdge)
				r.Get("/{index}", h.HandleResolve)
			})
		})
	})
}

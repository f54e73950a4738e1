package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/reflux/internal/httpserver/deps"
	"github.com/MrSnakeDoc/reflux/internal/httpserver/handlers"
)

func init() { Register(registerEntries, allowedCIDRs, hydrated) }

func registerEntries(r chi.Router, d deps.Deps) {
	r.Route("/api", func(api chi.Router) {
		api.Get("/entries", handlers.ListEntries(d))
		api.Post("/entries", handlers.CreateEntry(d))
		api.Get("/entries/{id}", handlers.GetEntry(d))
		api.Put("/entries/{id}", handlers.UpdateEntry(d))
		api.Delete("/entries/{id}", handlers.DeleteEntry(d))
		api.Get("/days", handlers.Days(d))
		api.Get("/symptoms", handlers.Symptoms(d))
		api.Post("/symptoms/reload", handlers.ReloadSymptoms(d))
	})
}

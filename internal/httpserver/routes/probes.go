package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/reflux/internal/httpserver/deps"
	"github.com/MrSnakeDoc/reflux/internal/httpserver/handlers"
)

func init() {
	Register(registerHealth)
	Register(registerOps, allowedCIDRs)
}

func registerHealth(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
}

func registerOps(r chi.Router, d deps.Deps) {
	r.Get("/readyz", handlers.Readyz(d))
	r.Get("/infra", handlers.Infra(d))
}

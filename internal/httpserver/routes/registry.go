package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/reflux/internal/httpserver/deps"
	"github.com/MrSnakeDoc/reflux/internal/httpserver/mw"
)

type (
	Registrar func(r chi.Router, d deps.Deps)
	// Middleware builds a per-route middleware once the deps are known.
	Middleware func(d deps.Deps) func(http.Handler) http.Handler
)

type entry struct {
	reg Registrar
	mws []Middleware
}

var registry []entry

// Register a registrar with optional per-route middlewares, applied in order.
func Register(reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{reg: reg, mws: mws})
}

// Called once from NewRouter.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		if len(e.mws) == 0 {
			e.reg(r, d)
			continue
		}
		built := make([]func(http.Handler) http.Handler, 0, len(e.mws))
		for _, m := range e.mws {
			built = append(built, m(d))
		}
		e.reg(r.With(built...), d)
	}
}

// allowedCIDRs restricts a route group to REFLUX_ALLOWED_CIDRS.
func allowedCIDRs(d deps.Deps) func(http.Handler) http.Handler {
	return mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
}

// hydrated answers 503 until the journal is loaded.
func hydrated(d deps.Deps) func(http.Handler) http.Handler {
	return mw.RequireReady(d.Journal)
}

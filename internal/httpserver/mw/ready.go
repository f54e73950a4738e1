package mw

import "net/http"

// Readiness is satisfied by the journal once it has been hydrated.
type Readiness interface {
	Ready() bool
}

// RequireReady answers 503 until r reports ready, so no request observes
// or mutates a journal that has not been loaded yet.
func RequireReady(r Readiness) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !r.Ready() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "journal is loading", http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/reflux/internal/catalog"
	"github.com/MrSnakeDoc/reflux/internal/httpserver/deps"
	"github.com/MrSnakeDoc/reflux/internal/logger"
)

type symptomsResponse struct {
	Symptoms []catalog.Symptom `json:"symptoms"`
}

func Symptoms(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, symptomsResponse{Symptoms: d.Catalog.Get().All()})
	}
}

// ReloadSymptoms asks the catalog reloader to re-read the symptoms file.
func ReloadSymptoms(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.CatalogReloadTrigger == nil {
			writeError(w, http.StatusNotFound, "no symptoms file configured")
			return
		}

		select {
		case d.CatalogReloadTrigger <- struct{}{}:
			d.Logger.Info("manual catalog reload triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "reload triggered"})
		default:
			d.Logger.Warn("catalog reload already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			writeError(w, http.StatusTooManyRequests, "reload already in progress")
		}
	}
}

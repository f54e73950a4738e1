package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/MrSnakeDoc/reflux/internal/domain"
	"github.com/MrSnakeDoc/reflux/internal/httpserver/deps"
)

type daysResponse struct {
	Days     []domain.DayGroup `json:"days"`
	Timezone string            `json:"timezone"`
	Locale   string            `json:"locale"`
}

// Days returns the journal grouped by calendar day. ?tz= and ?locale=
// override the configured timezone and month names.
func Days(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc := d.Location
		if tz := r.URL.Query().Get("tz"); tz != "" {
			l, err := time.LoadLocation(tz)
			if err != nil {
				writeError(w, http.StatusBadRequest, "unknown timezone")
				return
			}
			loc = l
		}
		if loc == nil {
			loc = time.Local
		}

		locale := d.Locale
		if q := strings.ToLower(r.URL.Query().Get("locale")); q != "" {
			if !domain.SupportedLocale(q) {
				writeError(w, http.StatusBadRequest, "unsupported locale")
				return
			}
			locale = q
		}

		writeJSON(w, http.StatusOK, daysResponse{
			Days:     domain.GroupByDay(d.Journal.Entries(), loc, locale),
			Timezone: loc.String(),
			Locale:   locale,
		})
	}
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/reflux/internal/domain"
	"github.com/MrSnakeDoc/reflux/internal/httpserver/deps"
	"github.com/MrSnakeDoc/reflux/internal/logger"
)

// entryRequest is the body of POST and PUT /api/entries. Meal is the
// not-yet-confirmed text of the meal input and is appended to Meals.
type entryRequest struct {
	Meals    []string `json:"meals"`
	Meal     string   `json:"meal"`
	Symptoms []string `json:"symptoms"`
	Severity float64  `json:"severity"`
	Notes    string   `json:"notes"`
}

func (req entryRequest) draft(d deps.Deps) domain.Draft {
	cat := d.Catalog.Get()
	symptoms := make([]string, 0, len(req.Symptoms))
	for _, s := range req.Symptoms {
		name, _ := cat.Canonical(s)
		symptoms = append(symptoms, name)
	}
	return domain.Draft{
		Meals:    req.Meals,
		Pending:  req.Meal,
		Symptoms: symptoms,
		Severity: req.Severity,
		Notes:    req.Notes,
	}
}

type entriesResponse struct {
	Entries domain.Entries `json:"entries"`
	Total   int            `json:"total"`
}

// ListEntries returns the journal newest first. ?limit=N truncates it.
func ListEntries(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := d.Journal.Entries()
		total := len(entries)

		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			if n < len(entries) {
				entries = entries[:n]
			}
		}

		writeJSON(w, http.StatusOK, entriesResponse{Entries: entries, Total: total})
	}
}

func GetEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := d.Journal.Get(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "entry not found")
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func CreateEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req entryRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		e, err := d.Journal.Create(req.draft(d))
		if err != nil {
			writeDomainError(w, d.Logger, err)
			return
		}

		d.Logger.Info("entry created",
			logger.String("id", e.ID),
			logger.Int("severity", e.Severity),
			logger.Int("symptoms", len(e.Symptoms)))
		w.Header().Set("Location", "/api/entries/"+e.ID)
		writeJSON(w, http.StatusCreated, e)
	}
}

// UpdateEntry replaces the content of an entry; its id and timestamp stay.
func UpdateEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req entryRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		existing, ok := d.Journal.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, "entry not found")
			return
		}
		updated, err := domain.ApplyDraft(existing, req.draft(d))
		if err != nil {
			writeDomainError(w, d.Logger, err)
			return
		}
		if err := d.Journal.UpdateEntry(updated); err != nil {
			writeDomainError(w, d.Logger, err)
			return
		}

		// a concurrent delete turns the update into a no-op
		stored, ok := d.Journal.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, "entry not found")
			return
		}
		d.Logger.Info("entry updated", logger.String("id", id))
		writeJSON(w, http.StatusOK, stored)
	}
}

func DeleteEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, ok := d.Journal.Get(id); !ok {
			writeError(w, http.StatusNotFound, "entry not found")
			return
		}
		if err := d.Journal.DeleteEntry(id); err != nil {
			writeDomainError(w, d.Logger, err)
			return
		}
		d.Logger.Info("entry deleted", logger.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

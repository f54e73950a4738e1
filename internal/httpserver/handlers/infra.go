package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/reflux/internal/httpserver/deps"
)

type componentStatus struct {
	OK          bool   `json:"ok"`
	Backend     string `json:"backend,omitempty"`
	Entries     *int   `json:"entries,omitempty"`
	Version     uint64 `json:"version,omitempty"`
	LastWrite   string `json:"last_write,omitempty"`
	Failures    int    `json:"failures,omitempty"`
	Pending     bool   `json:"pending,omitempty"`
	Impact      string `json:"impact,omitempty"`
	Error       string `json:"error,omitempty"`
	LatencyMsec int64  `json:"latency_ms,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the journal, its snapshot writer and the storage backend.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"journal": checkJournal(d),
			"writer":  checkWriter(d),
			"storage": checkStorage(r.Context(), d),
		}
		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

// determineMode is "critical" when the journal is not loaded, "degraded"
// when entries are only held in memory and "durable" otherwise.
func determineMode(components map[string]componentStatus) string {
	if !components["journal"].OK {
		return "critical"
	}
	if !components["storage"].OK || !components["writer"].OK {
		return "degraded"
	}
	return "durable"
}

func checkJournal(d deps.Deps) componentStatus {
	snap := d.Journal.Snapshot()
	n := len(snap.Entries)
	st := componentStatus{OK: d.Journal.Ready(), Entries: &n, Version: snap.Version}
	if !st.OK {
		st.Error = "not hydrated"
	}
	return st
}

func checkWriter(d deps.Deps) componentStatus {
	if d.Writer == nil {
		return componentStatus{OK: false, Error: "writer not initialized", Impact: "changes-not-persisted"}
	}
	ws := d.Writer.Status()
	st := componentStatus{
		OK:       ws.LastError == "",
		Version:  ws.LastVersion,
		Failures: ws.Failures,
		Pending:  ws.Pending,
	}
	if !ws.LastWrite.IsZero() {
		st.LastWrite = ws.LastWrite.Format(time.RFC3339)
	}
	if !st.OK {
		st.Error = ws.LastError
		st.Impact = "changes-not-persisted"
	}
	if d.Journal.Ready() && !d.Journal.Synced() {
		st.OK = false
		st.Error = "storage not read since startup, writes withheld"
		st.Impact = "changes-not-persisted"
	}
	return st
}

func checkStorage(parent context.Context, d deps.Deps) componentStatus {
	if d.Backend == nil {
		return componentStatus{OK: false, Error: "backend not initialized", Impact: "changes-not-persisted"}
	}

	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := d.Backend.Ping(ctx); err != nil {
		return componentStatus{
			OK:      false,
			Backend: d.Backend.Name(),
			Impact:  "changes-not-persisted",
			Error:   err.Error(),
		}
	}
	return componentStatus{
		OK:          true,
		Backend:     d.Backend.Name(),
		LatencyMsec: time.Since(start).Milliseconds(),
	}
}

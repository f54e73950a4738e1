package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/reflux/internal/catalog"
	"github.com/MrSnakeDoc/reflux/internal/config"
	"github.com/MrSnakeDoc/reflux/internal/domain"
	"github.com/MrSnakeDoc/reflux/internal/httpserver/deps"
	"github.com/MrSnakeDoc/reflux/internal/ids"
	"github.com/MrSnakeDoc/reflux/internal/journal"
	"github.com/MrSnakeDoc/reflux/internal/logger"
	"github.com/MrSnakeDoc/reflux/internal/store/memory"
)

type testEnv struct {
	handler http.Handler
	journal *journal.Store
	writer  *journal.Writer
	kv      *memory.Store
}

func newTestEnv(t *testing.T, hydrate bool, opts ...func(*deps.Deps)) *testEnv {
	t.Helper()

	kv := memory.New()
	w := journal.NewWriter(kv, journal.StorageKey, time.Second, logger.Nop())
	w.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, w.Stop(ctx))
	})

	j := journal.New(journal.Options{
		Persistence: journal.NewKVPersistence(kv, w, logger.Nop()),
		Logger:      logger.Nop(),
		IDs:         ids.NewSequence("e"),
		Now:         func() time.Time { return time.Date(2024, time.May, 29, 18, 30, 0, 0, time.UTC) },
	})
	if hydrate {
		j.Hydrate(context.Background())
	}

	cfg := &config.Config{RateLimitBurst: 1000, RateLimitPerMin: 1000}
	d := deps.Deps{
		Logger:    logger.Nop(),
		StartTime: time.Now(),
		Version:   "test",
		TimeNow:   time.Now,
		Journal:   j,
		Writer:    w,
		Backend:   kv,
		Catalog:   catalog.NewHolder(catalog.Builtin()),
		Location:  time.UTC,
		Locale:    "en",
	}
	for _, opt := range opts {
		opt(&d)
	}
	return &testEnv{handler: NewRouter(cfg, logger.Nop(), d), journal: j, writer: w, kv: kv}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "127.0.0.1:4242"
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestEntriesCRUD(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodPost, "/api/entries", map[string]any{
		"meals":    []string{"Coffee", " "},
		"meal":     "Pizza",
		"symptoms": []string{"heartburn", "Hiccups"},
		"severity": 3.6,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.Entry](t, rec)
	require.Equal(t, "e-1", created.ID)
	require.Equal(t, "Coffee, Pizza", created.Meal)
	require.Equal(t, []string{"Heartburn", "Hiccups"}, created.Symptoms)
	require.Equal(t, 4, created.Severity)
	require.Equal(t, "/api/entries/e-1", rec.Header().Get("Location"))

	rec = env.do(t, http.MethodPost, "/api/entries", map[string]any{"meal": "Tea", "severity": 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/entries", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[listResponse](t, rec)
	require.Equal(t, 2, list.Total)
	require.Equal(t, "e-2", list.Entries[0].ID, "newest first")

	rec = env.do(t, http.MethodPut, "/api/entries/e-1", map[string]any{"meals": []string{"Soup"}, "severity": 2, "notes": "better"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[domain.Entry](t, rec)
	require.Equal(t, created.Timestamp, updated.Timestamp)
	require.Equal(t, "Soup", updated.Meal)
	require.Empty(t, updated.Symptoms)

	rec = env.do(t, http.MethodDelete, "/api/entries/e-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/entries/e-1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, env.writer.Flush(context.Background()))
	raw, ok, err := env.kv.Get(context.Background(), journal.StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	persisted, err := journal.Decode(raw)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	require.Equal(t, "e-2", persisted[0].ID)
}

type listResponse = struct {
	Entries domain.Entries `json:"entries"`
	Total   int            `json:"total"`
}

func TestEntriesErrors(t *testing.T) {
	env := newTestEnv(t, true)
	require.NoError(t, env.journal.AddEntry(domain.Entry{ID: "x", Timestamp: 1, Meal: "Tea", Severity: 1}))

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		raw    string
		want   int
	}{
		{name: "no meal", method: http.MethodPost, path: "/api/entries", body: map[string]any{"severity": 3}, want: http.StatusUnprocessableEntity},
		{name: "unknown field", method: http.MethodPost, path: "/api/entries", body: map[string]any{"meal": "Tea", "mood": "ok"}, want: http.StatusBadRequest},
		{name: "malformed body", method: http.MethodPost, path: "/api/entries", raw: "{", want: http.StatusBadRequest},
		{name: "update missing", method: http.MethodPut, path: "/api/entries/nope", body: map[string]any{"meal": "Tea"}, want: http.StatusNotFound},
		{name: "update without meal", method: http.MethodPut, path: "/api/entries/x", body: map[string]any{"meal": " "}, want: http.StatusUnprocessableEntity},
		{name: "delete missing", method: http.MethodDelete, path: "/api/entries/nope", want: http.StatusNotFound},
		{name: "bad limit", method: http.MethodGet, path: "/api/entries?limit=-1", want: http.StatusBadRequest},
		{name: "bad tz", method: http.MethodGet, path: "/api/days?tz=Nowhere/Land", want: http.StatusBadRequest},
		{name: "bad locale", method: http.MethodGet, path: "/api/days?locale=xx", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec *httptest.ResponseRecorder
			if tt.raw != "" {
				req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.raw))
				rec = httptest.NewRecorder()
				env.handler.ServeHTTP(rec, req)
			} else {
				rec = env.do(t, tt.method, tt.path, tt.body)
			}
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	require.Equal(t, 1, env.journal.Len(), "failed requests must not change the journal")
}

func TestListLimit(t *testing.T) {
	env := newTestEnv(t, true)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, env.journal.AddEntry(domain.Entry{ID: id, Timestamp: 1, Meal: "m", Severity: 1}))
	}

	rec := env.do(t, http.MethodGet, "/api/entries?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[listResponse](t, rec)
	require.Equal(t, 3, list.Total)
	require.Len(t, list.Entries, 2)
	require.Equal(t, "c", list.Entries[0].ID)
}

func TestDays(t *testing.T) {
	env := newTestEnv(t, true)
	day1 := time.Date(2024, time.May, 28, 9, 0, 0, 0, time.UTC).UnixMilli()
	day2 := time.Date(2024, time.May, 29, 9, 0, 0, 0, time.UTC).UnixMilli()
	require.NoError(t, env.journal.AddEntry(domain.Entry{ID: "C", Timestamp: day2, Meal: "m", Severity: 1}))
	require.NoError(t, env.journal.AddEntry(domain.Entry{ID: "B", Timestamp: day1, Meal: "m", Severity: 1}))
	require.NoError(t, env.journal.AddEntry(domain.Entry{ID: "A", Timestamp: day2 + 1000, Meal: "m", Severity: 1}))

	rec := env.do(t, http.MethodGet, "/api/days?locale=tr", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	days := decode[daysBody](t, rec)
	require.Equal(t, "tr", days.Locale)
	require.Len(t, days.Days, 2)
	require.Equal(t, "29 Mayıs 2024", days.Days[0].Title)
	require.Equal(t, []string{"A", "C"}, []string{days.Days[0].Entries[0].ID, days.Days[0].Entries[1].ID})
	require.Equal(t, "28 Mayıs 2024", days.Days[1].Title)
}

type daysBody struct {
	Days []struct {
		Title   string         `json:"title"`
		Entries domain.Entries `json:"data"`
	} `json:"days"`
	Timezone string `json:"timezone"`
	Locale   string `json:"locale"`
}

func TestSymptoms(t *testing.T) {
	env := newTestEnv(t, true)
	rec := env.do(t, http.MethodGet, "/api/symptoms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Symptoms []catalog.Symptom `json:"symptoms"`
	}](t, rec)
	require.Len(t, body.Symptoms, 6)
}

func TestReadinessBeforeAndAfterHydrate(t *testing.T) {
	env := newTestEnv(t, false)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", nil).Code)
	require.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodGet, "/readyz", nil).Code)
	require.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodGet, "/api/entries", nil).Code)

	env.journal.Hydrate(context.Background())

	rec := env.do(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/entries", nil).Code)
}

func TestInfra(t *testing.T) {
	env := newTestEnv(t, true)
	require.NoError(t, env.journal.AddEntry(domain.Entry{ID: "a", Timestamp: 1, Meal: "m", Severity: 1}))
	require.NoError(t, env.writer.Flush(context.Background()))

	rec := env.do(t, http.MethodGet, "/infra", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Mode       string `json:"mode"`
		Components map[string]struct {
			OK      bool   `json:"ok"`
			Backend string `json:"backend"`
			Entries *int   `json:"entries"`
			Version uint64 `json:"version"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "durable", body.Mode)
	require.Equal(t, "memory", body.Components["storage"].Backend)
	require.Equal(t, 1, *body.Components["journal"].Entries)
	require.Equal(t, body.Components["journal"].Version, body.Components["writer"].Version)

	require.NoError(t, env.kv.Close())
	rec = env.do(t, http.MethodGet, "/infra", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "degraded", body.Mode)
}

func TestInfraReportsUnreadStorage(t *testing.T) {
	env := newTestEnv(t, false)
	env.kv.GetHook = func(string) error { return errors.New("read timeout") }
	env.journal.Hydrate(context.Background())

	rec := env.do(t, http.MethodGet, "/infra", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Mode       string `json:"mode"`
		Components map[string]struct {
			OK    bool   `json:"ok"`
			Error string `json:"error"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "degraded", body.Mode)
	require.False(t, body.Components["writer"].OK)
	require.Contains(t, body.Components["writer"].Error, "writes withheld")
}

func TestAllowedCIDRsGate(t *testing.T) {
	env := newTestEnv(t, true, func(d *deps.Deps) { d.AllowedCIDRS = []string{"10.0.0.0/8"} })

	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", nil).Code)
	for _, path := range []string{"/readyz", "/infra", "/api/entries", "/api/days"} {
		require.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, path, nil).Code, path)
	}
}

func TestReloadSymptomsWithoutFile(t *testing.T) {
	env := newTestEnv(t, true)
	require.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/symptoms/reload", nil).Code)
}

func TestReloadSymptomsTrigger(t *testing.T) {
	trigger := make(chan struct{}, 1)
	env := newTestEnv(t, true, func(d *deps.Deps) { d.CatalogReloadTrigger = trigger })

	require.Equal(t, http.StatusAccepted, env.do(t, http.MethodPost, "/api/symptoms/reload", nil).Code)
	require.Equal(t, http.StatusTooManyRequests, env.do(t, http.MethodPost, "/api/symptoms/reload", nil).Code)
	<-trigger
	require.Equal(t, http.StatusAccepted, env.do(t, http.MethodPost, "/api/symptoms/reload", nil).Code)
}

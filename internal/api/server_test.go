package api_test

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echotab/echotab-server/internal/api"
	"github.com/echotab/echotab-server/internal/browser"
	"github.com/echotab/echotab-server/internal/domain"
	"github.com/echotab/echotab-server/internal/kv"
	"github.com/echotab/echotab-server/internal/ratelimit"
	"github.com/echotab/echotab-server/internal/sse"
	"github.com/echotab/echotab-server/internal/store"
	"github.com/echotab/echotab-server/internal/transfer"
	"github.com/echotab/echotab-server/internal/validation"
	"github.com/echotab/echotab-server/internal/view"
)

type fixture struct {
	server  *api.Server
	store   *store.Store
	browser *browser.Fake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	fake := browser.NewFake()
	st := store.New(store.Options{
		Adapter:  kv.NewMemory(),
		Browser:  fake,
		Logger:   log,
		Debounce: time.Millisecond,
	})
	require.NoError(t, st.Init(context.Background()))
	t.Cleanup(st.Close)

	views := view.New(st, log)
	t.Cleanup(views.Close)

	v := validation.New()
	importer := transfer.NewImporter(st, v, log)
	exporter := transfer.NewExporter(st, time.Now)

	manager := sse.NewManager(log)
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)
	t.Cleanup(cancel)

	srv := api.NewServer(api.Deps{
		Store:      st,
		Views:      views,
		Importer:   importer,
		Exporter:   exporter,
		SSEHandler: sse.NewHandler(manager, log),
		SSEManager: manager,
		Validator:  v,
		Logger:     log,
	})

	return &fixture{server: srv, store: st, browser: fake}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var envelope struct {
		Data    T      `json:"data"`
		Error   string `json:"error"`
		Success bool   `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeData[map[string]string](t, rec)
	assert.Equal(t, "healthy", status["status"])
}

func TestTagLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/tags", map[string]string{"name": "reading", "color": "#ff0000"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeData[domain.Tag](t, rec)
	assert.Equal(t, "reading", created.Name)
	assert.Equal(t, 1, created.ID)

	// Duplicate names conflict regardless of case.
	rec = f.do(t, http.MethodPost, "/api/v1/tags", map[string]string{"name": "Reading"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/tags/%d", created.ID), map[string]string{"name": "research"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeData[domain.Tag](t, rec)
	assert.Equal(t, "research", updated.Name)
	assert.Equal(t, "#ff0000", updated.Color)

	rec = f.do(t, http.MethodGet, "/api/v1/tags", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tags := decodeData[[]domain.Tag](t, rec)
	require.Len(t, tags, 2) // sentinel + created
	assert.Equal(t, domain.UntaggedID, tags[0].ID)
}

func TestDeleteTagsRepairsBookmarks(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/tags", map[string]string{"name": "reading"})
	require.Equal(t, http.StatusCreated, rec.Code)
	tag := decodeData[domain.Tag](t, rec)

	rec = f.do(t, http.MethodPost, "/api/v1/bookmarks", map[string]any{
		"tabs": []map[string]any{{"title": "Go", "url": "https://go.dev", "tagIds": []int{tag.ID}}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/v1/tags", map[string]any{"ids": []int{tag.ID}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/bookmarks", nil)
	saved := decodeData[[]domain.SavedTab](t, rec)
	require.Len(t, saved, 1)
	assert.Equal(t, []int{domain.UntaggedID}, saved[0].TagIDs)
}

func TestSaveTabsDeduplicatesByCanonicalURL(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/bookmarks", map[string]any{
		"tabs": []map[string]any{{"title": "Go", "url": "https://go.dev/?utm_source=x"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/bookmarks", map[string]any{
		"tabs": []map[string]any{{"title": "Go", "url": "https://go.dev/#section"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/bookmarks", nil)
	saved := decodeData[[]domain.SavedTab](t, rec)
	assert.Len(t, saved, 1)

	rec = f.do(t, http.MethodGet, "/api/v1/bookmarks/lookup?url=https://go.dev/?fbclid=y", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSaveTabsRejectsEmptyBatch(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/bookmarks", map[string]any{"tabs": []map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCloseTabsReportsResult(t *testing.T) {
	f := newFixture(t)

	a := f.browser.Open(domain.ActiveTab{Title: "a", URL: "https://a.test", WindowID: 1})
	b := f.browser.Open(domain.ActiveTab{Title: "b", URL: "https://b.test", WindowID: 1})
	rec := f.do(t, http.MethodPost, "/api/v1/tabs/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/tabs/close", map[string]any{"ids": []int{a, b}})
	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeData[store.CloseResult](t, rec)
	assert.ElementsMatch(t, []int{a, b}, result.Closed)
	assert.Empty(t, result.Failed)

	rec = f.do(t, http.MethodPost, "/api/v1/tabs/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reopened := decodeData[[]domain.ActiveTab](t, rec)
	assert.Len(t, reopened, 2)
}

func TestSettingsPatchAndReset(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPatch, "/api/v1/settings", map[string]string{"theme": "dark"})
	require.Equal(t, http.StatusOK, rec.Code)
	settings := decodeData[domain.Settings](t, rec)
	assert.Equal(t, domain.ThemeDark, settings.Theme)
	assert.Equal(t, domain.ClipboardURLs, settings.ClipboardFormat)

	rec = f.do(t, http.MethodPatch, "/api/v1/settings", map[string]string{"theme": "neon"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/settings/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	settings = decodeData[domain.Settings](t, rec)
	assert.Equal(t, domain.ThemeSystem, settings.Theme)
}

func TestSelectionRoundTrip(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/selection/saved/toggle", map[string]string{"id": "tab-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	toggled := decodeData[map[string]bool](t, rec)
	assert.True(t, toggled["selected"])

	rec = f.do(t, http.MethodGet, "/api/v1/selection/saved", nil)
	sel := decodeData[map[string]any](t, rec)
	assert.EqualValues(t, 1, sel["count"])

	rec = f.do(t, http.MethodGet, "/api/v1/selection/bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/v1/selection", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/selection/saved", nil)
	sel = decodeData[map[string]any](t, rec)
	assert.EqualValues(t, 0, sel["count"])
}

func TestUnknownListIs404(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/lists/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportImportRoundTrip(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/bookmarks", map[string]any{
		"tabs": []map[string]any{{"title": "Go", "url": "https://go.dev"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/transfer/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	exported := rec.Body.Bytes()

	other := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfer/import", bytes.NewReader(exported))
	importRec := httptest.NewRecorder()
	other.server.ServeHTTP(importRec, req)
	require.Equal(t, http.StatusOK, importRec.Code)
	result := decodeData[transfer.ImportResult](t, importRec)
	assert.Equal(t, 1, result.TabsCreated)

	rec = other.do(t, http.MethodGet, "/api/v1/bookmarks", nil)
	saved := decodeData[[]domain.SavedTab](t, rec)
	assert.Len(t, saved, 1)
}

func TestRateLimitReturns429(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := ratelimit.New(0.01, 1)
	defer limiter.Stop()

	var hits int
	handler := api.RateLimitMiddleware(limiter, log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tags", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 1, hits)
}

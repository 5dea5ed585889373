package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolbeat/internal/carousel"
	"schoolbeat/internal/dates"
	"schoolbeat/internal/metrics"
	"schoolbeat/internal/models"
	"schoolbeat/internal/store"
)

func fixedNow() time.Time {
	return time.Date(2026, 1, 9, 0, 0, 0, 0, dates.Location())
}

func newTestServer(t *testing.T) (*Server, store.Collection[models.Announcement], store.Collection[models.GeneralEvent], *metrics.Status) {
	t.Helper()
	announcements := store.NewMemory[models.Announcement]()
	events := store.NewMemory[models.GeneralEvent]()
	fixtures := store.NewMemory[models.AthleticsFixture]()
	status := metrics.NewStatus()
	return New(announcements, events, fixtures, status, fixedNow), announcements, events, status
}

func TestCarouselEndpoint(t *testing.T) {
	srv, announcements, events, _ := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, announcements.Insert(ctx, models.Announcement{
		StartDate: "01/05/2026", EndDate: "01/10/2026", Title: "Spirit Week",
	}))
	require.NoError(t, events.Insert(ctx, models.GeneralEvent{
		Date: "01/12/2026", Name: "Picture Day",
	}))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/carousel", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Entries []carousel.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Entries, 2)
	assert.Equal(t, carousel.KindAnnouncement, body.Entries[0].Kind)
	assert.Equal(t, "Spirit Week", body.Entries[0].Announcement.Title)
	assert.Equal(t, carousel.KindEvent, body.Entries[1].Kind)
}

func TestCarouselEmptyStoreReturnsEmptyList(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/carousel", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Entries []carousel.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Entries)
}

type failingCollection struct {
	store.Collection[models.GeneralEvent]
}

func (failingCollection) ListAll(context.Context) ([]models.GeneralEvent, error) {
	return nil, errors.New("connection refused")
}

func TestCarouselDegradesWhenSourceFails(t *testing.T) {
	announcements := store.NewMemory[models.Announcement]()
	fixtures := store.NewMemory[models.AthleticsFixture]()
	srv := New(announcements, failingCollection{}, fixtures, metrics.NewStatus(), fixedNow)

	ctx := context.Background()
	require.NoError(t, announcements.Insert(ctx, models.Announcement{
		StartDate: "01/05/2026", EndDate: "01/10/2026", Title: "Still Here",
	}))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/carousel", nil))

	require.Equal(t, http.StatusOK, rec.Code, "a broken source must not take the feed down")
	var body struct {
		Entries []carousel.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "Still Here", body.Entries[0].Announcement.Title)
}

func TestIngestStatusEndpoint(t *testing.T) {
	srv, _, _, status := newTestServer(t)
	status.RecordRun("athletics", 12, 3, 1, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ingest/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Sources map[string]metrics.SourceStatus `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body.Sources, "athletics")
	assert.Equal(t, 12, body.Sources["athletics"].Inserted)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _, status := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	status.RecordRun("calendar", 0, 0, 0, errors.New("upstream down"))

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

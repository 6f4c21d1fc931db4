package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgefleet/fleetctl/internal/registry"
	"github.com/edgefleet/fleetctl/internal/registry/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewServer(store, prometheus.NewRegistry(), nil), store
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestListWorkersRedactsKeys(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer(t)
	seeded := registry.New()
	seeded.Upsert(registry.Record{
		Name:      "worker-1",
		APIKey:    strings.Repeat("a", 32),
		PublicURL: "https://worker-1.workers.dev/",
	})
	store.Seed(seeded)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/workers", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Workers []struct {
			Name      string `json:"name"`
			KeyHint   string `json:"keyHint"`
			PublicURL string `json:"publicUrl"`
		} `json:"workers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Workers, 1)
	assert.Equal(t, "worker-1", payload.Workers[0].Name)
	assert.Equal(t, "aaaaaaaa...", payload.Workers[0].KeyHint)
	assert.Equal(t, "https://worker-1.workers.dev/", payload.Workers[0].PublicURL)
	assert.NotContains(t, rec.Body.String(), strings.Repeat("a", 32))
}

func TestListWorkersEmptyRegistry(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/workers", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"workers": []}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	metrics := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "fleet_test_total", Help: "test"})
	require.NoError(t, metrics.Register(counter))
	counter.Inc()

	srv := NewServer(memory.NewStore(), metrics, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fleet_test_total 1")
}

func TestRedactKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "****", RedactKey(""))
	assert.Equal(t, "****", RedactKey("short"))
	assert.Equal(t, "deadbeef...", RedactKey("deadbeefdeadbeef"))
}

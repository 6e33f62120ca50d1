// AngelaMos | 2026
// server_test.go

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminar/core-service/internal/config"
)

type drainRecorder struct {
	shutdown bool
}

func (d *drainRecorder) SetShutdown(v bool) { d.shutdown = v }

func newTestServer(d Drainer) *Server {
	return New(Config{
		ServerConfig: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ShutdownTimeout: time.Second,
		},
		HealthHandler: d,
	})
}

func TestRecovererTurnsPanicInto500(t *testing.T) {
	s := newTestServer(nil)
	s.Router().Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	s := newTestServer(nil)
	s.Router().Get("/known", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/known", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestShutdownMarksHealthFirst(t *testing.T) {
	d := &drainRecorder{}
	s := newTestServer(d)

	require.NoError(t, s.Shutdown(context.Background(), 0))
	assert.True(t, d.shutdown)
}

// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

const (
	StatusOK           = "ok"
	StatusDegraded     = "degraded"
	StatusNotReady     = "not_ready"
	StatusShuttingDown = "shutting_down"

	checkTimeout = 5 * time.Second
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency is one backing service probed by readiness.
type Dependency struct {
	Name   string
	Pinger Pinger
}

type Handler struct {
	deps     []Dependency
	version  string
	started  time.Time
	ready    atomic.Bool
	shutdown atomic.Bool
}

func NewHandler(version string, deps ...Dependency) *Handler {
	h := &Handler{
		deps:    deps,
		version: version,
		started: time.Now(),
	}
	h.ready.Store(true)
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	if h.shutdown.Load() {
		h.writeStatus(w, http.StatusServiceUnavailable, h.status(StatusShuttingDown))
		return
	}

	h.writeStatus(w, http.StatusOK, h.status(StatusOK))
}

// Readiness probes every dependency concurrently. Any failure is a 503.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.shutdown.Load() {
		h.writeStatus(w, http.StatusServiceUnavailable, h.status(StatusShuttingDown))
		return
	}

	if !h.ready.Load() {
		h.writeStatus(w, http.StatusServiceUnavailable, h.status(StatusNotReady))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	checks := h.runChecks(ctx)

	resp := ReadinessResponse{
		StatusResponse: h.status(StatusOK),
		Checks:         checks,
	}
	code := http.StatusOK
	for _, c := range checks {
		if !c.Healthy {
			resp.Status = StatusDegraded
			code = http.StatusServiceUnavailable
			break
		}
	}

	h.writeStatus(w, code, resp)
}

func (h *Handler) runChecks(ctx context.Context) []Check {
	checks := make([]Check, len(h.deps))

	var g errgroup.Group
	for i, dep := range h.deps {
		g.Go(func() error {
			checks[i] = probe(ctx, dep)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // probes never return errors

	return checks
}

func probe(ctx context.Context, dep Dependency) Check {
	check := Check{Name: dep.Name, Healthy: true}

	if dep.Pinger == nil {
		check.Healthy = false
		check.Message = dep.Name + " checker not configured"
		return check
	}

	start := time.Now()
	err := dep.Pinger.Ping(ctx)
	check.Latency = time.Since(start).String()

	if err != nil {
		check.Healthy = false
		check.Message = "ping failed"
	}

	return check
}

func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// SetShutdown flips both probes to shutting_down for the drain window.
func (h *Handler) SetShutdown(shutdown bool) {
	h.shutdown.Store(shutdown)
}

func (h *Handler) status(status string) StatusResponse {
	return StatusResponse{
		Status:  status,
		Version: h.version,
		Uptime:  time.Since(h.started).Truncate(time.Second).String(),
	}
}

func (h *Handler) writeStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response
	_ = json.NewEncoder(w).Encode(data)
}

type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Uptime  string `json:"uptime"`
}

type ReadinessResponse struct {
	StatusResponse
	Checks []Check `json:"checks"`
}

type Check struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// Package control implements the optional HTTP control plane operators can
// run alongside an engine: a health probe, the Metric middleware's load
// scalar as JSON, and the diag package's routing-topology DOT export. It
// is ambient operational tooling, never imported by the core engine.
package control

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/corvidlabs/corvid/pkg/corebackend"
	"github.com/corvidlabs/corvid/pkg/diag"
	"github.com/corvidlabs/corvid/pkg/handler"
	"github.com/corvidlabs/corvid/pkg/middleware"
)

// Server exposes /healthz, /metrics, and /diag/routes.dot while an engine
// runs.
type Server struct {
	httpServer *http.Server
}

// Deps bundles what the control plane needs to introspect a running engine.
type Deps[C corebackend.Client, S any] struct {
	Metric    *middleware.Metric
	Router    *handler.Router[C, S]
	Deferrals diag.Deferrals
}

// New builds a Server bound to addr, wiring handlers from deps.
func New[C corebackend.Client, S any](addr string, deps Deps[C, S]) *Server {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", handleHealthz)
	r.Get("/metrics", handleMetrics(deps.Metric))
	r.Get("/diag/routes.dot", handleRoutesDOT(deps.Router))
	if deps.Deferrals != nil {
		r.Get("/diag/deferrals.dot", handleDeferralsDOT(deps.Deferrals))
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// ListenAndServe blocks serving until an error occurs or ctx is cancelled,
// in which case it shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleMetrics(m *middleware.Metric) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int64{
			"successes": m.Successes(),
			"failures":  m.Failures(),
			"load":      m.Load(),
		})
	}
}

func handleRoutesDOT[C corebackend.Client, S any](router *handler.Router[C, S]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(diag.RoutesDOT(router)))
	}
}

func handleDeferralsDOT(d diag.Deferrals) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(diag.DeferralsDOT(d)))
	}
}

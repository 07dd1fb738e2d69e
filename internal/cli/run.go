package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/corvidlabs/corvid/internal/httputil"
	"github.com/corvidlabs/corvid/pkg/backendhttp"
	"github.com/corvidlabs/corvid/pkg/corebackend"
	"github.com/corvidlabs/corvid/pkg/coredataset"
	"github.com/corvidlabs/corvid/pkg/corerequest"
	"github.com/corvidlabs/corvid/pkg/coresignal"
	"github.com/corvidlabs/corvid/pkg/engine"
	"github.com/corvidlabs/corvid/pkg/extract"
	"github.com/corvidlabs/corvid/pkg/handler"
	"github.com/corvidlabs/corvid/pkg/middleware"
	"github.com/corvidlabs/corvid/pkg/tag"
)

// Result is what the built-in example handler extracts from each resolved
// page: just enough to prove the engine ran and to give the Sink
// extractor something concrete to push.
type Result struct {
	URI        string
	BodyLength int
}

// buildRouter constructs the example router the CLI drives: the fallback
// route fetches a page's body as text and records a Result, matching
// spec.md's extractor-ordering example (two non-consuming extractors, URI
// and the Sink, followed by the consuming Text extractor, last).
func buildRouter(logger *log.Logger) *handler.Router[corebackend.Client, struct{}] {
	r := handler.NewRouter[corebackend.Client, struct{}]()
	r.Fallback(handler.Handler3(
		extract.URI[corebackend.Client, struct{}](),
		extract.Sink[Result, corebackend.Client, struct{}](),
		extract.Text[corebackend.Client, struct{}](),
		func(uri string, sink extract.DataSink[Result], text string) coresignal.Signal {
			_ = sink.Send(context.Background(), Result{URI: uri, BodyLength: len(text)})
			logger.Infof("fetched %s (%d bytes)", uri, len(text))
			return coresignal.NewContinue()
		},
	))
	return r
}

// buildEngine wires a fresh engine from cfg: an HTTP backend (trace-wrapped
// for structured logging), the example router with the metric and trace
// layers applied, the config's seed URLs, and a dedicated Result dataset.
func buildEngine(cfg Config, logger *log.Logger) (*engine.Engine[struct{}], *middleware.Metric, *handler.Router[corebackend.Client, struct{}]) {
	backendOpts := []backendhttp.Option{backendhttp.WithRetry(cfg.RetryCount, cfg.RetryDelayDuration())}
	if cfg.CacheDir != "" {
		if cache, err := httputil.NewCache(cfg.CacheDir, cfg.CacheTTLDuration()); err != nil {
			logger.Warnf("response cache disabled: %v", err)
		} else {
			backendOpts = append(backendOpts, backendhttp.WithCache(cache))
		}
	}
	backend := middleware.NewTraceBackend(
		backendhttp.New(backendOpts...),
		logger,
	)

	m := middleware.NewMetric()
	router := buildRouter(logger)
	router.Layer(middleware.MetricLayer[corebackend.Client, struct{}](m))
	router.Layer(middleware.TraceWorker[corebackend.Client, struct{}](logger))

	e := engine.New[struct{}](backend, router, struct{}{})
	e.SetConcurrency(cfg.Concurrency)
	for _, seed := range cfg.Seeds {
		e.WithInitialRequest(corerequest.NewGet(seed).WithTag(tag.Fallback))
	}
	coredataset.Set[Result](e.Registry(), coredataset.NewInMemoryDataset[Result](coredataset.FIFO))
	return e, m, router
}

// runDashboard drives the bubbletea live dashboard until the engine's Run
// call completes, returning its error.
func runDashboard(runID string, m *middleware.Metric, e *engine.Engine[struct{}], runCtx context.Context) error {
	done := make(chan error, 1)
	go func() {
		_, err := e.Run(runCtx)
		done <- err
	}()

	finished := false
	var runErr error
	model := newDashboardModel(runID, m, func() bool {
		if finished {
			return true
		}
		select {
		case runErr = <-done:
			finished = true
			return true
		default:
			return false
		}
	})

	if _, err := tea.NewProgram(model).Run(); err != nil {
		return err
	}
	if !finished {
		runErr = <-done
	}
	return runErr
}

// correlationID mints a short per-run id for log correlation.
func correlationID() string {
	return uuid.New().String()[:8]
}

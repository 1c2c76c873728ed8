package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"refdata/internal/platform/metrics"
	"refdata/internal/platform/middleware"
	"refdata/internal/reference"
	"refdata/pkg/platform/httputil"
)

const healthTimeout = 2 * time.Second

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Config carries what the router mounts. Only Registry is required.
type Config struct {
	Registry    *reference.Registry
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	// WriteGuard protects create, update and delete routes. Nil leaves them open.
	WriteGuard func(http.Handler) http.Handler
	Checks     map[string]Check
}

// NewRouter wires the reference routes behind the shared middleware chain
// together with /healthz and /metrics.
func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	guard := cfg.WriteGuard
	if guard == nil {
		guard = func(next http.Handler) http.Handler { return next }
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(cfg.Metrics))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Get("/healthz", health(cfg.Checks))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireJSON)
		cfg.Registry.Mount(r, guard)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusNotFound, map[string]string{
			"error":             "not_found",
			"error_description": "route not found",
		})
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// health runs every check concurrently and answers 503 if any fails.
func health(checks map[string]Check) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		var mu sync.Mutex
		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
		var g errgroup.Group
		for _, name := range names {
			check := checks[name]
			g.Go(func() error {
				state := "ok"
				if err := check(ctx); err != nil {
					state = err.Error()
				}
				mu.Lock()
				resp.Checks[name] = state
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		status := http.StatusOK
		for _, state := range resp.Checks {
			if state != "ok" {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, status, resp)
	}
}

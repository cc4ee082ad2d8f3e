package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ledonna/billing/internal/metrics"
)

// RouterConfig carries the wired endpoints and cross-cutting dependencies.
type RouterConfig struct {
	Checkout *CheckoutHandler
	Webhook  *WebhookHandler

	// Healthcheck reports readiness of downstream dependencies.
	Healthcheck func(ctx context.Context) error

	// Gatherer backs the Prometheus scrape endpoint. Optional.
	Gatherer prometheus.Gatherer

	Log *slog.Logger
}

// NewRouter assembles the service's HTTP surface.
func NewRouter(cfg RouterConfig) chi.Router {
	if cfg.Checkout == nil {
		panic("handler: CheckoutHandler is required")
	}
	if cfg.Webhook == nil {
		panic("handler: WebhookHandler is required")
	}
	log := cfg.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(corsHeaders)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Post("/checkout/sessions", cfg.Checkout.ServeHTTP)
		v1.Post("/webhooks/stripe", cfg.Webhook.ServeHTTP)
	})

	r.Get("/health", healthHandler(cfg.Healthcheck))

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(cfg.Gatherer))
	}

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				respondError(w, http.StatusServiceUnavailable, "unavailable")
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(started),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

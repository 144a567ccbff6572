package httpserver

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/yndnr/tickstate-go/internal/server/httpserver/handler"
	"github.com/yndnr/tickstate-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Logs     handler.PartitionStore
	Forker   handler.Forker
	Verifier handler.Verifier

	// Metrics serves /metrics and records request metrics. Optional.
	Metrics *metric.Registry

	Logger *slog.Logger

	// AdminToken, when set, is required as a bearer token on /admin routes.
	AdminToken string

	// ForkRate and ForkBurst limit POST .../fork. A zero ForkRate disables the limit.
	ForkRate  float64
	ForkBurst int
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	h := handler.New(cfg.Logs, cfg.Forker, cfg.Verifier, cfg.Logger)

	base := []Middleware{Recover(cfg.Logger), RequestID()}
	if cfg.Metrics != nil {
		base = append(base, Metrics(cfg.Metrics))
	}
	base = append(base, AccessLog(cfg.Logger))

	admin := append(append([]Middleware{}, base...), AdminAuth(cfg.AdminToken))
	fork := admin
	if cfg.ForkRate > 0 {
		burst := max(cfg.ForkBurst, 1)
		fork = append(append([]Middleware{}, admin...), RateLimit(rate.NewLimiter(rate.Limit(cfg.ForkRate), burst)))
	}

	mux := http.NewServeMux()

	mux.Handle("GET /health", Chain(h, Recover(cfg.Logger), RequestID()))
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	adminHandler := Chain(h, admin...)
	mux.Handle("GET /admin/v1/partitions", adminHandler)
	mux.Handle("GET /admin/v1/partitions/{id}/log", adminHandler)
	mux.Handle("POST /admin/v1/partitions/{id}/unload", adminHandler)
	mux.Handle("POST /admin/v1/credentials/verify", adminHandler)
	mux.Handle("POST /admin/v1/partitions/{id}/fork", Chain(h, fork...))

	return mux
}

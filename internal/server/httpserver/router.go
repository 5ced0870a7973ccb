package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/scuttlekit-go/internal/server/httpserver/handler"
	"github.com/yndnr/scuttlekit-go/internal/telemetry/logger"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Handler serves the HTTP endpoints.
	Handler *handler.Handler

	// WebSocket serves upgrades on /ws and on / when the request asks for one.
	WebSocket http.Handler

	// Metrics serves /metrics. Nil leaves the endpoint unmounted.
	Metrics http.Handler

	// RequestMetrics records per-request counters. May be nil.
	RequestMetrics RequestMetrics

	// Logger for request logging.
	Logger logger.Logger

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = allow all).
	CORSAllowedOrigins []string

	// AllowNetworks is the IP/CIDR allowlist for every route (empty = no restriction).
	AllowNetworks []string

	// RateLimit is the per-IP rate limit in requests/second (0 = disabled).
	RateLimit int
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
//
// Order: Recover -> CORS -> RequestID -> NetworkACL -> RateLimit -> Audit -> mux
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	mux := http.NewServeMux()
	cfg.Handler.Register(mux)

	if cfg.WebSocket != nil {
		mux.Handle("GET /ws", cfg.WebSocket)
	}
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	var root http.Handler = mux
	if cfg.WebSocket != nil {
		root = upgradeAtRoot(mux, cfg.WebSocket)
	}

	middlewares := []Middleware{
		Recover(log),
		CORS(cfg.CORSAllowedOrigins),
		RequestID(),
		NetworkACL(&NetworkACLConfig{AllowList: cfg.AllowNetworks, Logger: log}),
	}
	if cfg.RateLimit > 0 {
		middlewares = append(middlewares, RateLimit(NewLimiterRegistry(cfg.RateLimit, 10*time.Minute)))
	}
	middlewares = append(middlewares, Audit(log, cfg.RequestMetrics))

	return Chain(root, middlewares...)
}

// upgradeAtRoot sends websocket upgrades for "/" to ws and everything
// else to next.
func upgradeAtRoot(next, ws http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && isWebSocketUpgrade(r) {
			ws.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		RateLimit: 100,
	}
}

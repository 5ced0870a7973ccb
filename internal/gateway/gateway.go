package gateway

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/yndnr/scuttlekit-go/internal/bootstrap"
	"github.com/yndnr/scuttlekit-go/internal/core/domain"
	"github.com/yndnr/scuttlekit-go/internal/core/service"
	"github.com/yndnr/scuttlekit-go/internal/host"
	"github.com/yndnr/scuttlekit-go/internal/infra/confloader"
	"github.com/yndnr/scuttlekit-go/internal/server/httpserver"
	"github.com/yndnr/scuttlekit-go/internal/server/httpserver/handler"
	"github.com/yndnr/scuttlekit-go/internal/server/wsserver"
	"github.com/yndnr/scuttlekit-go/internal/storage/tokenstore"
	"github.com/yndnr/scuttlekit-go/internal/telemetry/logger"
)

// watchDebounce coalesces the burst of events an atomic save produces.
const watchDebounce = 100 * time.Millisecond

// Gateway is a running extension instance.
type Gateway struct {
	cfg       Config
	log       logger.Logger
	store     *tokenstore.FileStore
	validator *service.Validator
	registrar *service.Registrar
	registry  *service.Registry
	ws        *wsserver.Server
	http      *httpserver.Server
	watcher   *confloader.Watcher

	mu           sync.Mutex
	shuttingDown bool
}

// Init bootstraps the token store and binds the listener. It does not
// serve; call Serve. Store errors are returned as domain.ErrBootstrap with
// the store error (for example domain.ErrStoreCorrupt) as cause, and
// nothing is left listening.
func Init(ctx context.Context, h host.Handle, cfg Config) (*Gateway, error) {
	if h == nil {
		return nil, domain.ErrBootstrap.WithDetails("host handle is required")
	}
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, domain.ErrBootstrap.WithDetails(err.Error())
	}
	log := cfg.Logger

	res, err := bootstrap.EnsureInitialized(cfg.Path, bootstrap.WithLogger(log))
	if err != nil {
		return nil, err
	}

	g := &Gateway{
		cfg:   cfg,
		log:   log,
		store: res.Store,
	}

	g.validator = service.NewValidator(res.Tokens, service.WithValidatorMetrics(cfg.Metrics))
	g.registrar = service.NewRegistrar(res.Store, g.validator, &service.RegistrarConfig{
		Timeout: cfg.RegistrationTimeout,
		Logger:  log,
		Metrics: cfg.Metrics,
	})
	g.registry = service.NewDefaultRegistry(h)

	g.ws = wsserver.New(g.validator, g.registry, &wsserver.Config{
		DispatchTimeout: cfg.DispatchTimeout,
		OriginPatterns:  cfg.CORSAllowedOrigins,
		Logger:          log,
		Metrics:         cfg.Metrics,
	})

	routes := handler.New(handler.Config{
		Registrar: g.registrar,
		Validator: g.validator,
		Version:   cfg.Version,
		Ready:     g.ready,
		Logger:    log,
	})
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Handler:            routes,
		WebSocket:          g.ws,
		Metrics:            cfg.Metrics.Handler(),
		RequestMetrics:     cfg.Metrics,
		Logger:             log,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AllowNetworks:      cfg.AllowNetworks,
		RateLimit:          cfg.RateLimit,
	})

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.listenPort()))
	g.http = httpserver.New(addr, router)
	if err := g.http.Listen(); err != nil {
		return nil, domain.ErrBootstrap.WithDetails("listen on " + addr).WithCause(err)
	}

	if cfg.WatchTokens {
		if err := g.watchTokens(ctx); err != nil {
			// The gateway works without the watcher; only external edits go unseen.
			log.Warn("token store watcher disabled", "path", res.Store.Path(), "error", err)
		}
	}

	log.Info("scuttlekit gateway initialized",
		"addr", g.http.Addr(),
		"tokens", g.validator.Len(),
		"services", g.registry.Names(),
	)
	return g, nil
}

// watchTokens reloads the validator whenever tokens.json changes.
func (g *Gateway) watchTokens(ctx context.Context) error {
	w, err := confloader.NewWatcher(
		confloader.WithWatcherLogger(g.log),
		confloader.WithDebounce(watchDebounce),
	)
	if err != nil {
		return err
	}
	if err := w.Watch(g.store.Path()); err != nil {
		w.Stop()
		return err
	}

	// Detached from ctx: the watcher outlives Init and stops in Shutdown.
	base := context.WithoutCancel(ctx)
	w.OnChange(func(path string) {
		g.log.Debug("token store changed on disk", "path", path)
		_ = g.registrar.Reload(base)
	})
	w.StartAsync()
	g.watcher = w
	return nil
}

// Serve handles HTTP and websocket traffic until Shutdown.
func (g *Gateway) Serve() error {
	g.log.Info("ScuttleKit listening", "addr", g.http.Addr())
	return g.http.Serve()
}

// Addr returns the bound listen address.
func (g *Gateway) Addr() string {
	return g.http.Addr()
}

// Validator returns the token validator.
func (g *Gateway) Validator() *service.Validator {
	return g.validator
}

// Registrar returns the registrar.
func (g *Gateway) Registrar() *service.Registrar {
	return g.registrar
}

// Shutdown stops the watcher, closes websocket sessions with a going-away
// status and then drains HTTP requests.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	g.shuttingDown = true
	g.mu.Unlock()

	var errs []error
	if g.watcher != nil {
		if err := g.watcher.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := g.ws.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := g.http.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	g.log.Info("scuttlekit gateway stopped")
	return errors.Join(errs...)
}

func (g *Gateway) ready() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.shuttingDown {
		return errors.New("shutting down")
	}
	return nil
}

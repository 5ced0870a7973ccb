package wsserver

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
	"github.com/yndnr/scuttlekit-go/internal/core/service"
	"github.com/yndnr/scuttlekit-go/internal/telemetry/logger"
)

// Authorizer answers token questions. *service.Validator satisfies it.
type Authorizer interface {
	Authorize(token string, req service.Requirement) (domain.AppSettings, error)
}

// Metrics receives session and dispatch counters. *metric.Registry satisfies it.
type Metrics interface {
	IncSessions()
	DecSessions()
	RecordDispatch(service, outcome string, seconds float64)
}

type noopMetrics struct{}

func (noopMetrics) IncSessions()                           {}
func (noopMetrics) DecSessions()                           {}
func (noopMetrics) RecordDispatch(string, string, float64) {}

// Config holds configuration for Server.
type Config struct {
	// DispatchTimeout bounds each getService call, including the whole
	// stream of a source service (default: 10s).
	DispatchTimeout time.Duration

	// WriteTimeout bounds a single frame write (default: 5s).
	WriteTimeout time.Duration

	// ReadLimit is the largest handled inbound frame in bytes (default: 1 MiB).
	// Larger frames are discarded and answered with a ProtocolError.
	ReadLimit int64

	// OriginPatterns are the cross-origin hosts allowed to connect.
	// Same-origin requests are always allowed.
	OriginPatterns []string

	Logger  logger.Logger
	Metrics Metrics
}

// DefaultConfig returns default configuration.
func DefaultConfig() *Config {
	return &Config{
		DispatchTimeout: 10 * time.Second,
		WriteTimeout:    5 * time.Second,
		ReadLimit:       1 << 20,
	}
}

// Server accepts WebSocket connections and tracks their sessions.
type Server struct {
	auth     Authorizer
	registry *service.Registry
	cfg      Config
	log      logger.Logger
	metrics  Metrics

	mu       sync.Mutex
	sessions map[*Session]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// New creates a Server dispatching to registry and authorizing with auth.
func New(auth Authorizer, registry *service.Registry, cfg *Config) *Server {
	def := DefaultConfig()
	if cfg == nil {
		cfg = def
	}

	s := &Server{
		auth:     auth,
		registry: registry,
		cfg:      *cfg,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
		sessions: make(map[*Session]struct{}),
	}
	if s.cfg.DispatchTimeout <= 0 {
		s.cfg.DispatchTimeout = def.DispatchTimeout
	}
	if s.cfg.WriteTimeout <= 0 {
		s.cfg.WriteTimeout = def.WriteTimeout
	}
	if s.cfg.ReadLimit <= 0 {
		s.cfg.ReadLimit = def.ReadLimit
	}
	if s.log == nil {
		s.log = logger.Default()
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	return s
}

// ServeHTTP upgrades the request and runs a Session until the peer leaves.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.OriginPatterns,
	})
	if err != nil {
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	// Frames are bounded by Session.readFrame, which answers oversized
	// frames with a protocol error instead of closing with 1009.
	conn.SetReadLimit(-1)

	id := ulid.Make().String()
	sess := &Session{
		id:     id,
		conn:   conn,
		server: s,
		token:  TokenFromRequest(r),
		log:    s.log.With("session_id", id, "remote", r.RemoteAddr),
	}

	if !s.add(sess) {
		conn.Close(websocket.StatusGoingAway, "server is shutting down")
		return
	}
	defer s.remove(sess)

	ctx := logger.WithSessionID(r.Context(), id)
	sess.Run(ctx)
}

// TokenFromRequest returns the token presented on the upgrade request: the
// "token" query parameter, else an Authorization bearer token.
func TokenFromRequest(r *http.Request) string {
	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok
	}
	return BearerToken(r.Header.Get("Authorization"))
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// Len returns the number of open sessions.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close refuses new connections, closes every open session with a
// going-away status and waits for their goroutines or ctx.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	open := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()

	for _, sess := range open {
		sess.close(websocket.StatusGoingAway, "server is shutting down")
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) add(sess *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.sessions[sess] = struct{}{}
	s.metrics.IncSessions()
	sess.log.Info("websocket session opened", "token_presented", sess.token != "")
	return true
}

func (s *Server) remove(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess]; ok {
		delete(s.sessions, sess)
		s.metrics.DecSessions()
	}
}

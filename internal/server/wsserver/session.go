package wsserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
	"github.com/yndnr/scuttlekit-go/internal/core/service"
	"github.com/yndnr/scuttlekit-go/internal/telemetry/logger"
)

// State is the protocol state of a Session.
type State int32

const (
	StateConnected State = iota
	StateDispatching
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateDispatching:
		return "dispatching"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is one WebSocket connection and the token presented on it.
// Nothing is shared between sessions.
type Session struct {
	id     string
	conn   *websocket.Conn
	server *Server
	log    logger.Logger

	// token is only touched by the session goroutine.
	token string

	state   atomic.Int32
	writeMu sync.Mutex
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// State returns the current protocol state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Run reads and handles frames until the connection ends.
func (s *Session) Run(ctx context.Context) {
	defer s.close(websocket.StatusNormalClosure, "")

	for {
		data, err := s.readFrame(ctx)
		var tooBig *frameTooBigError
		switch {
		case errors.As(err, &tooBig):
			s.log.Warn("oversized frame dropped", "bytes", tooBig.size, "limit", tooBig.limit)
			s.reply(ctx, errorFrame(nil, domain.ErrProtocol.WithDetails(tooBig.Error())))
			continue
		case err != nil:
			s.logReadError(err)
			return
		}
		s.handle(ctx, data)
	}
}

type frameTooBigError struct {
	size  int64
	limit int64
}

func (e *frameTooBigError) Error() string {
	return fmt.Sprintf("frame of %d bytes exceeds the %d byte limit", e.size, e.limit)
}

// readFrame reads one message. Messages over the read limit are drained and
// reported as *frameTooBigError so the connection stays usable.
func (s *Session) readFrame(ctx context.Context) ([]byte, error) {
	_, r, err := s.conn.Reader(ctx)
	if err != nil {
		return nil, err
	}

	limit := s.server.cfg.ReadLimit
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) <= limit {
		return data, nil
	}

	rest, err := io.Copy(io.Discard, r)
	if err != nil {
		return nil, err
	}
	return nil, &frameTooBigError{size: int64(len(data)) + rest, limit: limit}
}

func (s *Session) logReadError(err error) {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		s.log.Info("websocket session closed by peer")
	case -1:
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			s.log.Info("websocket session ended", "reason", err.Error())
			return
		}
		s.log.Warn("websocket read failed, closing", "error", err)
	default:
		s.log.Info("websocket session closed by peer", "status", websocket.CloseStatus(err).String())
	}
}

func (s *Session) handle(ctx context.Context, data []byte) {
	req, err := decodeRequest(data)
	if err != nil {
		s.log.Warn("malformed frame", "error", err, "bytes", len(data))
		s.reply(ctx, errorFrame(req.ID, err))
		return
	}

	switch req.Method {
	case MethodAuth:
		s.handleAuth(ctx, req)
	case MethodGetService:
		s.handleGetService(ctx, req)
	default:
		err := domain.ErrProtocol.WithDetails("unknown method " + req.Method)
		s.log.Warn("malformed frame", "error", err)
		s.reply(ctx, errorFrame(req.ID, err))
	}
}

func (s *Session) handleAuth(ctx context.Context, req Request) {
	tok, err := stringArg(req.Args, 0, "token")
	if err != nil {
		s.log.Warn("malformed frame", "method", req.Method, "error", err)
		s.reply(ctx, errorFrame(req.ID, err))
		return
	}

	settings, err := s.server.auth.Authorize(tok, service.Requirement{})
	if err != nil {
		s.log.Warn("auth rejected", "error", err)
		s.reply(ctx, errorFrame(req.ID, err))
		return
	}

	s.token = tok
	s.log = s.log.With("app", settings.Identifier)
	s.log.Info("session authenticated")
	s.replyResult(ctx, req.ID, AuthResult{Authenticated: true, App: settings.Identifier})
}

func (s *Session) handleGetService(ctx context.Context, req Request) {
	name, err := stringArg(req.Args, 0, "service name")
	if err != nil {
		s.log.Warn("malformed frame", "method", req.Method, "error", err)
		s.reply(ctx, errorFrame(req.ID, err))
		return
	}

	svc, err := s.server.registry.Lookup(name)
	if err != nil {
		s.server.metrics.RecordDispatch(name, "not_found", 0)
		s.reply(ctx, errorFrame(req.ID, err))
		return
	}

	settings, err := s.server.auth.Authorize(s.token, svc.Requirement)
	if err != nil {
		s.server.metrics.RecordDispatch(name, "unauthorized", 0)
		s.log.Warn("dispatch rejected", "service", name, "error", err)
		s.reply(ctx, errorFrame(req.ID, err))
		return
	}

	s.dispatch(ctx, req, svc, service.Caller{Token: s.token, Settings: settings})
}

// dispatch runs svc under the dispatch timeout and writes its result.
func (s *Session) dispatch(ctx context.Context, req Request, svc service.Service, caller service.Caller) {
	if !s.state.CompareAndSwap(int32(StateConnected), int32(StateDispatching)) {
		return
	}
	defer s.state.CompareAndSwap(int32(StateDispatching), int32(StateConnected))

	start := time.Now()
	dctx, cancel := context.WithTimeout(ctx, s.server.cfg.DispatchTimeout)
	defer cancel()

	args := req.Args[1:]
	var err error
	switch svc.Kind {
	case service.KindAsync:
		err = s.runAsync(dctx, req.ID, svc, caller, args)
	case service.KindSource:
		err = s.runSource(dctx, req.ID, svc, caller, args)
	}

	outcome := "ok"
	if err != nil {
		if errors.Is(dctx.Err(), context.DeadlineExceeded) {
			err = domain.ErrTimeout.WithDetails(svc.Name)
		}
		outcome = domain.AsDomainError(err).Kind()
		s.log.Warn("dispatch failed", "service", svc.Name, "error", err)
		s.reply(ctx, errorFrame(req.ID, err))
	} else {
		s.log.Debug("dispatch complete", "service", svc.Name, "duration", time.Since(start))
	}
	s.server.metrics.RecordDispatch(svc.Name, outcome, time.Since(start).Seconds())
}

func (s *Session) runAsync(ctx context.Context, id json.RawMessage, svc service.Service, caller service.Caller, args []json.RawMessage) error {
	type result struct {
		val any
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := svc.Call(ctx, caller, args)
		done <- result{v, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if res.err != nil {
		return res.err
	}

	frame, err := resultFrame(id, res.val)
	if err != nil {
		return err
	}
	return s.write(ctx, frame)
}

func (s *Session) runSource(ctx context.Context, id json.RawMessage, svc service.Service, caller service.Caller, args []json.RawMessage) error {
	src, err := svc.Open(ctx, caller, args)
	if err != nil {
		return err
	}

	for {
		item, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		frame, err := resultFrame(id, item)
		if err != nil {
			return err
		}
		frame.Stream = true
		if err := s.write(ctx, frame); err != nil {
			return err
		}
	}

	return s.write(ctx, Response{ID: id, End: true})
}

func (s *Session) replyResult(ctx context.Context, id json.RawMessage, v any) {
	frame, err := resultFrame(id, v)
	if err != nil {
		frame = errorFrame(id, err)
	}
	s.reply(ctx, frame)
}

// reply writes a frame, logging rather than returning write failures; the
// read loop notices a dead connection on its next read.
func (s *Session) reply(ctx context.Context, frame Response) {
	if err := s.write(ctx, frame); err != nil {
		s.log.Warn("websocket write failed", "error", err)
	}
}

func (s *Session) write(ctx context.Context, frame Response) error {
	ctx, cancel := context.WithTimeout(ctx, s.server.cfg.WriteTimeout)
	defer cancel()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return wsjson.Write(ctx, s.conn, frame)
}

func (s *Session) close(code websocket.StatusCode, reason string) {
	if State(s.state.Swap(int32(StateClosed))) == StateClosed {
		return
	}
	s.conn.Close(code, reason)
}

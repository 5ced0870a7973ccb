package wsserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
	"github.com/yndnr/scuttlekit-go/internal/core/service"
	"github.com/yndnr/scuttlekit-go/internal/host"
	"github.com/yndnr/scuttlekit-go/internal/telemetry/logger"
)

const chessToken = "sktk_chess"

type fixture struct {
	ts     *httptest.Server
	server *Server
	node   *host.Local
}

func newFixture(t *testing.T, cfg *Config, extra ...service.Service) *fixture {
	t.Helper()

	node := host.NewLocal("@node.ed25519")
	_, err := node.Publish("post", map[string]string{"text": "hello"})
	require.NoError(t, err)
	_, err = node.Publish("vote", map[string]string{"value": "yes"})
	require.NoError(t, err)
	_, err = node.Publish("chess-move", map[string]string{"move": "e4"})
	require.NoError(t, err)

	validator := service.NewValidator([]domain.Token{{
		Token: chessToken,
		Settings: domain.AppSettings{
			Name:       "Chess",
			Identifier: "chess",
			Version:    "1.0.0",
			Types:      map[string]domain.Access{"chess-move": domain.AccessWrite, "post": domain.AccessRead},
		},
	}})

	registry := service.NewDefaultRegistry(node)
	registry.MustRegister(extra...)

	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.Logger = logger.Discard()

	srv := New(validator, registry, cfg)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &fixture{ts: ts, server: srv, node: node}
}

func (f *fixture) dial(t *testing.T, query string, header http.Header) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + query
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(frame)))
}

func recv(t *testing.T, conn *websocket.Conn) Response {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var resp Response
	require.NoError(t, wsjson.Read(ctx, conn, &resp))
	return resp
}

func requireErrorKind(t *testing.T, resp Response, kind string) {
	t.Helper()
	require.NotNil(t, resp.Error, "expected an error frame, got %+v", resp)
	assert.Equal(t, kind, resp.Error.Kind)
	assert.Nil(t, resp.Result)
}

func TestGetService_Unauthenticated(t *testing.T) {
	f := newFixture(t, nil)
	conn := f.dial(t, "", nil)

	send(t, conn, `{"id":1,"method":"getService","args":["notifications"]}`)
	resp := recv(t, conn)
	requireErrorKind(t, resp, "UnauthorizedError")
	assert.Equal(t, domain.ErrUnauthorized.Code, resp.Error.Code)
	assert.JSONEq(t, `1`, string(resp.ID))

	// The connection stays open.
	send(t, conn, `{"id":2,"method":"getService","args":["whoami"]}`)
	resp = recv(t, conn)
	requireErrorKind(t, resp, "UnauthorizedError")
	assert.JSONEq(t, `2`, string(resp.ID))
}

func TestGetService_UnknownService(t *testing.T) {
	f := newFixture(t, nil)
	conn := f.dial(t, "?token="+chessToken, nil)

	send(t, conn, `{"id":"x","method":"getService","args":["does-not-exist"]}`)
	resp := recv(t, conn)
	requireErrorKind(t, resp, "ServiceNotFoundError")
	assert.JSONEq(t, `"x"`, string(resp.ID))
}

func TestMalformedFrames(t *testing.T) {
	f := newFixture(t, nil)
	conn := f.dial(t, "", nil)

	frames := []string{
		`{not json`,
		`[]`,
		`{"id":1}`,
		`{"id":2,"method":"launchMissiles"}`,
		`{"id":3,"method":"getService"}`,
		`{"id":4,"method":"getService","args":[42]}`,
		`{"id":5,"method":"auth","args":[]}`,
	}
	for _, frame := range frames {
		send(t, conn, frame)
		resp := recv(t, conn)
		requireErrorKind(t, resp, "ProtocolError")
	}

	// Still usable afterwards.
	send(t, conn, `{"id":6,"method":"auth","args":["`+chessToken+`"]}`)
	resp := recv(t, conn)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{"authenticated":true,"app":"chess"}`, string(resp.Result))
}

func TestMalformedFrame_EchoesID(t *testing.T) {
	f := newFixture(t, nil)
	conn := f.dial(t, "?token="+chessToken, nil)

	send(t, conn, `{"id":7,"method":"getService","args":"notifications"}`)
	resp := recv(t, conn)
	requireErrorKind(t, resp, "ProtocolError")
	assert.JSONEq(t, `7`, string(resp.ID))
	assert.Contains(t, resp.Error.Message, "args must be an array")
}

func TestOversizedFrame(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReadLimit = 1024
	f := newFixture(t, cfg)
	conn := f.dial(t, "?token="+chessToken, nil)

	big := `{"id":1,"method":"getService","args":["whoami","` + strings.Repeat("x", 64*1024) + `"]}`
	send(t, conn, big)
	resp := recv(t, conn)
	requireErrorKind(t, resp, "ProtocolError")
	assert.Contains(t, resp.Error.Message, "exceeds the 1024 byte limit")

	// The connection survives and the session keeps its token.
	send(t, conn, `{"id":2,"method":"getService","args":["whoami"]}`)
	resp = recv(t, conn)
	require.Nil(t, resp.Error, "got %+v", resp.Error)
	assert.JSONEq(t, `2`, string(resp.ID))
}

func TestAuthThenNotifications(t *testing.T) {
	f := newFixture(t, nil)
	conn := f.dial(t, "", nil)

	send(t, conn, `{"id":1,"method":"auth","args":["`+chessToken+`"]}`)
	require.Nil(t, recv(t, conn).Error)

	send(t, conn, `{"id":"req-7","method":"getService","args":["notifications"]}`)

	var types []string
	for {
		resp := recv(t, conn)
		require.Nil(t, resp.Error)
		assert.JSONEq(t, `"req-7"`, string(resp.ID))
		if resp.End {
			break
		}
		require.True(t, resp.Stream)

		var msg host.Message
		require.NoError(t, json.Unmarshal(resp.Result, &msg))
		types = append(types, msg.Type)
	}

	// vote is not readable by this token.
	assert.Equal(t, []string{"post", "chess-move"}, types)
}

func TestAuthRejected(t *testing.T) {
	f := newFixture(t, nil)
	conn := f.dial(t, "", nil)

	send(t, conn, `{"method":"auth","args":["sktk_forged"]}`)
	resp := recv(t, conn)
	requireErrorKind(t, resp, "UnauthorizedError")
	assert.Empty(t, resp.ID)

	send(t, conn, `{"method":"getService","args":["whoami"]}`)
	requireErrorKind(t, recv(t, conn), "UnauthorizedError")
}

func TestTokenOnUpgrade(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		header http.Header
	}{
		{name: "query parameter", query: "?token=" + chessToken},
		{name: "bearer header", header: http.Header{"Authorization": []string{"Bearer " + chessToken}}},
		{name: "lowercase bearer", header: http.Header{"Authorization": []string{"bearer " + chessToken}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			conn := f.dial(t, tt.query, tt.header)

			send(t, conn, `{"id":1,"method":"getService","args":["whoami"]}`)
			resp := recv(t, conn)
			require.Nil(t, resp.Error)
			assert.JSONEq(t, `{"feedId":"@node.ed25519","app":"chess"}`, string(resp.Result))
		})
	}
}

func TestDispatchTimeout(t *testing.T) {
	slow := service.Service{
		Name: "slow",
		Kind: service.KindAsync,
		Call: func(ctx context.Context, caller service.Caller, args []json.RawMessage) (any, error) {
			time.Sleep(time.Second)
			return "too late", nil
		},
	}
	cfg := DefaultConfig()
	cfg.DispatchTimeout = 50 * time.Millisecond
	f := newFixture(t, cfg, slow)
	conn := f.dial(t, "?token="+chessToken, nil)

	send(t, conn, `{"id":1,"method":"getService","args":["slow"]}`)
	resp := recv(t, conn)
	requireErrorKind(t, resp, "Timeout")
	assert.Equal(t, domain.ErrTimeout.Code, resp.Error.Code)

	// The session is usable again after the timeout.
	send(t, conn, `{"id":2,"method":"getService","args":["whoami"]}`)
	assert.Nil(t, recv(t, conn).Error)
}

func TestServiceArgsAndErrors(t *testing.T) {
	echo := service.Service{
		Name: "echo",
		Kind: service.KindAsync,
		Call: func(ctx context.Context, caller service.Caller, args []json.RawMessage) (any, error) {
			return args, nil
		},
	}
	broken := service.Service{
		Name: "broken",
		Kind: service.KindAsync,
		Call: func(ctx context.Context, caller service.Caller, args []json.RawMessage) (any, error) {
			return nil, assert.AnError
		},
	}
	f := newFixture(t, nil, echo, broken)
	conn := f.dial(t, "?token="+chessToken, nil)

	send(t, conn, `{"id":1,"method":"getService","args":["echo","a",{"b":2}]}`)
	resp := recv(t, conn)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `["a",{"b":2}]`, string(resp.Result))

	send(t, conn, `{"id":2,"method":"getService","args":["broken"]}`)
	resp = recv(t, conn)
	requireErrorKind(t, resp, "InternalError")
	assert.NotContains(t, resp.Error.Message, assert.AnError.Error())
}

func TestConnectionsAreIndependent(t *testing.T) {
	f := newFixture(t, nil)
	authed := f.dial(t, "?token="+chessToken, nil)
	anon := f.dial(t, "", nil)

	send(t, anon, `{"id":1,"method":"getService","args":["whoami"]}`)
	requireErrorKind(t, recv(t, anon), "UnauthorizedError")

	send(t, authed, `{"id":1,"method":"getService","args":["whoami"]}`)
	assert.Nil(t, recv(t, authed).Error)

	anon.Close(websocket.StatusNormalClosure, "")

	send(t, authed, `{"id":2,"method":"getService","args":["whoami"]}`)
	assert.Nil(t, recv(t, authed).Error)
}

func TestServerClose(t *testing.T) {
	f := newFixture(t, nil)
	conn := f.dial(t, "", nil)

	require.Eventually(t, func() bool { return f.server.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// The client must be reading to complete the close handshake.
	readErr := make(chan error, 1)
	go func() {
		_, _, err := conn.Read(ctx)
		readErr <- err
	}()

	require.NoError(t, f.server.Close(ctx))
	assert.Equal(t, 0, f.server.Len())
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(<-readErr))

	// New connections are refused.
	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(f.ts.URL, "http"), nil)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BearerToken(tt.header), "BearerToken(%q)", tt.header)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "dispatching", StateDispatching.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", State(9).String())
}

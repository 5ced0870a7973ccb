package command

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
	"github.com/yndnr/scuttlekit-go/internal/storage/tokenstore"
)

// run executes the CLI with args and returns stdout. Exit codes are
// reported as errors instead of terminating the test binary.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := App()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := append([]string{"scuttlekit-cli", "--config", filepath.Join(t.TempDir(), "cli.yaml")}, args...)
	err := app.Run(full)
	return out.String(), err
}

// seedStore writes tokens to <dir>/scuttlekit/tokens.json.
func seedStore(t *testing.T, tokens ...domain.Token) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.MkdirAll(tokenstore.DirPath(dir), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := tokenstore.New(dir).Save(tokens); err != nil {
		t.Fatal(err)
	}
	return dir
}

func chessToken() domain.Token {
	return domain.Token{
		Token: "sktk_chess",
		Settings: domain.AppSettings{
			Name:       "chess",
			Identifier: "chess-app",
			Version:    "1.0.0",
			Types:      map[string]domain.Access{"chess-move": domain.AccessWrite, "post": domain.AccessRead},
		},
	}
}

func voteToken() domain.Token {
	return domain.Token{
		Token: "sktk_vote",
		Settings: domain.AppSettings{
			Name:       "vote",
			Identifier: "vote-app",
			Version:    "1.0.0",
			Types:      map[string]domain.Access{"vote": domain.AccessWrite},
		},
	}
}

// mockServer serves fixed handlers by exact path.
type mockServer struct {
	*httptest.Server
	handlers map[string]http.HandlerFunc
}

func newMockServer(t *testing.T) *mockServer {
	m := &mockServer{handlers: make(map[string]http.HandlerFunc)}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := m.handlers[r.URL.Path]; ok {
			h(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mockServer) handle(path string, h http.HandlerFunc) {
	m.handlers[path] = h
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

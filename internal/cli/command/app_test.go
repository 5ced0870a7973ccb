package command

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
	"github.com/yndnr/scuttlekit-go/internal/server/httpserver/handler"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func registerServer(t *testing.T, got *domain.RegistrationParams) *mockServer {
	srv := newMockServer(t)
	srv.handle("/register", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			t.Errorf("decode: %v", err)
		}
		jsonResponse(w, http.StatusOK, handler.RegisterResponse{Token: "sktk_new", Settings: got.Settings()})
	})
	return srv
}

func TestAppRegister_FromYAMLFile(t *testing.T) {
	var got domain.RegistrationParams
	srv := registerServer(t, &got)

	doc := filepath.Join(t.TempDir(), "app.yaml")
	err := writeFile(doc, `
appName: Chess
appId: chess-app
messageTypes:
  chess-move:
    write: true
  post:
    read: true
`)
	if err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--server", srv.URL, "-o", "json", "app", "register", "--file", doc)
	if err != nil {
		t.Fatalf("app register: %v", err)
	}

	if got.AppName != "Chess" || !got.MessageTypes["chess-move"].Write || !got.MessageTypes["post"].Read {
		t.Errorf("server received %+v", got)
	}

	var resp handler.RegisterResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if resp.Token != "sktk_new" || resp.Settings.Types["chess-move"] != domain.AccessWrite {
		t.Errorf("resp = %+v", resp)
	}
}

func TestAppRegister_FlagsOverrideFile(t *testing.T) {
	var got domain.RegistrationParams
	srv := registerServer(t, &got)

	doc := filepath.Join(t.TempDir(), "app.json")
	if err := writeFile(doc, `{"appName":"Old","appId":"x","messageTypes":{"post":{"read":true}}}`); err != nil {
		t.Fatal(err)
	}

	_, err := run(t, "--server", srv.URL, "app", "register", "--file", doc, "--name", "New", "--write", "vote")
	if err != nil {
		t.Fatalf("app register: %v", err)
	}
	if got.AppName != "New" || got.AppID != "x" {
		t.Errorf("name/id = %q/%q", got.AppName, got.AppID)
	}
	if !got.MessageTypes["vote"].Write || !got.MessageTypes["post"].Read {
		t.Errorf("MessageTypes = %+v", got.MessageTypes)
	}
}

func TestAppRegister_InvalidNeverReachesServer(t *testing.T) {
	srv := newMockServer(t)
	srv.handle("/register", func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid registration should not be sent")
	})

	_, err := run(t, "--server", srv.URL, "app", "register", "--name", "Chess")
	if !errors.Is(err, domain.ErrInvalidRegistration) {
		t.Errorf("error = %v, want ErrInvalidRegistration", err)
	}
}

func TestAppRegister_NothingGiven(t *testing.T) {
	_, err := run(t, "app", "register")
	if err == nil || !strings.Contains(err.Error(), "nothing to register") {
		t.Errorf("error = %v", err)
	}
}

func TestAppRegister_ServerError(t *testing.T) {
	srv := newMockServer(t)
	srv.handle("/register", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusInternalServerError, handler.NewErrorResponse("req-1", domain.ErrInternal.Code, "internal server error", nil))
	})

	_, err := run(t, "--server", srv.URL, "app", "register", "--name", "Chess", "--id", "chess", "--read", "post")
	if err == nil || !strings.Contains(err.Error(), "internal server error") {
		t.Errorf("error = %v", err)
	}
}

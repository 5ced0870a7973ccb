package service

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
	"github.com/yndnr/scuttlekit-go/internal/host"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	svc := Service{
		Name:        "echo",
		Kind:        KindAsync,
		Requirement: Requirement{},
		Call: func(ctx context.Context, caller Caller, args []json.RawMessage) (any, error) {
			return args, nil
		},
	}

	if err := r.Register(svc); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(svc); err == nil {
		t.Error("Register() should reject a duplicate name")
	}

	got, err := r.Lookup("echo")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Name != "echo" || got.Kind != KindAsync {
		t.Errorf("Lookup() = %+v", got)
	}

	if _, err := r.Lookup("missing"); !errors.Is(err, domain.ErrServiceNotFound) {
		t.Errorf("Lookup(missing) error = %v, want ErrServiceNotFound", err)
	}
}

func TestRegistry_RegisterValidation(t *testing.T) {
	call := func(ctx context.Context, caller Caller, args []json.RawMessage) (any, error) { return nil, nil }
	open := func(ctx context.Context, caller Caller, args []json.RawMessage) (host.Source, error) { return nil, nil }

	tests := []struct {
		name string
		svc  Service
	}{
		{"no name", Service{Kind: KindAsync, Call: call}},
		{"async without call", Service{Name: "a", Kind: KindAsync}},
		{"async with open", Service{Name: "a", Kind: KindAsync, Call: call, Open: open}},
		{"source without open", Service{Name: "s", Kind: KindSource}},
		{"unknown kind", Service{Name: "x", Kind: "duplex", Call: call}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := NewRegistry().Register(tt.svc); err == nil {
				t.Error("Register() should fail")
			}
		})
	}
}

func TestNewDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry(host.NewLocal("@node"))

	if got, want := r.Names(), []string{ServiceNotifications, ServiceWhoAmI}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	want := map[string]Kind{ServiceNotifications: KindSource, ServiceWhoAmI: KindAsync}
	if got := r.Manifest(); !reflect.DeepEqual(got, want) {
		t.Errorf("Manifest() = %v, want %v", got, want)
	}
}

func TestNotificationsService(t *testing.T) {
	node := host.NewLocal("@node")
	node.Publish("post", "hello")
	node.Publish("chess-move", "e4")
	node.Publish("vote", "yes")

	caller := Caller{Settings: chessTokens()[0].Settings} // chess-move write, post read
	svc := NotificationsService(node)

	collect := func(args []json.RawMessage) []string {
		t.Helper()
		src, err := svc.Open(context.Background(), caller, args)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		items, err := host.Drain(context.Background(), src)
		if err != nil {
			t.Fatalf("Drain() error = %v", err)
		}
		var types []string
		for _, it := range items {
			types = append(types, it.(host.Message).Type)
		}
		return types
	}

	if got := collect(nil); !reflect.DeepEqual(got, []string{"post", "chess-move"}) {
		t.Errorf("notifications = %v, want post and chess-move only", got)
	}
	if got := collect([]json.RawMessage{json.RawMessage(`["post","vote"]`)}); !reflect.DeepEqual(got, []string{"post"}) {
		t.Errorf("narrowed notifications = %v, want [post]", got)
	}

	_, err := svc.Open(context.Background(), caller, []json.RawMessage{json.RawMessage(`42`)})
	if !errors.Is(err, domain.ErrProtocol) {
		t.Errorf("Open(bad args) error = %v, want ErrProtocol", err)
	}
}

func TestWhoAmIService(t *testing.T) {
	svc := WhoAmIService(host.NewLocal("@node.ed25519"))

	got, err := svc.Call(context.Background(), Caller{Settings: chessTokens()[0].Settings}, nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if want := (WhoAmI{FeedID: "@node.ed25519", App: "chess"}); got != want {
		t.Errorf("Call() = %+v, want %+v", got, want)
	}
}

func TestRequirement_String(t *testing.T) {
	tests := []struct {
		req  Requirement
		want string
	}{
		{Requirement{}, "any token"},
		{Requirement{Access: domain.AccessRead}, "read on any type"},
		{Requirement{Access: domain.AccessWrite, MessageTypes: []string{"post", "vote"}}, "write on post,vote"},
	}
	for _, tt := range tests {
		if got := tt.req.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

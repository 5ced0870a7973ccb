package service

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
	"github.com/yndnr/scuttlekit-go/internal/host"
)

// Built-in service names.
const (
	ServiceNotifications = "notifications"
	ServiceWhoAmI        = "whoami"
)

// WhoAmI is the result of the whoami service.
type WhoAmI struct {
	FeedID string `json:"feedId"`
	App    string `json:"app"`
}

// NewDefaultRegistry returns a registry holding the built-in services
// backed by h.
func NewDefaultRegistry(h host.Handle) *Registry {
	r := NewRegistry()
	r.MustRegister(
		NotificationsService(h),
		WhoAmIService(h),
	)
	return r
}

// NotificationsService streams the node's messages of the types the caller
// may read. An optional first argument, an array of type names, narrows
// the stream further; it can never widen it.
func NotificationsService(h host.Handle) Service {
	return Service{
		Name:        ServiceNotifications,
		Kind:        KindSource,
		Requirement: Requirement{Access: domain.AccessRead},
		Open: func(ctx context.Context, caller Caller, args []json.RawMessage) (host.Source, error) {
			types := caller.Settings.TypesWith(domain.AccessRead)

			if len(args) > 0 {
				var wanted []string
				if err := json.Unmarshal(args[0], &wanted); err != nil {
					return nil, domain.ErrProtocol.WithDetails("notifications: first argument must be an array of message types")
				}
				types = slices.DeleteFunc(types, func(t string) bool {
					return !slices.Contains(wanted, t)
				})
			}

			slices.Sort(types)
			return h.Messages(ctx, types)
		},
	}
}

// WhoAmIService returns the node's feed id and the calling app.
func WhoAmIService(h host.Handle) Service {
	return Service{
		Name:        ServiceWhoAmI,
		Kind:        KindAsync,
		Requirement: Requirement{Access: domain.AccessRead},
		Call: func(ctx context.Context, caller Caller, args []json.RawMessage) (any, error) {
			return WhoAmI{FeedID: h.FeedID(), App: caller.Settings.Identifier}, nil
		},
	}
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
	"github.com/yndnr/scuttlekit-go/internal/host"
)

// Kind is how a service returns its result.
type Kind string

const (
	// KindAsync services return a single value.
	KindAsync Kind = "async"
	// KindSource services return a stream of values.
	KindSource Kind = "source"
)

// Caller identifies the authorized app on whose behalf a service runs.
type Caller struct {
	Token    string
	Settings domain.AppSettings
}

// CallFunc implements an async service.
type CallFunc func(ctx context.Context, caller Caller, args []json.RawMessage) (any, error)

// OpenFunc implements a source service.
type OpenFunc func(ctx context.Context, caller Caller, args []json.RawMessage) (host.Source, error)

// Service is a named capability exposed over the WebSocket channel.
// Exactly one of Call and Open is set, matching Kind.
type Service struct {
	Name        string
	Kind        Kind
	Requirement Requirement
	Call        CallFunc
	Open        OpenFunc
}

func (s Service) validate() error {
	if s.Name == "" {
		return fmt.Errorf("service name is required")
	}
	switch s.Kind {
	case KindAsync:
		if s.Call == nil || s.Open != nil {
			return fmt.Errorf("service %s: async services set Call only", s.Name)
		}
	case KindSource:
		if s.Open == nil || s.Call != nil {
			return fmt.Errorf("service %s: source services set Open only", s.Name)
		}
	default:
		return fmt.Errorf("service %s: unknown kind %q", s.Name, s.Kind)
	}
	return nil
}

// Registry maps service names to services. It is populated at init and
// read by every connection.
type Registry struct {
	mu       sync.RWMutex
	services map[string]Service
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{services: make(map[string]Service)}
}

// Register adds svc. Names are unique.
func (r *Registry) Register(svc Service) error {
	if err := svc.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.services[svc.Name]; exists {
		return fmt.Errorf("service %s already registered", svc.Name)
	}
	r.services[svc.Name] = svc
	return nil
}

// MustRegister is Register that panics on error. Use it for static wiring.
func (r *Registry) MustRegister(svcs ...Service) {
	for _, svc := range svcs {
		if err := r.Register(svc); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the service named name or domain.ErrServiceNotFound.
func (r *Registry) Lookup(name string) (Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[name]
	if !ok {
		return Service{}, domain.ErrServiceNotFound.WithDetails(name)
	}
	return svc, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Manifest returns each service name with its kind.
func (r *Registry) Manifest() map[string]Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := make(map[string]Kind, len(r.services))
	for name, svc := range r.services {
		m[name] = svc.Kind
	}
	return m
}

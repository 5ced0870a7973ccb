package host

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Message is a single entry on the node's log.
type Message struct {
	Key       string          `json:"key"`
	Author    string          `json:"author"`
	Type      string          `json:"type"`
	Content   json.RawMessage `json:"content"`
	Timestamp int64           `json:"timestamp"`
}

// Source yields values one at a time. Next returns io.EOF once exhausted.
type Source interface {
	Next(ctx context.Context) (any, error)
}

// Handle is what the gateway requires from the node.
type Handle interface {
	// FeedID returns the node's own feed identity.
	FeedID() string

	// Messages returns the messages whose type is in types, oldest first.
	// An empty types slice yields nothing.
	Messages(ctx context.Context, types []string) (Source, error)
}

// ErrClosed is returned by a Local node after Close.
var ErrClosed = errors.New("host: closed")

// Local is an in-memory node.
type Local struct {
	feedID string

	mu       sync.RWMutex
	messages []Message
	closed   bool
}

// NewLocal creates an empty in-memory node with the given feed id.
func NewLocal(feedID string) *Local {
	return &Local{feedID: feedID}
}

// FeedID implements Handle.
func (l *Local) FeedID() string {
	return l.feedID
}

// Publish appends a message authored by this node and returns its key.
func (l *Local) Publish(msgType string, content any) (Message, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return Message{}, err
	}

	now := time.Now()
	msg := Message{
		Key:       ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Author:    l.feedID,
		Type:      msgType,
		Content:   raw,
		Timestamp: now.UnixMilli(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return Message{}, ErrClosed
	}
	l.messages = append(l.messages, msg)
	return msg, nil
}

// Len returns the number of stored messages.
func (l *Local) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Messages implements Handle. The returned Source iterates a copy taken at
// call time.
func (l *Local) Messages(ctx context.Context, types []string) (Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, ErrClosed
	}

	var matched []Message
	for _, m := range l.messages {
		if slices.Contains(types, m.Type) {
			matched = append(matched, m)
		}
	}
	return &sliceSource{items: matched}, nil
}

// Close stops the node; later calls fail with ErrClosed.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

type sliceSource struct {
	items []Message
	pos   int
}

func (s *sliceSource) Next(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.items) {
		return nil, io.EOF
	}
	m := s.items[s.pos]
	s.pos++
	return m, nil
}

// Drain reads src to completion.
func Drain(ctx context.Context, src Source) ([]any, error) {
	var out []any
	for {
		v, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}

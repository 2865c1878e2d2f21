package janus

import (
	"context"
	"fmt"
)

// Completion awaits the reply to a request already sent upstream and
// applies it.
type Completion func(ctx context.Context) error

// Plugin is a per-session endpoint for one gateway plugin.
type Plugin interface {
	ID() string
	Type() string
	// StartMessage runs on the connection's reader goroutine, so whatever it
	// sends upstream keeps client frame order. It must not wait for replies;
	// that is left to the returned Completion, which may be nil.
	// ErrUnsupportedRequest means nothing was sent or changed.
	StartMessage(ctx context.Context, msg Message) (Completion, error)
	// Close releases what the handle holds upstream.
	Close(ctx context.Context)
}

// PluginFactory builds the handle for a successful attach.
type PluginFactory func(id string, s *Session) Plugin

// Handle is the plugin-independent part of a plugin handle.
type Handle struct {
	id      string
	typ     string
	session *Session
}

func NewHandle(id, typ string, s *Session) *Handle {
	return &Handle{id: id, typ: typ, session: s}
}

func (h *Handle) ID() string            { return h.id }
func (h *Handle) Type() string          { return h.typ }
func (h *Handle) Session() *Session     { return h.session }
func (h *Handle) Close(context.Context) {}

// StartMessage interprets nothing.
func (h *Handle) StartMessage(_ context.Context, msg Message) (Completion, error) {
	return nil, fmt.Errorf("%w: %s handle does not interpret %q", ErrUnsupportedRequest, h.typ, msg.Request())
}

// Request sends msg to the gateway and returns the handle that resolves
// with the correlated response.
func (h *Handle) Request(ctx context.Context, msg Message) (*Pending, error) {
	if h.session == nil || h.session.Connection() == nil {
		return nil, ErrConnectionClosed
	}
	return h.session.Connection().Request(ctx, msg)
}

// PassthroughFactory is used for plugins the bridge does not interpret.
func PassthroughFactory(typ string) PluginFactory {
	return func(id string, s *Session) Plugin {
		return NewHandle(id, typ, s)
	}
}

package janus

import (
	"context"
	"sync"
	"testing"

	"github.com/dkeye/roombridge/internal/core"
	"github.com/stretchr/testify/require"
)

// recordingSender stands in for a socket.
type recordingSender struct {
	mu     sync.Mutex
	frames []core.Frame
	sent   chan core.Frame
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: make(chan core.Frame, 64)}
}

func (s *recordingSender) Send(_ context.Context, f core.Frame) error {
	s.mu.Lock()
	s.frames = append(s.frames, f)
	s.mu.Unlock()
	select {
	case s.sent <- f:
	default:
	}
	return nil
}

func (s *recordingSender) Close() {}

func (s *recordingSender) Frames() []core.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Frame(nil), s.frames...)
}

func mustMessage(t *testing.T, raw string) Message {
	t.Helper()
	m, err := ParseMessage([]byte(raw))
	require.NoError(t, err)
	return m
}

func mustResponse(t *testing.T, raw string) Response {
	t.Helper()
	r, err := ParseResponse([]byte(raw))
	require.NoError(t, err)
	return r
}

package core

import "context"

// Frame is a raw protocol frame as read from or written to a socket.
type Frame []byte

// FrameSender abstracts one side of the bridge (client or gateway socket).
// Owned by the adapter; the adapter must Close() it.
type FrameSender interface {
	Send(ctx context.Context, f Frame) error
	Close()
}

package core

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

import (
	"context"

	"github.com/dkeye/roombridge/internal/domain"
)

// ChannelAPI is the conferencing backend's channel subscription endpoint.
type ChannelAPI interface {
	// Subscribe registers streamID as published to channel since start (unix seconds).
	Subscribe(ctx context.Context, channel, streamID string, start int64, sessionData string) error
	// RemoveStream unsubscribes streamID from channel.
	RemoveStream(ctx context.Context, channel, streamID string) error
}

// StreamRegistry is the process-wide set of streams believed to be
// subscribed upstream. It never calls ChannelAPI itself: callers pair every
// mutation with the matching upstream call.
type StreamRegistry interface {
	Add(s *domain.Stream)
	// Remove is a no-op for streams that are not present.
	Remove(s *domain.Stream)
	Has(id string) bool
	Snapshot() []domain.Stream
}

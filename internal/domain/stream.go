package domain

import "github.com/google/uuid"

// Stream is one room-to-channel subscription held by a plugin handle.
// It is never mutated; a room change replaces it with a new value.
type Stream struct {
	ID          string `json:"id"`
	ChannelName string `json:"channel"`
	// HandleID refers back to the owning plugin handle. It does not own it.
	HandleID string `json:"handle_id"`
}

func NewStream(id, channelName, handleID string) *Stream {
	return &Stream{ID: id, ChannelName: channelName, HandleID: handleID}
}

// NewSubscriptionStream is a Stream with a fresh unique id, so two handles
// in the same room never collide in the stream registry.
func NewSubscriptionStream(channelName, handleID string) *Stream {
	return NewStream(uuid.NewString(), channelName, handleID)
}

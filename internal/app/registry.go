package app

import (
	"sort"
	"sync"

	"github.com/dkeye/roombridge/internal/core"
	"github.com/dkeye/roombridge/internal/domain"
	"github.com/dkeye/roombridge/internal/metrics"
	"github.com/rs/zerolog/log"
)

// StreamRegistry is the in-memory core.StreamRegistry shared by every
// plugin handle in the process.
type StreamRegistry struct {
	mu      sync.RWMutex
	streams map[string]*domain.Stream
}

var _ core.StreamRegistry = (*StreamRegistry)(nil)

func NewStreamRegistry() *StreamRegistry {
	return &StreamRegistry{streams: make(map[string]*domain.Stream)}
}

func (r *StreamRegistry) Add(s *domain.Stream) {
	if s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams[s.ID] = s
	metrics.SetActiveStreams(len(r.streams))
	log.Info().Str("module", "app.streams").Str("stream", s.ID).Str("channel", s.ChannelName).Msg("stream added")
}

func (r *StreamRegistry) Remove(s *domain.Stream) {
	if s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.streams[s.ID]; !ok {
		return
	}
	delete(r.streams, s.ID)
	metrics.SetActiveStreams(len(r.streams))
	log.Info().Str("module", "app.streams").Str("stream", s.ID).Str("channel", s.ChannelName).Msg("stream removed")
}

func (r *StreamRegistry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.streams[id]
	return ok
}

// Snapshot returns the registered streams ordered by channel, then id.
func (r *StreamRegistry) Snapshot() []domain.Stream {
	r.mu.RLock()
	out := make([]domain.Stream, 0, len(r.streams))
	for _, s := range r.streams {
		out = append(out, *s)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].ChannelName != out[j].ChannelName {
			return out[i].ChannelName < out[j].ChannelName
		}
		return out[i].ID < out[j].ID
	})
	return out
}

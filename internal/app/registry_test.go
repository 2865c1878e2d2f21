package app

import (
	"fmt"
	"testing"

	"github.com/dkeye/roombridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestStreamRegistryAddHasRemove(t *testing.T) {
	r := NewStreamRegistry()
	s := domain.NewStream("stream-1", "channel-1", "handle-1")

	r.Add(s)
	assert.True(t, r.Has("stream-1"))

	r.Remove(s)
	assert.False(t, r.Has("stream-1"))
}

func TestStreamRegistryRemoveAbsentIsNoop(t *testing.T) {
	r := NewStreamRegistry()
	r.Add(domain.NewStream("kept", "channel", "handle"))

	assert.NotPanics(t, func() {
		r.Remove(domain.NewStream("missing", "channel", "handle"))
		r.Remove(domain.NewStream("missing", "channel", "handle"))
		r.Remove(nil)
	})
	assert.True(t, r.Has("kept"))
}

func TestStreamRegistrySnapshotIsSorted(t *testing.T) {
	r := NewStreamRegistry()
	r.Add(domain.NewStream("b", "room-2", "h1"))
	r.Add(domain.NewStream("a", "room-2", "h2"))
	r.Add(domain.NewStream("c", "room-1", "h3"))

	snap := r.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{snap[0].ID, snap[1].ID, snap[2].ID})
}

func TestStreamRegistryConcurrentAccess(t *testing.T) {
	r := NewStreamRegistry()

	var g errgroup.Group
	for i := range 50 {
		s := domain.NewStream(fmt.Sprintf("stream-%d", i), "channel", fmt.Sprintf("handle-%d", i))
		g.Go(func() error {
			r.Add(s)
			if !r.Has(s.ID) {
				return fmt.Errorf("stream %s missing after add", s.ID)
			}
			if i%2 == 0 {
				r.Remove(s)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, r.Snapshot(), 25)
}

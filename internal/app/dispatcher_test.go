package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dkeye/roombridge/internal/domain"
	"github.com/dkeye/roombridge/internal/job"
	"github.com/dkeye/roombridge/internal/job/mocks"
)

type fakeJob struct {
	job.Base
	run func(ctx context.Context) error
}

func (j *fakeJob) Run(ctx context.Context) error { return j.run(ctx) }

func fakeFactory(run func(ctx context.Context) error) job.Factory {
	return func(id string, data job.Data) (job.Job, error) {
		if _, err := data.String("uid"); err != nil {
			return nil, err
		}
		return &fakeJob{Base: job.NewBase(id, "fake", data), run: run}, nil
	}
}

func event(data string) domain.GatewayEvent {
	return domain.GatewayEvent{Plugin: "plugin", Event: "done", Data: json.RawMessage(data)}
}

func TestDispatcherUnknownEvent(t *testing.T) {
	d := NewDispatcher(context.Background(), 1)
	defer d.Stop()

	_, err := d.Dispatch(domain.GatewayEvent{Plugin: "plugin", Event: "other"})
	require.ErrorIs(t, err, ErrNoFactory)
}

func TestDispatcherConstructionError(t *testing.T) {
	d := NewDispatcher(context.Background(), 1)
	defer d.Stop()
	d.Register("plugin", "done", fakeFactory(func(context.Context) error { return nil }))

	_, err := d.Dispatch(event(`{}`))
	require.ErrorIs(t, err, job.ErrMissingField)

	_, err = d.Dispatch(event(`"not an object"`))
	require.Error(t, err)
}

func TestDispatcherRunsJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockJob(ctrl)
	m.EXPECT().ID().Return("job-1").AnyTimes()
	m.EXPECT().Name().Return("mock").AnyTimes()
	m.EXPECT().Context().Return(job.NewContext(nil)).AnyTimes()
	m.EXPECT().Run(gomock.Any()).Return(nil)

	var gotID string
	d := NewDispatcher(context.Background(), 2)
	d.Register("plugin", "done", func(id string, _ job.Data) (job.Job, error) {
		gotID = id
		return m, nil
	})

	j, err := d.Dispatch(event(`{"uid":"chan1"}`))
	require.NoError(t, err)
	assert.Same(t, m, j)
	assert.Len(t, gotID, 26, "job ids are ulids")

	d.Stop()
}

func TestDispatcherRunReportsFailure(t *testing.T) {
	d := NewDispatcher(context.Background(), 1)
	defer d.Stop()
	j, err := fakeFactory(func(context.Context) error { return assert.AnError })("id", job.Data{"uid": "chan1"})
	require.NoError(t, err)

	require.ErrorIs(t, d.Run(context.Background(), j), assert.AnError)
}

func TestDispatcherRunRecoversPanic(t *testing.T) {
	d := NewDispatcher(context.Background(), 1)
	defer d.Stop()
	j, err := fakeFactory(func(context.Context) error { panic("boom") })("id", job.Data{"uid": "chan1"})
	require.NoError(t, err)

	err = d.Run(context.Background(), j)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestDispatcherBoundsWorkers(t *testing.T) {
	var running, peak atomic.Int32
	var wg sync.WaitGroup
	run := func(context.Context) error {
		defer wg.Done()
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return nil
	}

	d := NewDispatcher(context.Background(), 2)
	d.Register("plugin", "done", fakeFactory(run))
	for range 6 {
		wg.Add(1)
		_, err := d.Dispatch(event(`{"uid":"chan1"}`))
		require.NoError(t, err)
	}
	wg.Wait()
	d.Stop()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestDispatcherRefusesAfterStop(t *testing.T) {
	d := NewDispatcher(context.Background(), 1)
	d.Register("plugin", "done", fakeFactory(func(context.Context) error { return nil }))
	d.Stop()
	d.Stop()

	_, err := d.Dispatch(event(`{"uid":"chan1"}`))
	require.True(t, errors.Is(err, ErrDispatcherStopped))
}

func TestDispatcherPassesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan error, 1)

	d := NewDispatcher(ctx, 1)
	d.Register("plugin", "done", fakeFactory(func(ctx context.Context) error {
		done <- ctx.Err()
		return ctx.Err()
	}))
	_, err := d.Dispatch(event(`{"uid":"chan1"}`))
	require.NoError(t, err)
	d.Stop()

	require.ErrorIs(t, <-done, context.Canceled)
}

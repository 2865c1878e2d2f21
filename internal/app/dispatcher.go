package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/dkeye/roombridge/internal/domain"
	"github.com/dkeye/roombridge/internal/job"
	"github.com/dkeye/roombridge/internal/metrics"
)

var (
	ErrNoFactory         = errors.New("no job registered for event")
	ErrDispatcherStopped = errors.New("dispatcher stopped")
)

// Dispatcher turns gateway events into jobs and runs them on a bounded pool.
// Construction errors are returned to the caller; run failures are only
// logged and counted.
type Dispatcher struct {
	ctx       context.Context
	factories map[domain.EventKey]job.Factory
	pool      *pool.Pool

	mu      sync.RWMutex
	stopped bool
}

// NewDispatcher runs jobs under ctx with at most workers running at once.
func NewDispatcher(ctx context.Context, workers int) *Dispatcher {
	p := pool.New()
	if workers > 0 {
		p = p.WithMaxGoroutines(workers)
	}
	return &Dispatcher{
		ctx:       ctx,
		factories: make(map[domain.EventKey]job.Factory),
		pool:      p,
	}
}

// Register binds a factory to a plugin event. Not safe for use once
// dispatching has started.
func (d *Dispatcher) Register(plugin, event string, f job.Factory) {
	d.factories[domain.EventKey{Plugin: plugin, Event: event}] = f
}

// Build creates the job for ev without running it.
func (d *Dispatcher) Build(ev domain.GatewayEvent) (job.Job, error) {
	f, ok := d.factories[ev.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoFactory, ev.Key())
	}
	data, err := job.ParseData(ev.Data)
	if err != nil {
		return nil, err
	}
	j, err := f(ulid.Make().String(), data)
	if err != nil {
		return nil, fmt.Errorf("build job for %s: %w", ev.Key(), err)
	}
	return j, nil
}

// Dispatch builds the job for ev and queues it. It blocks while every
// worker is busy.
func (d *Dispatcher) Dispatch(ev domain.GatewayEvent) (job.Job, error) {
	j, err := d.Build(ev)
	if err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return nil, ErrDispatcherStopped
	}
	d.pool.Go(func() { _ = d.Run(d.ctx, j) })
	log.Info().Str("module", "app.dispatcher").Str("job", j.ID()).Str("name", j.Name()).Msg("job queued")
	return j, nil
}

// Run executes j on the calling goroutine.
func (d *Dispatcher) Run(ctx context.Context, j job.Job) (err error) {
	logger := log.With().Str("module", "app.dispatcher").Str("job", j.ID()).Str("name", j.Name()).Logger()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.ID(), r)
		}
		elapsed := time.Since(start)
		if err != nil {
			metrics.RecordJobRun(j.Name(), "error", elapsed)
			logger.Error().Err(err).Object("context", j.Context()).Dur("elapsed", elapsed).Msg("job failed")
			return
		}
		metrics.RecordJobRun(j.Name(), "ok", elapsed)
		logger.Info().Dur("elapsed", elapsed).Msg("job finished")
	}()

	logger.Debug().Object("context", j.Context()).Msg("job started")
	return j.Run(ctx)
}

// Stop refuses new jobs and waits for queued ones.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.mu.Unlock()
	d.pool.Wait()
}

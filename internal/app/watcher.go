package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/dkeye/roombridge/internal/domain"
	"github.com/dkeye/roombridge/internal/job"
)

// EventSink accepts gateway events for deferred processing.
type EventSink interface {
	Dispatch(ev domain.GatewayEvent) (job.Job, error)
}

// JobWatcher feeds job files dropped into a directory to an EventSink.
// A file holds one JSON event and is removed once dispatched or rejected.
type JobWatcher struct {
	dir    string
	fs     afero.Fs
	sink   EventSink
	logger zerolog.Logger
}

func NewJobWatcher(dir string, fsys afero.Fs, sink EventSink) *JobWatcher {
	return &JobWatcher{
		dir:    dir,
		fs:     fsys,
		sink:   sink,
		logger: log.With().Str("module", "app.watcher").Str("dir", dir).Logger(),
	}
}

// Run processes files already present, then watches for new ones until ctx
// is done.
func (w *JobWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.ProcessExisting()
	w.logger.Info().Msg("watching job directory")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				w.ProcessFile(ev.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("watch error")
		}
	}
}

func (w *JobWatcher) ProcessExisting() {
	entries, err := afero.ReadDir(w.fs, w.dir)
	if err != nil {
		w.logger.Error().Err(err).Msg("list job directory")
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.ProcessFile(filepath.Join(w.dir, e.Name()))
		}
	}
}

// ProcessFile dispatches one job file. Files that are not yet complete JSON
// are left for a later write event.
func (w *JobWatcher) ProcessFile(path string) {
	if !isJobFile(path) {
		return
	}
	logger := w.logger.With().Str("file", path).Logger()

	raw, err := afero.ReadFile(w.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("read job file")
		return
	}
	var ev domain.GatewayEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		logger.Debug().Err(err).Msg("job file incomplete")
		return
	}

	j, err := w.sink.Dispatch(ev)
	if errors.Is(err, ErrDispatcherStopped) {
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("event", ev.Key().String()).Msg("job rejected")
	} else {
		logger.Info().Str("job", j.ID()).Str("event", ev.Key().String()).Msg("job file dispatched")
	}
	if err := w.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error().Err(err).Msg("remove job file")
	}
}

func isJobFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, ".json") && !strings.HasPrefix(base, ".")
}

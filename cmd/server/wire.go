package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"

	"github.com/dkeye/roombridge/internal/adapters/cm"
	"github.com/dkeye/roombridge/internal/adapters/script"
	"github.com/dkeye/roombridge/internal/adapters/ws"
	"github.com/dkeye/roombridge/internal/app"
	"github.com/dkeye/roombridge/internal/config"
	"github.com/dkeye/roombridge/internal/janus"
	"github.com/dkeye/roombridge/internal/job"
	"github.com/dkeye/roombridge/internal/metrics"
)

type bridgeApp struct {
	fs         afero.Fs
	streams    *app.StreamRegistry
	dispatcher *app.Dispatcher
	bridge     *ws.Bridge
	registry   *prometheus.Registry
}

func wireApp(ctx context.Context, cfg *config.Config) (*bridgeApp, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.Register(reg)

	fs := afero.NewOsFs()
	if err := fs.MkdirAll(cfg.Jobs.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create job temp dir: %w", err)
	}

	importCmd, err := job.ParseCommandTemplate(cfg.CM.ImportCommand, cm.ImportPlaceholders...)
	if err != nil {
		return nil, fmt.Errorf("cm.import_command: %w", err)
	}
	convertCmd, err := job.ParseCommandTemplate(cfg.Jobs.ConvertCommand, job.ConvertPlaceholders...)
	if err != nil {
		return nil, fmt.Errorf("jobs.convert_command: %w", err)
	}

	runner := script.NewRunner("")
	dispatcher := app.NewDispatcher(ctx, cfg.Jobs.Workers)
	dispatcher.Register(job.AudioroomRecordingPlugin, job.AudioroomRecordingEvent, job.AudioroomRecordingFactory(job.AudioroomRecordingDeps{
		Runner:         runner,
		Importer:       cm.NewApplication(runner, importCmd),
		Workspace:      job.Workspace{Fs: fs, TempDir: cfg.Jobs.TempDir},
		ConvertCommand: convertCmd,
	}))

	streams := app.NewStreamRegistry()
	channels := cm.NewClient(cfg.CM.BaseURL, cfg.CM.Timeout)
	bridge := ws.NewBridge(ws.Options{
		GatewayURL:  cfg.Janus.URL,
		Subprotocol: cfg.Janus.Subprotocol,
		ReadLimit:   cfg.Janus.ReadLimit,
		PingPeriod:  cfg.Janus.PingPeriod,
		Connection: janus.ConnectionOptions{
			Plugins: map[string]janus.PluginFactory{
				janus.AudioroomPluginName: janus.AudioPluginFactory(janus.AudioDeps{
					Streams:  streams,
					Channels: channels,
					Timeout:  cfg.Janus.TransactionTimeout,
					Now:      time.Now,
				}),
			},
			TransactionTTL: cfg.Janus.TransactionTTL,
			RequestTimeout: cfg.Janus.TransactionTimeout,
		},
		CloseTimeout: cfg.CM.Timeout * 2,
	})

	return &bridgeApp{
		fs:         fs,
		streams:    streams,
		dispatcher: dispatcher,
		bridge:     bridge,
		registry:   reg,
	}, nil
}

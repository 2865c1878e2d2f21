package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/roombridge/internal/adapters/http"
	"github.com/dkeye/roombridge/internal/app"
	"github.com/dkeye/roombridge/internal/config"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway bridge and the job dispatcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	a, err := wireApp(ctx, cfg)
	if err != nil {
		return err
	}

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Janus:    a.bridge,
		Events:   a.dispatcher,
		Streams:  a.streams,
		Gatherer: a.registry,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("roombridge server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.Jobs.Dir != "" {
		if err := a.fs.MkdirAll(cfg.Jobs.Dir, 0o755); err != nil {
			return fmt.Errorf("create job dir: %w", err)
		}
		watcher := app.NewJobWatcher(cfg.Jobs.Dir, a.fs, a.dispatcher)
		g.Go(func() error { return watcher.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		return nil
	})

	err = g.Wait()
	a.bridge.Wait()
	a.dispatcher.Stop()
	if err != nil {
		log.Error().Err(err).Msg("server error")
		return err
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}

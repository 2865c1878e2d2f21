package main

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/dkeye/roombridge/internal/config"
	"github.com/dkeye/roombridge/internal/domain"
)

func newRunJobCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run-job <event-file>",
		Short: "Run the job for one event file synchronously",
		Long: `Reads a JSON event {"plugin", "event", "data"} and runs the job it maps to
in the foreground. The exit code reports whether the job succeeded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wireApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			raw, err := afero.ReadFile(a.fs, args[0])
			if err != nil {
				return fmt.Errorf("read event file: %w", err)
			}
			var ev domain.GatewayEvent
			if err := json.Unmarshal(raw, &ev); err != nil {
				return fmt.Errorf("decode event file: %w", err)
			}

			j, err := a.dispatcher.Build(ev)
			if err != nil {
				return err
			}
			log.Info().Str("job", j.ID()).Str("name", j.Name()).Msg("running job")
			return a.dispatcher.Run(cmd.Context(), j)
		},
	}
}

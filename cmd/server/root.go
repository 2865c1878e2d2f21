package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dkeye/roombridge/internal/config"
)

func newRootCmd() *cobra.Command {
	var cfgFile string
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:          "roombridge",
		Short:        "Bridge between Janus gateway clients and the conferencing backend",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			*cfg = *loaded
			setupLogger(cfg.Mode)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default config/config.$CONFIG_ENV.yaml)")

	rootCmd.AddCommand(
		newServeCmd(cfg),
		newRunJobCmd(cfg),
	)
	return rootCmd
}

func setupLogger(mode string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if mode == "debug" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

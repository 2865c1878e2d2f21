package cm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/roombridge/internal/job"
)

// Placeholders accepted by the import command.
var ImportPlaceholders = []string{"channelId", "file"}

// Application imports finished archives by running the backend's import
// command.
type Application struct {
	runner  job.ScriptRunner
	command *job.CommandTemplate
}

var _ job.ArchiveImporter = (*Application)(nil)

func NewApplication(runner job.ScriptRunner, command *job.CommandTemplate) *Application {
	return &Application{runner: runner, command: command}
}

func (a *Application) ImportMediaStreamArchive(ctx context.Context, channelID, file string, jc *job.Context) error {
	argv, err := a.command.Render(map[string]string{"channelId": channelID, "file": file})
	if err != nil {
		return fmt.Errorf("build import command: %w", err)
	}
	log.Info().
		Str("module", "adapters.cm").
		Str("channel", channelID).
		Str("file", file).
		Object("context", jc).
		Msg("importing media stream archive")
	if err := a.runner.Run(ctx, argv); err != nil {
		return fmt.Errorf("import %s: %w", file, err)
	}
	return nil
}

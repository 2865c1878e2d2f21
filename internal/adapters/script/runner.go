package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/roombridge/internal/job"
)

// ExitError reports a command that ran and exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %s", e.Command, e.ExitCode, e.Output)
}

// Runner executes job commands on the local host.
type Runner struct {
	// Dir is the working directory of every command. Empty means the
	// process's own.
	Dir string
	// MaxOutput caps the captured combined output kept for errors and logs.
	MaxOutput int
}

var _ job.ScriptRunner = (*Runner)(nil)

func NewRunner(dir string) *Runner {
	return &Runner{Dir: dir, MaxOutput: 4096}
}

func (r *Runner) Run(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return job.ErrEmptyCommand
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	logger := log.With().Str("module", "adapters.script").Str("command", argv[0]).Logger()
	logger.Debug().Strs("argv", argv).Msg("running command")

	err := cmd.Run()
	output := r.trim(out.String())
	if err == nil {
		logger.Debug().Str("output", output).Msg("command finished")
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		logger.Warn().Int("exit_code", exitErr.ExitCode()).Str("output", output).Msg("command failed")
		return &ExitError{Command: argv[0], ExitCode: exitErr.ExitCode(), Output: output}
	}
	if ctx.Err() != nil {
		return fmt.Errorf("run %s: %w", argv[0], ctx.Err())
	}
	return fmt.Errorf("run %s: %w", argv[0], err)
}

func (r *Runner) trim(s string) string {
	s = strings.TrimSpace(s)
	if r.MaxOutput > 0 && len(s) > r.MaxOutput {
		return s[len(s)-r.MaxOutput:]
	}
	return s
}

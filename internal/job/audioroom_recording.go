package job

import (
	"context"
	"fmt"
	"maps"

	"github.com/rs/zerolog/log"
)

// The audioroom plugin emits this event when a room recording is complete.
const (
	AudioroomRecordingPlugin = "janus.plugin.cm.audioroom"
	AudioroomRecordingEvent  = "archive-finished"
	AudioroomRecordingName   = "audioroom-recording"
)

// Placeholders accepted by the convert command.
var ConvertPlaceholders = []string{"wavFile", "mp3File"}

type AudioroomRecordingDeps struct {
	Runner    ScriptRunner
	Importer  ArchiveImporter
	Workspace Workspace
	// ConvertCommand turns {wavFile} into {mp3File}.
	ConvertCommand *CommandTemplate
}

// AudioroomRecordingJob converts a finished room recording to mp3, imports
// it for the room's channel and removes the source recording.
type AudioroomRecordingJob struct {
	Base
	deps      AudioroomRecordingDeps
	wavFile   string
	channelID string
}

func NewAudioroomRecordingJob(id string, data Data, deps AudioroomRecordingDeps) (*AudioroomRecordingJob, error) {
	wav, err := data.String("audio")
	if err != nil {
		return nil, err
	}
	uid, err := data.String("uid")
	if err != nil {
		return nil, err
	}
	j := &AudioroomRecordingJob{
		Base:      NewBase(id, AudioroomRecordingName, data),
		deps:      deps,
		wavFile:   wav,
		channelID: uid,
	}
	j.ctx = j.ctx.Extend(map[string]any{"channelId": uid, "jobData": map[string]any(maps.Clone(data))})
	return j, nil
}

func AudioroomRecordingFactory(deps AudioroomRecordingDeps) Factory {
	return func(id string, data Data) (Job, error) {
		return NewAudioroomRecordingJob(id, data, deps)
	}
}

// Run fails when conversion or import fails. Removing the source recording
// is attempted once conversion succeeded, whatever the import outcome, and
// its failure is only logged.
func (j *AudioroomRecordingJob) Run(ctx context.Context) error {
	mp3File, err := j.deps.Workspace.Allocate(j.ID(), "mp3")
	if err != nil {
		return err
	}
	if err := j.convert(ctx, mp3File); err != nil {
		j.discard(mp3File)
		return err
	}

	importErr := j.deps.Importer.ImportMediaStreamArchive(ctx, j.channelID, mp3File, j.Context())
	if err := j.deps.Workspace.Remove(j.wavFile); err != nil {
		log.Error().
			Err(err).
			Str("module", "job.audioroom").
			Object("context", j.Context().Extend(map[string]any{"exception": err.Error()})).
			Msg("removing wave file failed")
	}
	if importErr != nil {
		return fmt.Errorf("import archive for channel %s: %w", j.channelID, importErr)
	}
	return nil
}

func (j *AudioroomRecordingJob) convert(ctx context.Context, mp3File string) error {
	argv, err := j.deps.ConvertCommand.Render(map[string]string{
		"wavFile": j.wavFile,
		"mp3File": mp3File,
	})
	if err != nil {
		return fmt.Errorf("build convert command: %w", err)
	}
	if err := j.deps.Runner.Run(ctx, argv); err != nil {
		return fmt.Errorf("convert %s: %w", j.wavFile, err)
	}
	return nil
}

// discard removes the unused mp3 placeholder after a failed conversion.
func (j *AudioroomRecordingJob) discard(mp3File string) {
	if err := j.deps.Workspace.Remove(mp3File); err != nil {
		log.Warn().Err(err).Str("module", "job.audioroom").Str("file", mp3File).Object("context", j.Context()).Msg("removing temp file failed")
	}
}

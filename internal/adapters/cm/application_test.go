package cm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dkeye/roombridge/internal/job"
	"github.com/dkeye/roombridge/internal/job/mocks"
)

func TestApplicationImport(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockScriptRunner(ctrl)
	command, err := job.ParseCommandTemplate("cm-import --channel={channelId} {file}", ImportPlaceholders...)
	require.NoError(t, err)

	runner.EXPECT().Run(gomock.Any(), []string{"cm-import", "--channel=chan1", "/tmp/a.mp3"}).Return(nil)

	app := NewApplication(runner, command)
	jc := job.NewContext(map[string]any{"jobId": "1"})
	require.NoError(t, app.ImportMediaStreamArchive(context.Background(), "chan1", "/tmp/a.mp3", jc))
}

func TestApplicationImportFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockScriptRunner(ctrl)
	command, err := job.ParseCommandTemplate("cm-import {channelId} {file}", ImportPlaceholders...)
	require.NoError(t, err)

	runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(context.DeadlineExceeded)

	err = NewApplication(runner, command).ImportMediaStreamArchive(context.Background(), "chan1", "a.mp3", job.NewContext(nil))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

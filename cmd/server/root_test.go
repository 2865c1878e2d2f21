package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/roombridge/internal/app"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "run-job"}, names)
}

func runJobCmd(t *testing.T, eventFile string) error {
	t.Helper()
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("jobs:\n  temp_dir: "+filepath.Join(dir, "tmp")+"\n"), 0o644))

	root := newRootCmd()
	root.SetArgs([]string{"run-job", "--config", cfgFile, eventFile})
	root.SilenceErrors = true
	return root.Execute()
}

func TestRunJobUnknownEvent(t *testing.T) {
	eventFile := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(eventFile, []byte(`{"plugin":"janus.plugin.other","event":"done","data":{}}`), 0o644))

	require.ErrorIs(t, runJobCmd(t, eventFile), app.ErrNoFactory)
}

func TestRunJobMissingFile(t *testing.T) {
	err := runJobCmd(t, filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

package cmd

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/procd/internal/background"
	"github.com/joescharf/procd/internal/console"
	"github.com/joescharf/procd/internal/models"
	"github.com/joescharf/procd/internal/store"
)

// runCommand parses args and runs cmd's PreRunE and RunE directly, skipping
// cobra.OnInitialize so the test UI and viper settings stay in place.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetContext(context.Background())
	require.NoError(t, cmd.ParseFlags(args))
	pos := cmd.Flags().Args()
	if cmd.Args != nil {
		if err := cmd.Args(cmd, pos); err != nil {
			return err
		}
	}
	if cmd.PreRunE != nil {
		if err := cmd.PreRunE(cmd, pos); err != nil {
			return err
		}
	}
	return cmd.RunE(cmd, pos)
}

func journaledRuns(t *testing.T, command string) []*models.Run {
	t.Helper()
	s, err := getStore()
	require.NoError(t, err)
	runs, err := s.ListRuns(context.Background(), store.RunListFilter{Command: command})
	require.NoError(t, err)
	return runs
}

func TestBackground_ExitCodeAfterMaxIterations(t *testing.T) {
	_, buf := testEnv(t)

	err := runCommand(t, newBackgroundCmd(), "--max-iterations", "3", "--exit-code", "4")
	require.Error(t, err)
	assert.Equal(t, 4, console.CodeOf(err))

	out := buf.String()
	assert.Contains(t, out, "Heartbeat 1")
	assert.Contains(t, out, "Heartbeat 3")
	assert.NotContains(t, out, "Heartbeat 4")
	assert.Contains(t, out, "Stopped after 3 iterations.")
}

func TestBackground_ShutdownWithoutExitCode(t *testing.T) {
	testEnv(t)

	err := runCommand(t, newBackgroundCmd(), "--max-iterations", "2")
	require.NoError(t, err)

	runs := journaledRuns(t, "background")
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunModeForeground, runs[0].Mode)
	assert.Equal(t, 2, runs[0].Iterations)
	assert.Equal(t, "shutdown", runs[0].Reason)
	assert.False(t, runs[0].Running())
}

func TestBackground_JournalDisabled(t *testing.T) {
	testEnv(t)
	viper.Set("journal.enabled", false)

	require.NoError(t, runCommand(t, newBackgroundCmd(), "--max-iterations", "1"))
	assert.Nil(t, dataStore, "store is never opened")
}

func TestBackground_RejectsArgs(t *testing.T) {
	testEnv(t)
	err := runCommand(t, newBackgroundCmd(), "extra")
	assert.Error(t, err)
}

func TestBackground_ProcessingDelayFromConfig(t *testing.T) {
	testEnv(t)
	viper.Set("processing_delay", "2ms")

	cmd := newBackgroundCmd()
	require.NoError(t, runCommand(t, cmd, "--max-iterations", "1"))
}

func TestBackground_RejectsNegativeDelay(t *testing.T) {
	_, buf := testEnv(t)
	viper.Set("processing_delay", "-10ms")

	err := runCommand(t, newBackgroundCmd(), "--max-iterations", "1")
	require.ErrorIs(t, err, errInvalidConfig)
	assert.NotContains(t, buf.String(), "Heartbeat", "the loop never starts")
	assert.Nil(t, dataStore)
}

func TestBackground_MetricsServerLifecycle(t *testing.T) {
	_, buf := testEnv(t)
	viper.Set("metrics.addr", "127.0.0.1:0")
	ui.Verbose = true

	require.NoError(t, runCommand(t, newBackgroundCmd(), "--max-iterations", "1"))
	assert.Contains(t, buf.String(), "Metrics server listening on 127.0.0.1:")
}

func TestHeartbeat_InvalidOption(t *testing.T) {
	testEnv(t)

	work := heartbeat(background.New("invalid"))
	_, err := work(context.Background(), console.MapInput{Options: map[string]string{optMaxIterations: "many"}}, ui)
	assert.Error(t, err)
}

package background

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/procd/internal/console"
	"github.com/joescharf/procd/internal/output"
)

type recordingObserver struct {
	events []string
}

func (o *recordingObserver) RunStarted(name string) {
	o.events = append(o.events, "started:"+name)
}

func (o *recordingObserver) IterationFinished(_ string, code int, _ time.Duration) {
	o.events = append(o.events, fmt.Sprintf("iteration:%d", code))
}

func (o *recordingObserver) SignalReceived(_ string, sig os.Signal) {
	o.events = append(o.events, "signal:"+sig.String())
}

func (o *recordingObserver) RunStopped(_ string, reason StopReason, code, iterations int, err error) {
	o.events = append(o.events, fmt.Sprintf("stopped:%s:%d:%d:%v", reason, code, iterations, err != nil))
}

func TestObserver_ExitCodeRun(t *testing.T) {
	obs := &recordingObserver{}
	h := newHarness(t, WithObserver(obs))
	h.r.Configure(h.sequence(0, 4))

	_, err := h.run(t)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"started:test",
		"iteration:0",
		"iteration:4",
		"stopped:exit-code:4:2:false",
	}, obs.events)
}

func TestObserver_SignalRun(t *testing.T) {
	obs := &recordingObserver{}
	h := newHarness(t)
	h.r.AddObserver(obs)
	h.r.Configure(func(context.Context, console.Input, *output.UI) (int, error) {
		h.ch <- syscall.SIGTERM
		return 0, nil
	})

	_, err := h.run(t)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"started:test",
		"iteration:0",
		"signal:terminated",
		"stopped:signal:0:1:false",
	}, obs.events)
}

func TestObserver_ErrorRun(t *testing.T) {
	obs := &recordingObserver{}
	h := newHarness(t, WithObserver(obs), WithObserver(nil))
	h.r.Configure(func(context.Context, console.Input, *output.UI) (int, error) {
		return 0, errors.New("boom")
	})

	_, err := h.run(t)
	require.Error(t, err)
	assert.Equal(t, "stopped:error:0:1:true", obs.events[len(obs.events)-1])
}

func TestNewCommand_PropagatesExitCode(t *testing.T) {
	h := newHarness(t)
	h.r.Configure(h.sequence(0, 3))

	cmd := NewCommand(h.r, "test loop", output.Discard)
	cmd.SetArgs([]string{})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, 3, console.CodeOf(err))
	assert.Equal(t, "test", cmd.Use)
}

func TestNewCommand_ZeroCodeIsSuccess(t *testing.T) {
	h := newHarness(t)
	h.r.Configure(func(context.Context, console.Input, *output.UI) (int, error) {
		h.r.Shutdown()
		return 0, nil
	})

	cmd := NewCommand(h.r, "test loop", output.Discard)
	cmd.SetArgs([]string{})
	assert.NoError(t, cmd.Execute())
}

func TestNewCommand_RejectsArgs(t *testing.T) {
	cmd := NewCommand(New("test"), "test loop", output.Discard)
	cmd.SetArgs([]string{"extra"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	assert.Error(t, cmd.Execute())
}

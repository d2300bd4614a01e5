package console

import (
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP("pid-file", "p", "", "")
	fs.BoolP("daemonize", "d", false, "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestCommandInput_ArgsAndFlags(t *testing.T) {
	fs := newFlagSet(t, "-p", "/tmp/x.pid", "-d", "start")
	in := NewCommandInput(fs, []string{"action"}, fs.Args())

	assert.Equal(t, "start", in.Argument("action"))
	assert.Equal(t, "/tmp/x.pid", in.Option("pid-file"))
	assert.True(t, in.Flag("daemonize"))
	assert.Equal(t, "", in.Option("unknown"))
	assert.False(t, in.Flag("unknown"))
}

func TestCommandInput_MissingArgument(t *testing.T) {
	in := NewCommandInput(nil, []string{"action"}, nil)
	assert.Equal(t, "", in.Argument("action"))
}

func TestCommandInput_CloneIsIndependent(t *testing.T) {
	fs := newFlagSet(t, "status")
	in := NewCommandInput(fs, []string{"action"}, fs.Args())

	clone := in.Clone().(*CommandInput)
	clone.args["action"] = "stop"

	assert.Equal(t, "status", in.Argument("action"))
	assert.Equal(t, "stop", clone.Argument("action"))
}

func TestMapInput(t *testing.T) {
	in := MapInput{
		Args:    map[string]string{"action": "start"},
		Options: map[string]string{"pid-file": "a.pid"},
		Flags:   map[string]bool{"daemonize": true},
	}
	assert.Equal(t, "start", in.Argument("action"))
	assert.Equal(t, "a.pid", in.Option("pid-file"))
	assert.True(t, in.Flag("daemonize"))

	clone := in.Clone().(MapInput)
	clone.Args["action"] = "stop"
	assert.Equal(t, "start", in.Argument("action"))
}

func TestMapInput_NilMaps(t *testing.T) {
	var in MapInput
	assert.Equal(t, "", in.Argument("action"))
	assert.False(t, in.Flag("daemonize"))
	assert.NotNil(t, in.Clone())
}

func TestExitCode(t *testing.T) {
	assert.NoError(t, ExitCode(0))
	assert.NoError(t, ExitCode(-1), "negative codes don't become exit status 255")

	err := ExitCode(3)
	require.Error(t, err)
	assert.Equal(t, 3, CodeOf(err))
	assert.Equal(t, "exit status 3", err.Error())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, 0, CodeOf(nil))
	assert.Equal(t, 1, CodeOf(errors.New("boom")))
	assert.Equal(t, 5, CodeOf(fmt.Errorf("wrapped: %w", &ExitError{Code: 5})))
}

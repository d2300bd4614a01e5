//go:build !windows

package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/joescharf/procd/internal/background"
	"github.com/joescharf/procd/internal/console"
	"github.com/joescharf/procd/internal/output"
)

const (
	helperEnv  = "PROCD_TEST_DAEMON_HELPER"
	sessionEnv = "PROCD_TEST_SESSION_FILE"
)

// TestMain lets the test binary double as the daemon: execSpawner re-runs
// os.Executable, and the re-executed copy takes the helper branch instead
// of running the tests again.
func TestMain(m *testing.M) {
	if os.Getenv(helperEnv) == "1" && os.Getenv(ChildEnv) == "1" {
		os.Exit(runDaemonHelper())
	}
	os.Exit(m.Run())
}

// runDaemonHelper is the detached child. On its first iteration it records
// its PID and session ID, then loops until SIGTERM.
func runDaemonHelper() int {
	sessionFile := os.Getenv(sessionEnv)
	recorded := false
	r := background.New("helper", background.WithDelay(10*time.Millisecond))
	r.Configure(func(context.Context, console.Input, *output.UI) (int, error) {
		if recorded {
			return 0, nil
		}
		sid, err := unix.Getsid(0)
		if err != nil {
			return 0, err
		}
		recorded = true
		return 0, writeFileAtomic(sessionFile, fmt.Sprintf("%d %d\n", os.Getpid(), sid))
	})

	in := console.MapInput{
		Args:  map[string]string{ArgAction: Start.String()},
		Flags: map[string]bool{OptDaemonize: true},
	}
	code, err := New(r).Execute(context.Background(), in, output.Discard())
	if err != nil {
		return 1
	}
	return code
}

func writeFileAtomic(path, content string) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// reap waits for pid. The test binary is the child's real parent, so an
// exited child stays a zombie, and still answers the zero signal, until
// it is waited for.
func reap(pid int) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		var ws unix.WaitStatus
		for {
			_, err := unix.Wait4(pid, &ws, 0, nil)
			if !errors.Is(err, unix.EINTR) {
				return
			}
		}
	}()
	return done
}

func TestExecSpawner_StartAndStop(t *testing.T) {
	dir := t.TempDir()
	sessionFile := filepath.Join(dir, "session")
	pidPath := filepath.Join(dir, "helper.pid")
	t.Setenv(helperEnv, "1")
	t.Setenv(sessionEnv, sessionFile)

	ctrl := New(background.New("helper"), WithPollInterval(10*time.Millisecond))
	opts := map[string]string{OptPIDFile: pidPath}

	code, err := ctrl.Execute(context.Background(), console.MapInput{
		Args:    map[string]string{ArgAction: Start.String()},
		Options: opts,
		Flags:   map[string]bool{OptDaemonize: true},
	}, output.Discard())
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	require.Eventually(t, func() bool {
		_, err := os.Stat(sessionFile)
		return err == nil
	}, 10*time.Second, 10*time.Millisecond, "child never started its loop")

	data, err := os.ReadFile(sessionFile)
	require.NoError(t, err)
	var childPID, sid int
	_, err = fmt.Sscanf(string(data), "%d %d", &childPID, &sid)
	require.NoError(t, err)

	reaped := reap(childPID)
	t.Cleanup(func() {
		select {
		case <-reaped:
		default:
			_ = unix.Kill(childPID, unix.SIGKILL)
			<-reaped
		}
	})

	assert.NotEqual(t, os.Getpid(), childPID)
	assert.Equal(t, childPID, sid, "child leads its own session")

	pid, err := NewPIDFile(pidPath).Read()
	require.NoError(t, err)
	assert.Equal(t, childPID, pid)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	code, err = ctrl.Execute(ctx, console.MapInput{
		Args:    map[string]string{ArgAction: Stop.String()},
		Options: opts,
	}, output.Discard())
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	select {
	case <-reaped:
	case <-time.After(10 * time.Second):
		t.Fatal("child did not exit after stop")
	}
	_, err = os.Stat(pidPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

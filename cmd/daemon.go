package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joescharf/procd/internal/background"
	"github.com/joescharf/procd/internal/console"
	"github.com/joescharf/procd/internal/daemon"
	"github.com/joescharf/procd/internal/models"
	"github.com/joescharf/procd/internal/output"
)

func init() {
	rootCmd.AddCommand(newDaemonCmd(daemon.New))
}

// newDaemonCmd builds the daemon command around a controller made by
// newController, so tests can inject process primitives.
func newDaemonCmd(newController func(*background.Runner, ...daemon.Option) *daemon.Controller) *cobra.Command {
	var obs *observability

	r := background.New("daemon")
	r.Configure(heartbeat(r))
	r.SetHooks(loopHooks(r, func() *observability { return obs }))

	ctrl := newController(r)
	ctrl.SetHooks(daemon.Hooks{
		BeforeDaemonize: func(_ console.Input, out *output.UI) {
			out.Info("Detaching %s from the terminal.", r.Name())
		},
		AfterDaemonizeParent: func(_ console.Input, out *output.UI) {
			out.Success("Daemon started in the background.")
		},
		AfterDaemonizeChild: func(_ console.Input, out *output.UI) {
			if obs != nil {
				obs.detached(out)
			}
			out.VerboseLog("Daemon child running detached.")
		},
	})

	cmd := daemon.NewCommand(ctrl, "Run the heartbeat loop as a daemon", currentUI)
	cmd.Long = `Start, stop or inspect the heartbeat daemon.

  start         run the loop in the foreground
  start -d      detach into a new session and track it in a PID file
  stop          send SIGTERM to the PID in the PID file and wait for exit
  status        report whether the PID in the PID file is alive

The PID file defaults to ./daemon.pid. Detached output is discarded unless
--child-log names a file.`
	addHeartbeatFlags(cmd)

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		// Invalid actions are reported by the controller. Each action only
		// needs its own timing to be valid.
		action, err := daemon.ParseAction(args[0])
		if err != nil {
			return nil
		}
		switch action {
		case daemon.Stop:
			poll, err := stopPollInterval()
			if err != nil {
				return err
			}
			ctrl.SetPollInterval(poll)
			return nil
		case daemon.Status:
			return nil
		}

		delay, err := processingDelay()
		if err != nil {
			return err
		}
		r.Configure(nil, delay)
		mode := models.RunModeForeground
		if daemonize, _ := cmd.Flags().GetBool(daemon.OptDaemonize); daemonize {
			mode = models.RunModeDaemon
		}
		obs = attachObservers(r, mode, currentUI())
		return nil
	}
	closeAfterRun(cmd, func() {
		if obs != nil {
			obs.close()
		}
	})
	return cmd
}

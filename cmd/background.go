package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joescharf/procd/internal/background"
	"github.com/joescharf/procd/internal/console"
	"github.com/joescharf/procd/internal/models"
	"github.com/joescharf/procd/internal/output"
)

const (
	optMaxIterations = "max-iterations"
	optExitCode      = "exit-code"
)

func init() {
	rootCmd.AddCommand(newBackgroundCmd())
}

func newBackgroundCmd() *cobra.Command {
	var obs *observability

	r := background.New("background")
	r.Configure(heartbeat(r))
	r.SetHooks(loopHooks(r, func() *observability { return obs }))

	cmd := background.NewCommand(r, "Run a heartbeat loop in the foreground until interrupted", currentUI)
	cmd.Long = `Run a heartbeat loop in the foreground.

Each iteration prints a heartbeat and waits processing_delay before the next
one. The loop stops on SIGTERM or SIGINT, or after --max-iterations, in which
case the command exits with --exit-code.`
	addHeartbeatFlags(cmd)

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		delay, err := processingDelay()
		if err != nil {
			return err
		}
		r.Configure(nil, delay)
		obs = attachObservers(r, models.RunModeForeground, currentUI())
		return nil
	}
	closeAfterRun(cmd, func() {
		if obs != nil {
			obs.close()
		}
	})
	return cmd
}

func addHeartbeatFlags(cmd *cobra.Command) {
	cmd.Flags().Int(optMaxIterations, 0, "Stop after this many iterations (0 runs until interrupted)")
	cmd.Flags().Int(optExitCode, 0, "Exit code to finish with once --max-iterations is reached")
}

// heartbeat prints one line per iteration. When --max-iterations is reached
// it returns --exit-code if positive, or shuts the runner down otherwise.
func heartbeat(r *background.Runner) background.WorkFunc {
	return func(_ context.Context, in console.Input, out *output.UI) (int, error) {
		n := r.Iterations() + 1
		out.Println("Heartbeat %d", n)

		limit, err := intOption(in, optMaxIterations)
		if err != nil {
			return 0, err
		}
		if limit <= 0 || n < limit {
			return 0, nil
		}

		code, err := intOption(in, optExitCode)
		if err != nil {
			return 0, err
		}
		if code > 0 {
			return code, nil
		}
		r.Shutdown()
		return 0, nil
	}
}

func intOption(in console.Input, name string) (int, error) {
	v := in.Option(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s %q: %w", name, v, err)
	}
	return n, nil
}

package daemon

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/procd/internal/console"
	"github.com/joescharf/procd/internal/output"
)

// NewCommand binds c as a cobra command taking the action argument and the
// --pid-file, --daemonize and --child-log options. ui is resolved at
// execution time.
func NewCommand(c *Controller, short string, ui func() *output.UI) *cobra.Command {
	cmd := &cobra.Command{
		Use:       c.runner.Name() + " <" + strings.Join(Actions, "|") + ">",
		Short:     short,
		Args:      cobra.ExactArgs(1),
		ValidArgs: Actions,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := console.NewCommandInput(cmd.Flags(), []string{ArgAction}, args)
			code, err := c.Execute(cmd.Context(), in, ui())
			if err != nil {
				return err
			}
			return console.ExitCode(code)
		},
	}

	cmd.Flags().StringP(OptPIDFile, "p", "", "PID file location (default <cwd>/<command>.pid)")
	cmd.Flags().BoolP(OptDaemonize, "d", false, "Run in the background and detach")
	cmd.Flags().StringP(OptChildLog, "o", "", "Write detached child output to this file instead of discarding it")
	return cmd
}

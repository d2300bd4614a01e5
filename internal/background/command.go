package background

import (
	"github.com/spf13/cobra"

	"github.com/joescharf/procd/internal/console"
	"github.com/joescharf/procd/internal/output"
)

// NewCommand binds r as the body of a cobra command named after the runner.
// ui is called at execution time so it can return a UI built during
// cobra.OnInitialize. A positive loop exit code is returned as a
// *console.ExitError.
func NewCommand(r *Runner, short string, ui func() *output.UI) *cobra.Command {
	return &cobra.Command{
		Use:   r.Name(),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := console.NewCommandInput(cmd.Flags(), nil, args)
			code, err := r.Run(cmd.Context(), in, ui())
			if err != nil {
				return err
			}
			return console.ExitCode(code)
		},
	}
}

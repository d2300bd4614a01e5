package cmd

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/joescharf/procd/internal/models"
	"github.com/joescharf/procd/internal/output"
	"github.com/joescharf/procd/internal/store"
)

var (
	historyLimit   int
	historyCommand string
	historyPrune   time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded runs from the journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyRun()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Maximum number of runs to show (0 for all)")
	historyCmd.Flags().StringVarP(&historyCommand, "command", "c", "", "Only show runs of this command")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "Delete finished runs older than this before listing (e.g. 720h)")
	rootCmd.AddCommand(historyCmd)
}

func historyRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if historyPrune > 0 {
		n, err := s.DeleteRunsBefore(ctx, time.Now().Add(-historyPrune))
		if err != nil {
			return err
		}
		ui.Success("Pruned %d runs older than %s", n, historyPrune)
	}

	runs, err := s.ListRuns(ctx, store.RunListFilter{Command: historyCommand, Limit: historyLimit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		ui.Info("No runs recorded.")
		return nil
	}

	now := time.Now()
	table := ui.Table([]string{"ID", "Command", "Mode", "PID", "Started", "Duration", "Iterations", "Exit", "State"})
	for _, r := range runs {
		_ = table.Append([]string{
			r.ID,
			r.Command,
			string(r.Mode),
			strconv.Itoa(r.PID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Duration(now).Truncate(time.Second).String(),
			strconv.Itoa(r.Iterations),
			strconv.Itoa(r.ExitCode),
			runState(r),
		})
	}
	return table.Render()
}

func runState(r *models.Run) string {
	if r.Running() {
		return output.StateColor("running")
	}
	state := r.Reason
	if state == "" {
		state = "stopped"
	}
	if r.Error != "" {
		return output.Red(state + ": " + r.Error)
	}
	return state
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pixel-basket/internal/database"
	"pixel-basket/internal/indexer"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Inspect and rerun queued scan tasks",
}

var taskRerunCmd = &cobra.Command{
	Use:   "rerun",
	Short: "Scan every pending task",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")
		failed, _ := cmd.Flags().GetBool("failed")
		progress := newProgressLine(os.Stderr, quiet)

		return withApp(cmd, progress.Handle, func(ctx context.Context, a *app) error {
			var (
				j   *indexer.Job
				err error
			)
			if failed {
				var n int64
				n, j, err = a.svc.RetryFailedTasks(ctx)
				if err == nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Reset %d failed tasks\n", n)
				}
			} else {
				j, err = a.svc.RerunPendingTasks(ctx)
			}
			if err != nil {
				return err
			}
			s, err := waitJob(ctx, a, j)
			if err != nil {
				return err
			}
			if quiet {
				fmt.Fprintln(cmd.OutOrStdout(), formatSummary(s))
			}
			return nil
		})
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending or failed tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		failed, _ := cmd.Flags().GetBool("failed")

		return withApp(cmd, nil, func(ctx context.Context, a *app) error {
			var (
				tasks []database.Task
				err   error
			)
			if failed {
				tasks, err = a.svc.FailedTasks(ctx)
			} else {
				tasks, err = a.svc.PendingTasks(ctx)
			}
			if err != nil {
				return err
			}
			if asJSON(cmd) {
				return printJSON(cmd, tasks)
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks.")
				return nil
			}
			for _, t := range tasks {
				line := fmt.Sprintf("%-20d %d  %s", t.ID, t.Attempts, t.Path)
				if t.LastError != "" {
					line += "  (" + t.LastError + ")"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		})
	},
}

func init() {
	taskRerunCmd.Flags().BoolP("quiet", "q", false, "Print only the final summary")
	taskRerunCmd.Flags().Bool("failed", false, "Reset failed tasks to pending first")
	taskListCmd.Flags().Bool("failed", false, "List tasks that exhausted their attempts")

	taskCmd.AddCommand(taskRerunCmd)
	taskCmd.AddCommand(taskListCmd)
}

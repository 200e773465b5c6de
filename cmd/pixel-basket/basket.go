package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var basketCmd = &cobra.Command{
	Use:   "basket",
	Short: "Create, list and delete baskets",
}

var basketCreateCmd = &cobra.Command{
	Use:   "create NAME DIR...",
	Short: "Create a basket from directories and scan them",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")
		progress := newProgressLine(os.Stderr, quiet)

		return withApp(cmd, progress.Handle, func(ctx context.Context, a *app) error {
			j, err := a.svc.CreateBasket(ctx, args[0], args[1:])
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

var basketListCmd = &cobra.Command{
	Use:   "list",
	Short: "List baskets and their root directories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, nil, func(ctx context.Context, a *app) error {
			baskets, err := a.svc.ListBaskets(ctx)
			if err != nil {
				return err
			}
			if asJSON(cmd) {
				return printJSON(cmd, baskets)
			}
			if len(baskets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No baskets.")
				return nil
			}
			for _, b := range baskets {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20d %-20s %s\n", b.ID, b.Name, strings.Join(b.Roots, ", "))
			}
			return nil
		})
	},
}

var basketDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a basket, its folders and the items under them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")

		return withApp(cmd, nil, func(ctx context.Context, a *app) error {
			b, err := a.svc.GetBasket(ctx, id)
			if err != nil {
				return fmt.Errorf("basket %d: %w", id, err)
			}
			if !yes && !confirm(os.Stdin, cmd.ErrOrStderr(), fmt.Sprintf("Delete basket %q and its items?", b.Name)) {
				return errors.New("not confirmed, pass --yes to delete without a prompt")
			}
			res, err := a.svc.DeleteBasket(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted basket %q: %d folders, %d tasks, %d thumbnails\n",
				b.Name, res.Folders, res.Tasks, res.Thumbnails)
			return nil
		})
	},
}

var basketFoldersCmd = &cobra.Command{
	Use:   "folders [ID]",
	Short: "List the folders of a basket, or every folder",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int64
		if len(args) == 1 {
			var err error
			if id, err = parseID(args[0]); err != nil {
				return err
			}
		}
		return withApp(cmd, nil, func(ctx context.Context, a *app) error {
			if id != 0 {
				if _, err := a.svc.GetBasket(ctx, id); err != nil {
					return fmt.Errorf("basket %d: %w", id, err)
				}
			}
			folders, err := a.svc.ListFolders(ctx, id)
			if err != nil {
				return err
			}
			if asJSON(cmd) {
				return printJSON(cmd, folders)
			}
			for _, f := range folders {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20d %-20d %s\n", f.ID, f.PID, f.Path)
			}
			return nil
		})
	},
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func init() {
	basketCreateCmd.Flags().BoolP("quiet", "q", false, "Print only the final summary")
	basketDeleteCmd.Flags().BoolP("yes", "y", false, "Delete without asking")

	basketCmd.AddCommand(basketCreateCmd)
	basketCmd.AddCommand(basketListCmd)
	basketCmd.AddCommand(basketDeleteCmd)
	basketCmd.AddCommand(basketFoldersCmd)
}

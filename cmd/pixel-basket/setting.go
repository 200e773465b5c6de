package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var settingCmd = &cobra.Command{
	Use:   "setting",
	Short: "Read and write catalog settings",
}

var settingGetCmd = &cobra.Command{
	Use:   "get [KEY]",
	Short: "Print one setting, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, nil, func(ctx context.Context, a *app) error {
			if len(args) == 1 {
				v, err := a.svc.GetSetting(ctx, args[0])
				if err != nil {
					return fmt.Errorf("setting %q: %w", args[0], err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			}
			settings, err := a.svc.ListSettings(ctx)
			if err != nil {
				return err
			}
			if asJSON(cmd) {
				return printJSON(cmd, settings)
			}
			for _, s := range settings {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", s.Key, s.Value)
			}
			return nil
		})
	},
}

var settingSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Store a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, nil, func(ctx context.Context, a *app) error {
			return a.svc.SetSetting(ctx, args[0], args[1])
		})
	},
}

var settingDeleteCmd = &cobra.Command{
	Use:   "delete KEY",
	Short: "Remove a setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, nil, func(ctx context.Context, a *app) error {
			if err := a.svc.DeleteSetting(ctx, args[0]); err != nil {
				return fmt.Errorf("setting %q: %w", args[0], err)
			}
			return nil
		})
	},
}

func init() {
	settingCmd.AddCommand(settingGetCmd)
	settingCmd.AddCommand(settingSetCmd)
	settingCmd.AddCommand(settingDeleteCmd)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"pixel-basket/internal/database"
	"pixel-basket/internal/mediatypes"
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Query and remove catalog items",
}

var itemListCmd = &cobra.Command{
	Use:   "list",
	Short: "List items, optionally filtered by directory, extension or basket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := itemFilterFromFlags(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd, nil, func(ctx context.Context, a *app) error {
			items, err := a.svc.ListItems(ctx, f)
			if err != nil {
				return err
			}
			if asJSON(cmd) {
				return printJSON(cmd, items)
			}
			for _, m := range items {
				fmt.Fprintln(cmd.OutOrStdout(), formatItem(m))
			}
			return nil
		})
	},
}

var itemLsCmd = &cobra.Command{
	Use:   "ls DIR",
	Short: "List the live items of a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		recursive, _ := cmd.Flags().GetBool("recursive")

		return withApp(cmd, nil, func(ctx context.Context, a *app) error {
			items, err := a.svc.ListItemsByDir(ctx, dir, recursive)
			if err != nil {
				return err
			}
			if asJSON(cmd) {
				return printJSON(cmd, items)
			}
			for _, m := range items {
				fmt.Fprintln(cmd.OutOrStdout(), formatItem(m))
			}
			return nil
		})
	},
}

var itemGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show every field of one item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, nil, func(ctx context.Context, a *app) error {
			m, err := a.svc.GetItem(ctx, id)
			if err != nil {
				return fmt.Errorf("item %d: %w", id, err)
			}
			return printJSON(cmd, m)
		})
	},
}

var itemDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Mark an item deleted; the file on disk is kept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, nil, func(ctx context.Context, a *app) error {
			if err := a.svc.SoftDeleteItem(ctx, id); err != nil {
				return fmt.Errorf("item %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted item %d\n", id)
			return nil
		})
	},
}

func itemFilterFromFlags(cmd *cobra.Command) (database.ItemFilter, error) {
	var f database.ItemFilter
	flags := cmd.Flags()

	dir, _ := flags.GetString("dir")
	if dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return f, err
		}
		f.Dir = abs
	}
	f.Recursive, _ = flags.GetBool("recursive")
	f.IncludeDeleted, _ = flags.GetBool("deleted")
	f.BasketID, _ = flags.GetInt64("basket")
	f.Limit, _ = flags.GetInt("limit")
	f.Offset, _ = flags.GetInt("offset")

	exts, _ := flags.GetStringSlice("ext")
	for _, e := range exts {
		if e = strings.TrimSpace(e); e == "" {
			continue
		}
		if !mediatypes.IsMediaFile(e) {
			return f, fmt.Errorf("%q is not a cataloged extension", e)
		}
		f.Exts = append(f.Exts, mediatypes.NormalizeExt(e))
	}
	if f.Limit < 0 || f.Offset < 0 || f.BasketID < 0 {
		return f, fmt.Errorf("limit, offset and basket must not be negative")
	}
	return f, nil
}

func formatItem(m database.Metadata) string {
	line := fmt.Sprintf("%-20d %-6s", m.ID, m.Ext)
	if m.Width > 0 {
		line += fmt.Sprintf(" %5dx%-5d", m.Width, m.Height)
	} else {
		line += strings.Repeat(" ", 12)
	}
	line += " " + m.FullPath
	if m.IsDeleted {
		line += " (deleted)"
	}
	return line
}

func asJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func addItemFilterFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("dir", "", "Only items in this directory")
	flags.BoolP("recursive", "r", false, "Include subdirectories of --dir")
	flags.StringSlice("ext", nil, "Only these extensions (repeatable or comma separated)")
	flags.Int64("basket", 0, "Only items under this basket's roots")
	flags.Bool("deleted", false, "Include deleted items")
	flags.IntP("limit", "n", 0, "Maximum number of items (0 for no limit)")
	flags.Int("offset", 0, "Skip this many items")
}

func init() {
	addItemFilterFlags(itemListCmd)
	itemLsCmd.Flags().BoolP("recursive", "r", false, "Include subdirectories")

	itemCmd.AddCommand(itemListCmd)
	itemCmd.AddCommand(itemLsCmd)
	itemCmd.AddCommand(itemGetCmd)
	itemCmd.AddCommand(itemDeleteCmd)
}

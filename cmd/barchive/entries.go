package main

import (
	"fmt"

	"barchive/pkg/archive"
	"barchive/pkg/storage"
	"barchive/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	entriesFrom string
	entriesTo   string
)

var entriesCmd = &cobra.Command{
	Use:   "entries <feed-id>",
	Short: "List the entries recorded by the last build",
	Example: `  barchive entries 3321
  barchive entries 3321 --from 2024-06-30 --to 2024-06-30`,
	Args: cobra.ExactArgs(1),
	RunE: runEntries,
}

func init() {
	rootCmd.AddCommand(entriesCmd)

	entriesCmd.Flags().StringVar(&entriesFrom, "from", "", "first day to list (YYYY-MM-DD)")
	entriesCmd.Flags().StringVar(&entriesTo, "to", "", "last day to list (YYYY-MM-DD)")
}

func runEntries(cmd *cobra.Command, args []string) error {
	app, err := newApp(map[string]interface{}{})
	if err != nil {
		return err
	}

	start, end, err := dayBounds(entriesFrom, entriesTo)
	if err != nil {
		return err
	}

	a, err := app.restore(args[0])
	if err != nil {
		return err
	}

	window := archive.DownloadWindow{Start: start, End: end, All: start.IsZero() && end.IsZero()}
	selected := a.Select(window)
	if err := ui.RenderEntries(ui.Output, a.FeedID(), selected, storage.ArchiveFileName); err != nil {
		return err
	}
	fmt.Fprintf(ui.Output, "\n%d of %d entries\n", len(selected), len(a.Entries()))
	return nil
}

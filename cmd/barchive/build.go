package main

import (
	"barchive/pkg/archive"
	"barchive/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	buildFrom     string
	buildTo       string
	buildDaysBack int
	buildChrono   bool
	buildRebuild  bool
	buildHeadless bool
)

var buildCmd = &cobra.Command{
	Use:   "build <feed-id>",
	Short: "Record the archive entries of a date window",
	Long: `Walk the archive calendar one date at a time and record every listed entry.

Dates are visited latest first unless --chronological is given. A window
that reaches past the archive is clamped to it; one entirely outside fails.
The result is saved so that 'download' and 'entries' can use it later.`,
	Example: `  # The whole archive
  barchive build 3321

  # The last week
  barchive build 3321 --days-back 7

  # An explicit window, replacing an earlier build
  barchive build 3321 --from 2024-06-01 --to 2024-06-30 --rebuild`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVar(&buildFrom, "from", "", "first date to visit (YYYY-MM-DD)")
	buildCmd.Flags().StringVar(&buildTo, "to", "", "last date to visit (YYYY-MM-DD)")
	buildCmd.Flags().IntVar(&buildDaysBack, "days-back", 0, "visit the latest date and this many days before it")
	buildCmd.Flags().BoolVar(&buildChrono, "chronological", false, "visit dates oldest first")
	buildCmd.Flags().BoolVar(&buildRebuild, "rebuild", false, "replace an earlier build of this feed")
	buildCmd.Flags().BoolVar(&buildHeadless, "headless", true, "run the browser without a window")
	buildCmd.MarkFlagsMutuallyExclusive("days-back", "from")
	buildCmd.MarkFlagsMutuallyExclusive("days-back", "to")
}

func runBuild(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{}
	if cmd.Flags().Changed("chronological") {
		flags["chronological"] = buildChrono
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = buildHeadless
	}
	app, err := newApp(flags)
	if err != nil {
		return err
	}
	defer app.writeMetrics()

	var sel archive.DateSelector
	if cmd.Flags().Changed("days-back") {
		sel.DaysBack = &buildDaysBack
	}
	sel.Start, err = parseDay("from", buildFrom)
	if err != nil {
		return err
	}
	sel.End, err = parseDay("to", buildTo)
	if err != nil {
		return err
	}

	feedID := args[0]
	if app.manifests.Exists(feedID) && !buildRebuild {
		return archive.ErrAlreadyBuilt
	}

	a, err := archive.Open(cmd.Context(), feedID, app.deps())
	if err != nil {
		return err
	}
	ui.PrintInfo("Feed", a.FeedID()+" "+a.FeedName())
	ui.PrintInfo("Archive", a.DateRange().String())

	opts := archive.BuildOptions{Chronological: app.cfg.Build.Chronological, Rebuild: buildRebuild}
	if err := a.Build(cmd.Context(), sel, opts); err != nil {
		return err
	}
	if app.progress != nil {
		app.progress.CompleteBuild(len(a.Entries()))
	}

	if err := app.manifests.Save(a.Manifest()); err != nil {
		return err
	}
	ui.PrintSuccess("Recorded %d entries for feed %s", len(a.Entries()), a.FeedID())
	return nil
}

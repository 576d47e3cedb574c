package main

import (
	"fmt"

	"barchive/pkg/archive"
	"barchive/pkg/ui"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <feed-id>",
	Short: "Show a feed's name and archive range",
	Long: `Look up a feed and walk its archive calendar to find the first and last
archived dates. Nothing is downloaded.`,
	Example: `  barchive info 3321`,
	Args:    cobra.ExactArgs(1),
	RunE:    runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	app, err := newApp(map[string]interface{}{})
	if err != nil {
		return err
	}
	defer app.writeMetrics()

	a, err := archive.Open(cmd.Context(), args[0], app.deps())
	if err != nil {
		return err
	}

	fmt.Fprintln(ui.Output, a.String())

	if m, err := app.manifests.Load(a.FeedID()); err == nil && m != nil {
		first, last := m.Span()
		ui.PrintInfo("Last build", fmt.Sprintf("%d entries, %s to %s (%s)",
			len(m.Entries), first.Format("2006-01-02 15:04"), last.Format("2006-01-02 15:04"),
			m.UpdatedAt.Format("2006-01-02 15:04")))
	}
	return nil
}

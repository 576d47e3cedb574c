package main

import (
	"path/filepath"

	"barchive/pkg/archive"
	"barchive/pkg/auth"
	"barchive/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	downloadFrom     string
	downloadTo       string
	downloadAll      bool
	downloadOutput   string
	downloadUsername string
	downloadPassword string
	downloadMetrics  string
)

var downloadCmd = &cobra.Command{
	Use:   "download <feed-id>",
	Short: "Download recorded archive entries",
	Long: `Download the entries recorded by the last build of a feed.

Credentials come from --username/--password, the configuration, the
environment (BARCHIVE_USERNAME and BARCHIVE_PASSWORD) or the credential
store, in that order. Files already in the output directory are skipped
without contacting the provider, so an interrupted run can simply be
repeated. An entry that fails is reported and the run moves on.`,
	Example: `  # Everything recorded
  barchive download 3321 --all

  # One day, into a specific directory
  barchive download 3321 --from 2024-06-30 --to 2024-06-30 -o ./fire`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVar(&downloadFrom, "from", "", "first day of entries to download (YYYY-MM-DD)")
	downloadCmd.Flags().StringVar(&downloadTo, "to", "", "last day of entries to download (YYYY-MM-DD)")
	downloadCmd.Flags().BoolVar(&downloadAll, "all", false, "download every recorded entry")
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output directory")
	downloadCmd.Flags().StringVarP(&downloadUsername, "username", "u", "", "Broadcastify username")
	downloadCmd.Flags().StringVar(&downloadPassword, "password", "", "Broadcastify password (prefer the credential store)")
	downloadCmd.Flags().StringVar(&downloadMetrics, "metrics-file", "", "write Prometheus metrics to this textfile")
	downloadCmd.MarkFlagsMutuallyExclusive("all", "from")
	downloadCmd.MarkFlagsMutuallyExclusive("all", "to")
}

func runDownload(cmd *cobra.Command, args []string) error {
	app, err := newApp(map[string]interface{}{
		"output":       downloadOutput,
		"username":     downloadUsername,
		"password":     downloadPassword,
		"metrics-file": downloadMetrics,
	})
	if err != nil {
		return err
	}
	defer app.writeMetrics()

	start, end, err := dayBounds(downloadFrom, downloadTo)
	if err != nil {
		return err
	}
	window := archive.DownloadWindow{Start: start, End: end, All: downloadAll}

	a, err := app.restore(args[0])
	if err != nil {
		return err
	}

	var store *auth.Manager
	if app.cfg.Credentials.UseStore {
		if store, err = auth.NewManager(); err != nil {
			app.log.WithError(err).Warn("Credential store unavailable")
		}
	}
	creds := store.Resolve(app.cfg.Credentials)
	a.SetCredentials(creds.Username, creds.Password)
	if !a.HasCredentials() {
		auth.ShowLoginGuide(ui.Output)
		return auth.ErrMissingCredentials
	}

	outputDir := app.cfg.Download.OutputDirectory
	ui.PrintInfo("Feed", a.FeedID()+" "+a.FeedName())
	ui.PrintInfo("Output", outputDir)

	rep, err := a.Download(cmd.Context(), window, outputDir)
	if rep != nil && app.cfg.Download.WriteReport {
		path := filepath.Join(rep.OutputDir, rep.FileName())
		if saveErr := rep.Save(path); saveErr != nil {
			app.log.WithError(saveErr).Warn("Failed to write report")
		} else {
			app.log.WithField("path", path).Info("Report written")
		}
	}
	if err != nil {
		return err
	}

	if app.progress != nil {
		app.progress.Complete(rep.Summary)
	}
	if failed := rep.Failures(); len(failed) > 0 {
		ui.PrintWarning("%d entries failed", len(failed))
		if err := ui.RenderFailures(ui.Output, failed); err != nil {
			return err
		}
		return nil
	}
	ui.PrintSuccess("Feed %s is up to date in %s", a.FeedID(), outputDir)
	return nil
}

// Package archive ties a feed's archive together: its navigable date range,
// the entries a build pass found in it, and the download of those entries.
//
// A build pass drives the provider's calendar widget through a browser
// session, one date at a time. A download pass uses a plain authenticated
// HTTP session. The two never overlap, and neither ever issues more than
// one request at a time.
//
// Basic usage:
//
//	a, err := archive.Open(ctx, "3321", deps)
//	if err != nil {
//		return err
//	}
//	if err := a.Build(ctx, archive.DateSelector{DaysBack: &days}, archive.BuildOptions{}); err != nil {
//		return err
//	}
//	a.SetCredentials(user, pass)
//	rep, err := a.Download(ctx, archive.DownloadWindow{All: true}, "./archives")
package archive

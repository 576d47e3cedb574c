// Package throttle paces outbound calls to the provider.
//
// Every call belongs to a Class. A Throttle remembers when the last call of
// each class went out and, before the next one, sleeps until the class's
// minimum interval has elapsed. There is no queue and no token bucket: the
// retriever issues one request at a time, so a per-class "last call"
// timestamp is all the state needed.
//
//	t := throttle.New(cfg.Throttle)
//	if err := t.Wait(ctx, throttle.ClassPage); err != nil {
//	    return err
//	}
//	resp, err := client.Get(pageURL)
//
// The file class is special: after a file that was skipped rather than
// transferred (see MarkFileFetched) it only waits the page interval, so
// re-runs over mostly downloaded archives are not slowed to file pace.
package throttle

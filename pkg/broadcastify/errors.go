package broadcastify

import errs "barchive/pkg/errors"

var (
	// ErrInvalidFeed means the feed page has no display name, so the id is unknown
	ErrInvalidFeed = errs.New(errs.ErrorTypeUsage, "invalid feed id")

	// ErrCredentialsRejected means the login form answered with its failure banner
	ErrCredentialsRejected = errs.New(errs.ErrorTypeCredentials, "login rejected by provider")

	// ErrSubscriptionRequired means the download page withholds the media link
	// behind a premium subscription
	ErrSubscriptionRequired = errs.New(errs.ErrorTypeSubscription, "premium subscription required")

	// ErrUnexpectedPage means the download page has neither a media link
	// nor the subscription warning
	ErrUnexpectedPage = errs.New(errs.ErrorTypeRetrieval, "download page has no media link")

	// ErrArchiveGone means the provider answered 403 for an archive file that
	// no longer exists server-side
	ErrArchiveGone = errs.New(errs.ErrorTypeGone, "archive file does not exist")
)

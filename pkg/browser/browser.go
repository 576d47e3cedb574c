// Package browser is the capability barchive needs from a real browser:
// load a page, click things, read text, run scripts and dump the markup.
//
// Calendar navigation depends only on the Browser interface. Chrome drives
// it in production and browsertest.Browser drives it in tests.
package browser

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means no element matched the selector
	ErrNotFound = errors.New("element not found")

	// ErrNotInteractable means the element exists but is hidden or disabled
	ErrNotInteractable = errors.New("element not interactable")
)

// Browser is a single page session. It is not safe for concurrent use.
//
// Selectors starting with "/" are XPath expressions. Everything else is CSS.
type Browser interface {
	// Navigate loads url and waits for the document to be ready
	Navigate(ctx context.Context, url string) error

	// Click clicks the first element matching selector
	Click(ctx context.Context, selector string) error

	// Text returns the visible text of the first element matching selector
	Text(ctx context.Context, selector string) (string, error)

	// Evaluate runs script in the page and decodes its result into out
	Evaluate(ctx context.Context, script string, out any) error

	// Markup returns the current outer HTML of the document
	Markup(ctx context.Context) (string, error)

	Close() error
}

// Opener starts browser sessions
type Opener interface {
	Open(ctx context.Context) (Browser, error)
}

// OpenerFunc adapts a function to the Opener interface
type OpenerFunc func(ctx context.Context) (Browser, error)

func (f OpenerFunc) Open(ctx context.Context) (Browser, error) {
	return f(ctx)
}

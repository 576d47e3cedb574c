package browser

import (
	"context"
	"fmt"
	"strings"

	"barchive/pkg/config"
	"barchive/pkg/logger"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// Chrome is a Browser backed by a Chrome or Chromium process
type Chrome struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      logger.Logger
}

// ChromeOpener starts one Chrome process per session
type ChromeOpener struct {
	Config    config.BrowserConfig
	UserAgent string
	Logger    logger.Logger
}

func (o ChromeOpener) Open(ctx context.Context) (Browser, error) {
	return NewChrome(ctx, o.Config, o.UserAgent, o.Logger)
}

// NewChrome launches a browser. The session lives until Close is called.
// ctx is checked before launching.
func NewChrome(ctx context.Context, cfg config.BrowserConfig, userAgent string, log logger.Logger) (*Chrome, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.WindowSize(1280, 1024),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithDebugf(func(format string, args ...any) {
		log.Debug(fmt.Sprintf(format, args...))
	}))

	// The first Run starts the process and ties its lifetime to the context
	// it is given, so it must not carry a deadline.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.DebugWithFields("Browser started", map[string]interface{}{
		"headless": cfg.Headless,
		"exec":     cfg.ExecPath,
	})

	return &Chrome{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc, logger: log}, nil
}

// run executes actions on the tab, bounded by the caller's ctx
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(c.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func queryOption(selector string) chromedp.QueryOption {
	if strings.HasPrefix(selector, "/") {
		return chromedp.BySearch
	}
	return chromedp.ByQueryAll
}

// nodes resolves selector without waiting for it to appear
func (c *Chrome) nodes(ctx context.Context, selector string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	if err := c.run(ctx, chromedp.Nodes(selector, &nodes, queryOption(selector), chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return nodes, nil
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	return c.run(ctx, chromedp.Navigate(url))
}

// Click refuses hidden or disabled elements. bootstrap-datepicker marks an
// exhausted month control with visibility:hidden or the disabled class.
func (c *Chrome) Click(ctx context.Context, selector string) error {
	nodes, err := c.nodes(ctx, selector)
	if err != nil {
		return err
	}
	node := nodes[0]

	style := strings.ReplaceAll(node.AttributeValue("style"), " ", "")
	classes := strings.Fields(node.AttributeValue("class"))
	if strings.Contains(style, "visibility:hidden") || strings.Contains(style, "display:none") {
		return fmt.Errorf("%w: %s is hidden", ErrNotInteractable, selector)
	}
	for _, class := range classes {
		if class == "disabled" {
			return fmt.Errorf("%w: %s is disabled", ErrNotInteractable, selector)
		}
	}

	return c.run(ctx, chromedp.MouseClickNode(node))
}

func (c *Chrome) Text(ctx context.Context, selector string) (string, error) {
	nodes, err := c.nodes(ctx, selector)
	if err != nil {
		return "", err
	}
	var text string
	if err := c.run(ctx, chromedp.Text([]cdp.NodeID{nodes[0].NodeID}, &text, chromedp.ByNodeID)); err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (c *Chrome) Evaluate(ctx context.Context, script string, out any) error {
	return c.run(ctx, chromedp.Evaluate(script, out))
}

func (c *Chrome) Markup(ctx context.Context) (string, error) {
	var html string
	if err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Close shuts down the tab and the browser process
func (c *Chrome) Close() error {
	c.cancelTab()
	c.cancelAlloc()
	return nil
}

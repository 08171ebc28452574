package fetch

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Rendered drives a headless Chrome session for pages that only materialize
// their product grid after JavaScript runs. The strategy owns one browser for
// its lifetime; each Fetch opens a fresh tab.
type Rendered struct {
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	logger          *zap.Logger
	cfg             Config
}

// NewRendered starts the browser session. Callers must Close the strategy
// when the run is over, including on error paths.
func NewRendered(cfg Config, logger *zap.Logger) (*Rendered, error) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &Rendered{
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		logger:          logger,
		cfg:             cfg,
	}, nil
}

// Fetch navigates to the target, waits for content readiness, then performs a
// bounded number of scroll-and-wait cycles to trigger lazy-loaded listings
// before snapshotting the rendered DOM.
func (r *Rendered) Fetch(ctx context.Context, target string) (Content, error) {
	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, r.cfg.RenderTimeout)
	defer cancelTask()

	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	var html string
	tasks := chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(r.cfg.UserAgent),
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	for i := 0; i < r.cfg.ScrollCycles; i++ {
		tasks = append(tasks,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(r.cfg.ScrollDelay),
		)
	}
	tasks = append(tasks, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return Content{}, &Error{Target: target, Err: fmt.Errorf("chromedp run: %w", err)}
	}

	r.logger.Debug("Rendered page",
		zap.String("target", target),
		zap.Int("bytes", len(html)),
		zap.Int("scroll_cycles", r.cfg.ScrollCycles),
	)
	return Content{HTML: []byte(html)}, nil
}

// Close tears down the tab allocator and browser contexts.
func (r *Rendered) Close(context.Context) error {
	if r == nil {
		return nil
	}
	r.browserCancel()
	r.allocatorCancel()
	return nil
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}

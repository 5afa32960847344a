// Package browser drives a real browser for quote pages whose price is
// injected client-side after the initial load.
package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// ErrNoElement is returned by Session.Text when no element matches the selector.
var ErrNoElement = errors.New("no element matches selector")

// Session is a live, already opened browser tab. Implementations are not
// safe for concurrent use.
//
//go:generate mockgen -package=tmx -destination=../tmx/mock_session_test.go -source=browser.go Session
type Session interface {
	// Navigate loads url in the tab.
	Navigate(ctx context.Context, url string) error
	// Reload refreshes the current page.
	Reload(ctx context.Context) error
	// Text returns the rendered text of the first element matching the CSS
	// selector, or ErrNoElement.
	Text(ctx context.Context, selector string) (string, error)
	Close() error
}

// Options configures Launch.
type Options struct {
	// ExecPath is the browser executable. Required.
	ExecPath  string
	Headless  bool
	UserAgent string
	Logger    zerolog.Logger
}

// ChromeSession is a Session backed by a Chrome process controlled over the
// DevTools protocol.
type ChromeSession struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	log         zerolog.Logger
}

// Launch starts the browser at opts.ExecPath and opens one tab. The browser
// lives until Close is called, independent of ctx.
func Launch(ctx context.Context, opts Options) (*ChromeSession, error) {
	if opts.ExecPath == "" {
		return nil, errors.New("browser executable path is required")
	}
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.ExecPath(opts.ExecPath),
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	logger := opts.Logger.With().Str("component", "browser").Logger()
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) { logger.Debug().Msgf(format, args...) }),
		chromedp.WithErrorf(func(format string, args ...any) { logger.Error().Msgf(format, args...) }),
	)
	s := &ChromeSession{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc, log: logger}

	// The first Run allocates the browser and binds it to the context it is
	// given, so it must be the tab context itself and not a derived one.
	if err := chromedp.Run(tabCtx); err != nil {
		// cancelTab waits for an allocation that never happened; releasing
		// the allocator is all there is to tear down.
		cancelAlloc()
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	logger.Debug().Str("exec", opts.ExecPath).Bool("headless", opts.Headless).Msg("browser started")
	return s, nil
}

// run executes actions in the tab, aborting them when either the caller's
// ctx or the session ends.
func (s *ChromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
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

// Navigate loads url in the tab and waits for the load event.
func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	s.log.Debug().Str("url", url).Msg("navigate")
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Reload refreshes the current page.
func (s *ChromeSession) Reload(ctx context.Context) error {
	s.log.Debug().Msg("reload")
	if err := s.run(ctx, chromedp.Reload()); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

// Text returns the innerText of the first element matching the CSS selector.
func (s *ChromeSession) Text(ctx context.Context, selector string) (string, error) {
	var nodes []*cdp.Node
	// AtLeast(0) returns immediately instead of waiting for the selector.
	if err := s.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return "", fmt.Errorf("query %s: %w", selector, err)
	}
	if len(nodes) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoElement, selector)
	}
	var text string
	if err := s.run(ctx, chromedp.Text([]cdp.NodeID{nodes[0].NodeID}, &text, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("read text %s: %w", selector, err)
	}
	return text, nil
}

// Close shuts the tab and the browser process. It is safe to call twice.
func (s *ChromeSession) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.cancelTab()
	s.cancelAlloc()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

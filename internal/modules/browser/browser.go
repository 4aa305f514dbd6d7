// Package browser owns the headless browser process for a run.
//
// A Session is a scoped resource: Launch acquires it, Close releases it. Close is
// idempotent and is also triggered when the run context is cancelled, so a deferred
// Close in the caller and an interrupt can both fire without double-release.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mediakit/internal/models"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// ErrLaunch marks the only fatal failure of a run.
var ErrLaunch = errors.New("browser launch failed")

// Page is the subset of page control the capture steps need.
type Page interface {
	// Goto navigates and waits for network idle.
	Goto(url string) error
	SetViewport(width, height int) error
	// Screenshot writes a full-page PNG to path.
	Screenshot(path string) error
	// Evaluate runs script in the page and waits for a returned promise to settle.
	Evaluate(script string) error
	Close() error
}

// Browser is implemented by Session. Steps depend on the narrower opener
// interfaces they declare themselves.
type Browser interface {
	NewPage() (Page, error)
	NewRecordingPage(dir string, size models.Viewport) (Page, error)
	Close() error
}

// Launcher starts a browser for one run.
type Launcher func(ctx context.Context, opts Options, logger *zap.Logger) (Browser, error)

type Options struct {
	Headless          bool
	Install           bool
	NavigationTimeout time.Duration
}

// Session holds the playwright driver, the chromium process and every page
// opened through it.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    Options
	logger  *zap.Logger

	mu    sync.Mutex
	pages []*page

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

var _ Browser = (*Session)(nil)

// Launch installs (optionally) and starts playwright, then launches chromium.
// Any failure here is wrapped with ErrLaunch.
func Launch(ctx context.Context, opts Options, logger *zap.Logger) (*Session, error) {
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}
	if opts.Install {
		logger.Debug("installing playwright driver and chromium")
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("%w: install playwright: %v", ErrLaunch, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: start playwright: %v", ErrLaunch, err)
	}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("%w: launch chromium: %v", ErrLaunch, err)
	}

	s := newSession(pw, b, opts, logger)
	go s.watch(ctx)

	logger.Info("browser launched", zap.Bool("headless", opts.Headless), zap.String("version", b.Version()))
	return s, nil
}

// LaunchBrowser adapts Launch to the Launcher signature.
func LaunchBrowser(ctx context.Context, opts Options, logger *zap.Logger) (Browser, error) {
	return Launch(ctx, opts, logger)
}

func newSession(pw *playwright.Playwright, b playwright.Browser, opts Options, logger *zap.Logger) *Session {
	return &Session{
		pw:      pw,
		browser: b,
		opts:    opts,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// watch releases the session as soon as ctx is cancelled so that in-flight
// browser calls fail fast instead of running to their own timeouts.
func (s *Session) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		s.logger.Warn("run cancelled, releasing browser", zap.Error(ctx.Err()))
		_ = s.Close()
	case <-s.done:
	}
}

// NewPage opens a page in the default context.
func (s *Session) NewPage() (Page, error) {
	pg, err := s.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	pg.SetDefaultNavigationTimeout(s.navTimeoutMillis())
	return s.track(&page{page: pg, navTimeout: s.navTimeoutMillis()}), nil
}

// NewRecordingPage opens a fresh context that records video into dir. Closing
// the returned page closes its context, which is what flushes the video file.
func (s *Session) NewRecordingPage(dir string, size models.Viewport) (Page, error) {
	bctx, err := s.browser.NewContext(playwright.BrowserNewContextOptions{
		RecordVideo: &playwright.RecordVideo{
			Dir:  dir,
			Size: &playwright.Size{Width: size.Width, Height: size.Height},
		},
		Viewport: &playwright.Size{Width: size.Width, Height: size.Height},
	})
	if err != nil {
		return nil, fmt.Errorf("new recording context: %w", err)
	}

	pg, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("new recording page: %w", err)
	}
	pg.SetDefaultNavigationTimeout(s.navTimeoutMillis())

	return s.track(&page{page: pg, context: bctx, navTimeout: s.navTimeoutMillis()}), nil
}

// track registers p for release on Close. A page drops itself from the list
// once it has been closed.
func (s *Session) track(p *page) *page {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.onClose = func() { s.untrack(p) }
	s.pages = append(s.pages, p)
	return p
}

func (s *Session) untrack(p *page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tracked := range s.pages {
		if tracked == p {
			s.pages = append(s.pages[:i], s.pages[i+1:]...)
			return
		}
	}
}

func (s *Session) navTimeoutMillis() float64 {
	return float64(s.opts.NavigationTimeout.Milliseconds())
}

// Close closes any open page or context, then the browser, then stops the
// playwright driver. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		defer close(s.done)

		s.mu.Lock()
		pages := s.pages
		s.pages = nil
		s.mu.Unlock()

		var errs []error
		for _, p := range pages {
			// Pages may already be gone; release continues regardless.
			_ = p.Close()
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close browser: %w", err))
			}
		}
		if s.pw != nil {
			if err := s.pw.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stop playwright: %w", err))
			}
		}
		s.closeErr = errors.Join(errs...)
		s.logger.Info("browser closed")
	})
	return s.closeErr
}

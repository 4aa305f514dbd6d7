// Package browsertest provides in-memory browser.Browser and browser.Page
// implementations for tests that must not start a real browser.
package browsertest

import (
	"context"
	"fmt"
	"mediakit/internal/models"
	"mediakit/internal/modules/browser"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// PNG is the payload Page.Screenshot writes.
var PNG = []byte("\x89PNG\r\n\x1a\nfake")

// Page records every call it receives. Screenshot writes PNG to the requested
// path unless ScreenshotErr is set.
type Page struct {
	mu    sync.Mutex
	Calls []string

	GotoErr       error
	EvaluateErr   error
	ScreenshotErr error

	// ViewportErr fails SetViewport for the given width.
	ViewportErr map[int]error

	// OnClose runs once, on the first Close.
	OnClose func() error
	closed  bool
}

var _ browser.Page = (*Page)(nil)

func (p *Page) record(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, fmt.Sprintf(format, args...))
}

// CallLog returns a copy of the recorded calls.
func (p *Page) CallLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Calls...)
}

func (p *Page) Goto(url string) error {
	p.record("goto %s", url)
	return p.GotoErr
}

func (p *Page) SetViewport(width, height int) error {
	p.record("viewport %dx%d", width, height)
	if err, ok := p.ViewportErr[width]; ok {
		return err
	}
	return nil
}

func (p *Page) Screenshot(path string) error {
	p.record("screenshot %s", filepath.Base(path))
	if p.ScreenshotErr != nil {
		return p.ScreenshotErr
	}
	return os.WriteFile(path, PNG, 0644)
}

func (p *Page) Evaluate(script string) error {
	p.record("evaluate")
	return p.EvaluateErr
}

func (p *Page) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.Calls = append(p.Calls, "close")
	onClose := p.OnClose
	p.mu.Unlock()

	if onClose != nil {
		return onClose()
	}
	return nil
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Browser hands out preconfigured pages. Closing a recording page writes
// VideoData into the recording directory, the way a real engine flushes its
// video when the context closes.
type Browser struct {
	Page      *Page
	Recording *Page
	VideoData []byte

	NewPageErr      error
	NewRecordingErr error

	mu           sync.Mutex
	RecordingDir string
	RecordSize   models.Viewport
	CloseCount   int
}

var _ browser.Browser = (*Browser)(nil)

// New returns a Browser with fresh pages and a small video payload.
func New() *Browser {
	return &Browser{
		Page:      &Page{},
		Recording: &Page{},
		VideoData: []byte("webm"),
	}
}

// Launcher returns a browser.Launcher that always yields b.
func (b *Browser) Launcher() browser.Launcher {
	return func(ctx context.Context, opts browser.Options, logger *zap.Logger) (browser.Browser, error) {
		return b, nil
	}
}

func (b *Browser) NewPage() (browser.Page, error) {
	if b.NewPageErr != nil {
		return nil, b.NewPageErr
	}
	return b.Page, nil
}

func (b *Browser) NewRecordingPage(dir string, size models.Viewport) (browser.Page, error) {
	if b.NewRecordingErr != nil {
		return nil, b.NewRecordingErr
	}
	b.mu.Lock()
	b.RecordingDir = dir
	b.RecordSize = size
	b.mu.Unlock()

	prev := b.Recording.OnClose
	b.Recording.OnClose = func() error {
		if b.VideoData != nil {
			if err := os.WriteFile(filepath.Join(dir, "3f2a9c.webm"), b.VideoData, 0644); err != nil {
				return err
			}
		}
		if prev != nil {
			return prev()
		}
		return nil
	}
	return b.Recording, nil
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CloseCount++
	return nil
}

// Closes returns how many times Close was called.
func (b *Browser) Closes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.CloseCount
}

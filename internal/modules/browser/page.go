package browser

import (
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// page adapts a playwright page to Page. When context is set the page owns a
// dedicated (recording) context and closing the page closes the context.
type page struct {
	page       playwright.Page
	context    playwright.BrowserContext
	navTimeout float64
	onClose    func()

	closeOnce sync.Once
	closeErr  error
}

func (p *page) Goto(url string) error {
	opts := playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}
	if p.navTimeout > 0 {
		opts.Timeout = playwright.Float(p.navTimeout)
	}
	if _, err := p.page.Goto(url, opts); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (p *page) SetViewport(width, height int) error {
	if err := p.page.SetViewportSize(width, height); err != nil {
		return fmt.Errorf("set viewport %dx%d: %w", width, height, err)
	}
	return nil
}

func (p *page) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
		Type:     playwright.ScreenshotTypePng,
	})
	if err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	return nil
}

func (p *page) Evaluate(script string) error {
	if _, err := p.page.Evaluate(script); err != nil {
		return fmt.Errorf("script evaluation failed: %w", err)
	}
	return nil
}

func (p *page) Close() error {
	p.closeOnce.Do(func() {
		if p.onClose != nil {
			defer p.onClose()
		}
		if p.context != nil {
			p.closeErr = p.context.Close()
			return
		}
		p.closeErr = p.page.Close()
	})
	return p.closeErr
}

package screenshot

import (
	"context"
	"errors"
	"fmt"
	"mediakit/internal/models"
	"mediakit/internal/modules/browser"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// PageOpener is satisfied by *browser.Session.
type PageOpener interface {
	NewPage() (browser.Page, error)
}

// Stage captures one full-page screenshot per viewport preset using a single
// page that is navigated once.
type Stage struct {
	opener  PageOpener
	presets []models.Viewport
}

func New(opener PageOpener) *Stage {
	return &Stage{opener: opener, presets: models.ViewportPresets}
}

func (s *Stage) Name() string { return "screenshots" }

// Path returns where the screenshot for vp is written.
func Path(outputDir string, vp models.Viewport) string {
	return filepath.Join(outputDir, models.ScreenshotsDir, vp.Name+".png")
}

// Execute navigates once, waits rc.Delay, then resizes and captures each
// preset in order. A failing preset is logged and the next one still runs;
// the returned error joins every preset failure.
func (s *Stage) Execute(ctx context.Context, rc *models.RunContext, logger *zap.Logger) error {
	logger.Info("taking screenshots", zap.String("url", rc.URL))

	page, err := s.opener.NewPage()
	if err != nil {
		return err
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Debug("close screenshot page", zap.Error(err))
		}
	}()

	if err := page.Goto(rc.URL); err != nil {
		return err
	}
	if err := sleep(ctx, rc.Delay); err != nil {
		return err
	}

	var errs []error
	for _, vp := range s.presets {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		logger.Info("capturing view", zap.String("viewport", vp.Name), zap.String("size", vp.String()))
		if err := capture(page, vp, Path(rc.OutputDir, vp)); err != nil {
			logger.Warn("screenshot failed", zap.String("viewport", vp.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", vp.Name, err))
			continue
		}
		logger.Info("screenshot saved", zap.String("viewport", vp.Name))
	}
	return errors.Join(errs...)
}

func capture(page browser.Page, vp models.Viewport, path string) error {
	if err := page.SetViewport(vp.Width, vp.Height); err != nil {
		return err
	}
	return page.Screenshot(path)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

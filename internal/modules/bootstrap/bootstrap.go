package bootstrap

import (
	"fmt"
	"mediakit/internal/models"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// schemeRe matches an explicit "scheme://" prefix. url.Parse is not enough here:
// it reads "localhost:3000" as scheme "localhost".
var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)

// NormalizeURL prepends http:// when raw has no scheme. Nothing else is validated;
// malformed URLs surface later as fetch or navigation failures.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !schemeRe.MatchString(raw) {
		return "http://" + raw
	}
	return raw
}

// New creates the run context shared by every step.
func New(rawURL string, delaySeconds int, outputDir string) *models.RunContext {
	if delaySeconds < 0 {
		delaySeconds = 0
	}
	return &models.RunContext{
		RunID:     uuid.NewString(),
		URL:       NormalizeURL(rawURL),
		Delay:     time.Duration(delaySeconds) * time.Second,
		StartedAt: time.Now(),
		OutputDir: outputDir,
	}
}

// PrepareOutput removes dir and everything under it, then recreates the
// screenshots/ and assets/ subdirectories. There is no confirmation step.
func PrepareOutput(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove output dir: %w", err)
	}
	for _, sub := range []string{models.ScreenshotsDir, models.AssetsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return fmt.Errorf("create %s dir: %w", sub, err)
		}
	}
	return nil
}

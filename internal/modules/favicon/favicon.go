// Package favicon locates a site's icon from its HTML and stores it in the
// media kit's assets directory.
package favicon

import (
	"context"
	"errors"
	"fmt"
	"mediakit/internal/models"
	"mediakit/internal/modules/downloader"
	"mediakit/internal/modules/persistence"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
)

// ErrNotFound is returned when the chosen icon URL does not answer with 2xx.
var ErrNotFound = errors.New("favicon not found")

// iconSelectors is the lookup order; the first match with an href wins.
var iconSelectors = []cascadia.Selector{
	cascadia.MustCompile(`link[rel="icon"]`),
	cascadia.MustCompile(`link[rel="shortcut icon"]`),
	cascadia.MustCompile(`link[rel="apple-touch-icon"]`),
}

const fallbackPath = "/favicon.ico"

// Fetcher is satisfied by *downloader.Downloader.
type Fetcher interface {
	Fetch(ctx context.Context, url string) downloader.Content
}

// Stage fetches the favicon for the run URL.
type Stage struct {
	fetcher Fetcher
}

func New(fetcher Fetcher) *Stage {
	return &Stage{fetcher: fetcher}
}

func (s *Stage) Name() string { return "favicon" }

// Execute fetches the page, picks an icon URL with Discover, downloads it and
// writes assets/favicon<ext>. Nothing is written unless the icon request
// succeeds.
func (s *Stage) Execute(ctx context.Context, rc *models.RunContext, logger *zap.Logger) error {
	logger.Info("getting favicon", zap.String("url", rc.URL))

	base, err := url.Parse(rc.URL)
	if err != nil {
		return fmt.Errorf("parse page url: %w", err)
	}

	page := s.fetcher.Fetch(ctx, rc.URL)
	if page.Error != nil {
		return fmt.Errorf("fetch page: %w", page.Error)
	}
	doc, err := page.Document()
	if err != nil {
		return fmt.Errorf("parse page: %w", err)
	}

	iconURL := Discover(doc, base)
	logger.Debug("favicon candidate", zap.String("icon_url", iconURL))

	icon := s.fetcher.Fetch(ctx, iconURL)
	if icon.Error != nil {
		return fmt.Errorf("fetch favicon: %w", icon.Error)
	}
	if !icon.OK() {
		return fmt.Errorf("%w (status: %d)", ErrNotFound, icon.StatusCode)
	}

	name := "favicon" + Extension(iconURL)
	if _, err := persistence.New(rc.OutputDir).Write(icon.Data, models.AssetsDir, name); err != nil {
		return err
	}

	logger.Info("favicon saved", zap.String("file", name), zap.Int("bytes", len(icon.Data)))
	return nil
}

// Discover returns the absolute icon URL declared by doc, or base's
// /favicon.ico when no selector matches.
func Discover(doc *goquery.Document, base *url.URL) string {
	for _, sel := range iconSelectors {
		href, ok := doc.FindMatcher(sel).First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			continue
		}
		resolved, err := base.Parse(strings.TrimSpace(href))
		if err != nil {
			continue
		}
		return resolved.String()
	}
	return base.ResolveReference(&url.URL{Path: fallbackPath}).String()
}

// Extension returns the file extension of the URL path, or ".ico" when the
// path has none.
func Extension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".ico"
	}
	if ext := path.Ext(u.Path); ext != "" {
		return ext
	}
	return ".ico"
}

package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mediakit/internal/models"
	"mediakit/internal/modules/downloader"
	"mediakit/internal/modules/persistence"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
)

// Fetcher is satisfied by *downloader.Downloader.
type Fetcher interface {
	Fetch(ctx context.Context, url string) downloader.Content
}

type metaTag struct {
	sel cascadia.Selector
	set func(m *models.Metadata, content string)
}

var (
	titleSel = cascadia.MustCompile("title")

	metaTags = []metaTag{
		{cascadia.MustCompile(`meta[name="description"]`), func(m *models.Metadata, v string) { m.Description = v }},
		{cascadia.MustCompile(`meta[name="keywords"]`), func(m *models.Metadata, v string) { m.Keywords = v }},
		{cascadia.MustCompile(`meta[property="og:title"]`), func(m *models.Metadata, v string) { m.OGTitle = v }},
		{cascadia.MustCompile(`meta[property="og:description"]`), func(m *models.Metadata, v string) { m.OGDescription = v }},
		{cascadia.MustCompile(`meta[property="og:image"]`), func(m *models.Metadata, v string) { m.OGImage = v }},
	}
)

// Stage writes metadata.json for the run URL.
type Stage struct {
	fetcher Fetcher
}

func New(fetcher Fetcher) *Stage {
	return &Stage{fetcher: fetcher}
}

func (s *Stage) Name() string { return "metadata" }

// Execute fetches the page and writes metadata.json. The response status is
// not checked: an error page still yields a record with default values.
func (s *Stage) Execute(ctx context.Context, rc *models.RunContext, logger *zap.Logger) error {
	logger.Info("extracting metadata", zap.String("url", rc.URL))

	page := s.fetcher.Fetch(ctx, rc.URL)
	if page.Error != nil {
		return fmt.Errorf("fetch page: %w", page.Error)
	}
	if !page.OK() {
		logger.Warn("page returned non-success status, parsing body anyway", zap.Int("status", page.StatusCode))
	}

	doc, err := page.Document()
	if err != nil {
		return fmt.Errorf("parse page: %w", err)
	}

	data, err := Encode(Extract(doc, rc))
	if err != nil {
		return err
	}
	if _, err := persistence.New(rc.OutputDir).Write(data, models.MetadataFile); err != nil {
		return err
	}

	logger.Info("metadata extracted and saved")
	return nil
}

// Extract builds the metadata record from doc. Missing tags leave their field
// at the default; og:image is resolved against the run URL.
func Extract(doc *goquery.Document, rc *models.RunContext) models.Metadata {
	m := models.NewMetadata(rc)

	if title := doc.FindMatcher(titleSel).First(); title.Length() > 0 {
		if text := strings.TrimSpace(title.Text()); text != "" {
			m.Title = text
		}
	}

	for _, tag := range metaTags {
		content, ok := doc.FindMatcher(tag.sel).First().Attr("content")
		if !ok || content == "" {
			continue
		}
		tag.set(&m, content)
	}

	if m.OGImage != "" {
		m.OGImage = resolve(rc.URL, m.OGImage)
	}
	return m
}

func resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := b.Parse(ref)
	if err != nil {
		return ref
	}
	return r.String()
}

// Encode renders m as two-space indented JSON without HTML escaping.
func Encode(m models.Metadata) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return buf.Bytes(), nil
}

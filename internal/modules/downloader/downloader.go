package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

const maxBodyBytes = 10 * 1024 * 1024

// Content is the result of a single GET. Error is set only for transport
// failures; non-2xx responses keep their status and body.
type Content struct {
	URL         string
	StatusCode  int
	ContentType string
	Data        []byte
	Duration    time.Duration
	Error       error
}

// OK reports whether the request completed with a 2xx status.
func (c Content) OK() bool {
	return c.Error == nil && c.StatusCode >= 200 && c.StatusCode < 300
}

// Document parses Data as HTML, decoding it to UTF-8 using the response's
// Content-Type and any <meta charset> hint. An empty body yields an empty
// document.
func (c Content) Document() (*goquery.Document, error) {
	if c.Error != nil {
		return nil, c.Error
	}
	var r io.Reader = bytes.NewReader(c.Data)
	if len(c.Data) > 0 {
		decoded, err := charset.NewReader(r, c.ContentType)
		if err != nil {
			return nil, fmt.Errorf("decode charset: %w", err)
		}
		r = decoded
	}
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// Downloader issues plain GET requests with a fixed timeout.
type Downloader struct {
	client    *http.Client
	userAgent string
}

// New creates a Downloader whose requests are bounded by timeout.
func New(timeout time.Duration, userAgent string) *Downloader {
	return &Downloader{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch downloads url. It never returns a nil Content.
func (d *Downloader) Fetch(ctx context.Context, url string) Content {
	start := time.Now()
	content := d.fetch(ctx, url)
	content.Duration = time.Since(start)
	return content
}

func (d *Downloader) fetch(ctx context.Context, url string) Content {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Content{URL: url, Error: fmt.Errorf("build request: %w", err)}
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return Content{URL: url, Error: fmt.Errorf("download failed: %w", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Content{URL: url, StatusCode: resp.StatusCode, Error: fmt.Errorf("read failed: %w", err)}
	}

	return Content{
		URL:         url,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}
}

package models

import (
	"fmt"
	"time"
)

// RunContext is created once at startup and handed to every step.
type RunContext struct {
	RunID     string
	URL       string
	Delay     time.Duration
	StartedAt time.Time
	OutputDir string
}

type Viewport struct {
	Name   string
	Width  int
	Height int
}

func (v Viewport) String() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

var (
	Desktop = Viewport{Name: "desktop", Width: 1920, Height: 1080}
	Tablet  = Viewport{Name: "tablet", Width: 768, Height: 1024}
	Mobile  = Viewport{Name: "mobile", Width: 375, Height: 667}
)

// ViewportPresets lists the screenshot presets in capture order.
var ViewportPresets = []Viewport{Desktop, Tablet, Mobile}

type ViewportSizes struct {
	Desktop string `json:"desktop"`
	Tablet  string `json:"tablet"`
	Mobile  string `json:"mobile"`
}

// Metadata is serialized to metadata.json. Field order is the on-disk order.
type Metadata struct {
	URL           string        `json:"url"`
	Timestamp     string        `json:"timestamp"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Keywords      string        `json:"keywords"`
	OGTitle       string        `json:"og_title"`
	OGDescription string        `json:"og_description"`
	OGImage       string        `json:"og_image"`
	ViewportSizes ViewportSizes `json:"viewport_sizes"`
	RunID         string        `json:"run_id"`
}

const NoTitle = "No title"

// NewMetadata returns a record with every optional field at its default.
func NewMetadata(rc *RunContext) Metadata {
	return Metadata{
		URL:       rc.URL,
		Timestamp: rc.StartedAt.Format(time.RFC3339),
		Title:     NoTitle,
		ViewportSizes: ViewportSizes{
			Desktop: Desktop.String(),
			Tablet:  Tablet.String(),
			Mobile:  Mobile.String(),
		},
		RunID: rc.RunID,
	}
}

// Output layout relative to RunContext.OutputDir.
const (
	ScreenshotsDir = "screenshots"
	AssetsDir      = "assets"
	MetadataFile   = "metadata.json"
	ReadmeFile     = "README.md"
	VideoFile      = "scroll_demo.mp4"
)

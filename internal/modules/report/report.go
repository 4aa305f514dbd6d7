package report

import (
	"bytes"
	"fmt"
	"mediakit/internal/models"
	"mediakit/internal/modules/persistence"
	"text/template"
)

// VideoLine lists the scroll video in the README assets section.
const VideoLine = "- scroll_demo.mp4 - Scrolling demo video"

var readmeTmpl = template.Must(template.New("readme").Parse(`# Website Media Kit

Generated for: {{.URL}}
Generated on: {{.Generated}}
Run ID: {{.RunID}}

## Contents

### Screenshots
{{- range .Viewports}}
- {{.Name}}.png - {{.Name}} view ({{.}})
{{- end}}

### Assets
- favicon.* - Website favicon
{{- if .HasVideo}}
` + VideoLine + `
{{- end}}

### Metadata
- metadata.json - Website metadata (title, description, Open Graph tags)

## Usage
These assets can be used for presentations, portfolios, social media posts and documentation.
`))

type readmeData struct {
	URL       string
	Generated string
	RunID     string
	Viewports []models.Viewport
	HasVideo  bool
}

// Render builds README.md. The video line is present only when the video file
// exists in the output directory at the time of the call.
func Render(rc *models.RunContext) ([]byte, error) {
	fp := persistence.New(rc.OutputDir)
	data := readmeData{
		URL:       rc.URL,
		Generated: rc.StartedAt.Format("2006-01-02 15:04:05"),
		RunID:     rc.RunID,
		Viewports: models.ViewportPresets,
		HasVideo:  fp.Exists(models.AssetsDir, models.VideoFile),
	}

	var buf bytes.Buffer
	if err := readmeTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render readme: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteReadme renders and writes README.md, returning its path.
func WriteReadme(rc *models.RunContext) (string, error) {
	content, err := Render(rc)
	if err != nil {
		return "", err
	}
	return persistence.New(rc.OutputDir).Write(content, models.ReadmeFile)
}

package report

import (
	"mediakit/internal/models"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRC(t *testing.T) *models.RunContext {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, models.AssetsDir), 0755))
	return &models.RunContext{
		RunID:     "0b7e",
		URL:       "http://example.com",
		StartedAt: time.Date(2024, 2, 3, 4, 5, 6, 0, time.Local),
		OutputDir: dir,
	}
}

func TestWriteReadme_WithoutVideo(t *testing.T) {
	rc := newRC(t)

	path, err := WriteReadme(rc)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rc.OutputDir, "README.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "Generated for: http://example.com")
	assert.Contains(t, text, "Generated on: 2024-02-03 04:05:06")
	assert.Contains(t, text, "Run ID: 0b7e")
	assert.Contains(t, text, "- desktop.png - desktop view (1920x1080)")
	assert.Contains(t, text, "- tablet.png - tablet view (768x1024)")
	assert.Contains(t, text, "- mobile.png - mobile view (375x667)")
	assert.NotContains(t, text, "scroll_demo.mp4")
	assert.Contains(t, text, "- favicon.* - Website favicon\n\n### Metadata")
}

func TestWriteReadme_WithVideo(t *testing.T) {
	rc := newRC(t)
	require.NoError(t, os.WriteFile(filepath.Join(rc.OutputDir, "assets", "scroll_demo.mp4"), []byte("v"), 0644))

	path, err := WriteReadme(rc)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "- favicon.* - Website favicon\n"+VideoLine+"\n\n### Metadata")
}

func TestRender_VideoDirectoryIsNotAVideo(t *testing.T) {
	rc := newRC(t)
	require.NoError(t, os.MkdirAll(filepath.Join(rc.OutputDir, "assets", "scroll_demo.mp4"), 0755))

	data, err := Render(rc)
	require.NoError(t, err)
	assert.NotContains(t, string(data), VideoLine)
}

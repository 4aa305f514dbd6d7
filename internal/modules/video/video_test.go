package video

import (
	"context"
	"errors"
	"mediakit/internal/models"
	"mediakit/internal/modules/browser/browsertest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setup(t *testing.T) (*Stage, *browsertest.Browser, *models.RunContext, string) {
	t.Helper()
	b := browsertest.New()
	s := New(b)
	s.tempDir = t.TempDir()

	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(out, models.AssetsDir), 0755))
	return s, b, &models.RunContext{URL: "http://example.com", OutputDir: out}, s.tempDir
}

func assertNoRecordingDirs(t *testing.T, parent string) {
	t.Helper()
	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries, "recording dir must be removed")
}

func TestStage_RecordsAndMovesVideo(t *testing.T) {
	s, b, rc, parent := setup(t)

	require.NoError(t, s.Execute(context.Background(), rc, zaptest.NewLogger(t)))

	assert.Equal(t, []string{"goto http://example.com", "evaluate", "close"}, b.Recording.CallLog())
	assert.Equal(t, models.Desktop, b.RecordSize)
	assert.Equal(t, parent, filepath.Dir(b.RecordingDir))

	data, err := os.ReadFile(filepath.Join(rc.OutputDir, "assets", "scroll_demo.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "webm", string(data))
	assertNoRecordingDirs(t, parent)
}

func TestStage_NavigationFailure(t *testing.T) {
	s, b, rc, parent := setup(t)
	b.Recording.GotoErr = errors.New("navigation timeout")

	err := s.Execute(context.Background(), rc, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, b.Recording.GotoErr)

	assert.True(t, b.Recording.Closed(), "context must be closed even on failure")
	assert.NoFileExists(t, filepath.Join(rc.OutputDir, "assets", "scroll_demo.mp4"))
	assertNoRecordingDirs(t, parent)
}

func TestStage_AnimationFailure(t *testing.T) {
	s, b, rc, parent := setup(t)
	b.Recording.EvaluateErr = errors.New("execution context was destroyed")

	err := s.Execute(context.Background(), rc, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, b.Recording.EvaluateErr)
	assert.True(t, b.Recording.Closed())
	assert.NoFileExists(t, filepath.Join(rc.OutputDir, "assets", "scroll_demo.mp4"))
	assertNoRecordingDirs(t, parent)
}

func TestStage_NoFileRecorded(t *testing.T) {
	s, b, rc, parent := setup(t)
	b.VideoData = nil

	err := s.Execute(context.Background(), rc, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, ErrNoVideo)
	assertNoRecordingDirs(t, parent)
}

func TestStage_CloseFailure(t *testing.T) {
	s, b, rc, parent := setup(t)
	b.VideoData = nil
	closeErr := errors.New("browser has been closed")
	b.Recording.OnClose = func() error { return closeErr }

	err := s.Execute(context.Background(), rc, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, closeErr)
	assertNoRecordingDirs(t, parent)
}

func TestStage_ContextOpenFailure(t *testing.T) {
	s, b, rc, parent := setup(t)
	b.NewRecordingErr = errors.New("browser closed")

	err := s.Execute(context.Background(), rc, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, b.NewRecordingErr)
	assertNoRecordingDirs(t, parent)
}

func TestScrollScript(t *testing.T) {
	assert.Contains(t, scrollScript, "requestAnimationFrame")
	assert.Contains(t, scrollScript, "const duration = 10000;")
	assert.Contains(t, scrollScript, "window.innerHeight")
	assert.NotContains(t, scrollScript, "setInterval")
	assert.True(t, strings.HasPrefix(scrollScript, "async () =>"))
}

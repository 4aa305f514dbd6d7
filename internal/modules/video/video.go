// Package video records a scroll-through of the page in a dedicated
// recording context and stores the result as assets/scroll_demo.mp4.
package video

import (
	"context"
	"errors"
	"fmt"
	"mediakit/internal/models"
	"mediakit/internal/modules/browser"
	"mediakit/internal/modules/persistence"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// ScrollDuration is how long the page takes to scroll from top to bottom.
const ScrollDuration = 10 * time.Second

// ErrNoVideo is returned when the recording context produced no file.
var ErrNoVideo = errors.New("no video file recorded")

// scrollScript interpolates the scroll offset linearly from 0 to
// (document height - viewport height) over the duration, one step per
// animation frame, and resolves when the duration has elapsed.
var scrollScript = fmt.Sprintf(`async () => {
	const height = Math.max(
		document.body ? document.body.scrollHeight : 0,
		document.documentElement.scrollHeight
	);
	const distance = Math.max(0, height - window.innerHeight);
	const duration = %d;
	await new Promise(resolve => {
		let start;
		const step = timestamp => {
			if (start === undefined) start = timestamp;
			const elapsed = timestamp - start;
			window.scrollTo(0, distance * Math.min(elapsed / duration, 1));
			if (elapsed < duration) {
				window.requestAnimationFrame(step);
			} else {
				resolve();
			}
		};
		window.requestAnimationFrame(step);
	});
}`, ScrollDuration.Milliseconds())

// Recorder is satisfied by *browser.Session.
type Recorder interface {
	NewRecordingPage(dir string, size models.Viewport) (browser.Page, error)
}

type Stage struct {
	recorder Recorder
	size     models.Viewport
	tempDir  string // parent for the recording directory; "" means os.TempDir
}

func New(recorder Recorder) *Stage {
	return &Stage{recorder: recorder, size: models.Desktop}
}

func (s *Stage) Name() string { return "video" }

// Execute records into a fresh temporary directory, then moves the first
// recorded file into the assets directory. The temporary directory is always
// removed. When navigation or the scroll fails nothing is moved.
func (s *Stage) Execute(ctx context.Context, rc *models.RunContext, logger *zap.Logger) error {
	logger.Info("recording scroll video", zap.String("url", rc.URL), zap.Duration("duration", ScrollDuration))

	tmp, err := os.MkdirTemp(s.tempDir, "mediakit-video-*")
	if err != nil {
		return fmt.Errorf("create recording dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmp); err != nil {
			logger.Warn("failed to remove recording dir", zap.String("dir", tmp), zap.Error(err))
		}
	}()

	if err := s.record(ctx, tmp, rc.URL); err != nil {
		return err
	}
	logger.Info("scroll animation complete")

	src, err := firstFile(tmp)
	if err != nil {
		return err
	}
	if _, err := persistence.New(rc.OutputDir).MoveInto(src, models.AssetsDir, models.VideoFile); err != nil {
		return fmt.Errorf("move video: %w", err)
	}

	logger.Info("video saved", zap.String("file", models.VideoFile))
	return nil
}

// record drives the recording page. The page is closed on every path since
// closing is what flushes the video to dir.
func (s *Stage) record(ctx context.Context, dir, url string) (err error) {
	page, err := s.recorder.NewRecordingPage(dir, s.size)
	if err != nil {
		return err
	}
	// A failed close means the flush is unconfirmed; the recording is discarded.
	defer func() {
		if cerr := page.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close recording context: %w", cerr))
		}
	}()

	if err := page.Goto(url); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return page.Evaluate(scrollScript)
}

func firstFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read recording dir: %w", err)
	}
	for _, e := range entries {
		if e.Type().IsRegular() {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", ErrNoVideo
}

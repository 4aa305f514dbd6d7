package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakePWPage struct {
	playwright.Page
	closed int
}

func (f *fakePWPage) Close(options ...playwright.PageCloseOptions) error {
	f.closed++
	return nil
}

type fakePWContext struct {
	playwright.BrowserContext
	closed int
}

func (f *fakePWContext) Close(options ...playwright.BrowserContextCloseOptions) error {
	f.closed++
	return nil
}

type fakePWBrowser struct {
	playwright.Browser
	closed int
	err    error
}

func (f *fakePWBrowser) Close(options ...playwright.BrowserCloseOptions) error {
	f.closed++
	return f.err
}

func TestPage_CloseOnce(t *testing.T) {
	pg := &fakePWPage{}
	p := &page{page: pg}

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, pg.closed)
}

func TestPage_RecordingCloseClosesContext(t *testing.T) {
	pg := &fakePWPage{}
	ctx := &fakePWContext{}
	p := &page{page: pg, context: ctx}

	require.NoError(t, p.Close())
	assert.Equal(t, 1, ctx.closed)
	assert.Equal(t, 0, pg.closed, "page is closed by its context")
}

func TestSession_CloseReleasesEverythingOnce(t *testing.T) {
	b := &fakePWBrowser{}
	s := newSession(nil, b, Options{}, zaptest.NewLogger(t))

	plain := &fakePWPage{}
	recCtx := &fakePWContext{}
	s.track(&page{page: plain})
	s.track(&page{page: &fakePWPage{}, context: recCtx})

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Equal(t, 1, plain.closed)
	assert.Equal(t, 1, recCtx.closed)
	assert.Equal(t, 1, b.closed)
}

func TestSession_ClosedPagesAreUntracked(t *testing.T) {
	s := newSession(nil, &fakePWBrowser{}, Options{}, zaptest.NewLogger(t))

	first := s.track(&page{page: &fakePWPage{}})
	s.track(&page{page: &fakePWPage{}, context: &fakePWContext{}})
	require.Len(t, s.pages, 2)

	require.NoError(t, first.Close())
	require.Len(t, s.pages, 1)
	assert.NotSame(t, first, s.pages[0])

	require.NoError(t, s.Close())
	assert.Empty(t, s.pages)
}

func TestLaunch_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Launch(ctx, Options{Install: true}, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, ErrLaunch)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSession_CloseReportsBrowserError(t *testing.T) {
	b := &fakePWBrowser{err: errors.New("boom")}
	s := newSession(nil, b, Options{}, zaptest.NewLogger(t))

	err := s.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close browser")
	assert.Equal(t, err, s.Close())
}

func TestSession_WatchReleasesOnCancel(t *testing.T) {
	b := &fakePWBrowser{}
	s := newSession(nil, b, Options{}, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	go s.watch(ctx)
	cancel()

	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("session was not released after cancellation")
	}
	assert.Equal(t, 1, b.closed)

	// A later deferred Close is a no-op.
	require.NoError(t, s.Close())
	assert.Equal(t, 1, b.closed)
}

func TestSession_WatchExitsOnClose(t *testing.T) {
	s := newSession(nil, &fakePWBrowser{}, Options{}, zaptest.NewLogger(t))

	exited := make(chan struct{})
	go func() {
		s.watch(context.Background())
		close(exited)
	}()

	require.NoError(t, s.Close())
	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not exit after Close")
	}
}

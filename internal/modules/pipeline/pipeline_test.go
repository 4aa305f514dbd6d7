package pipeline

import (
	"context"
	"errors"
	"mediakit/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type mockStage struct {
	name    string
	process func(ctx context.Context) error
	calls   *[]string
}

func (m *mockStage) Name() string { return m.name }

func (m *mockStage) Execute(ctx context.Context, rc *models.RunContext, logger *zap.Logger) error {
	*m.calls = append(*m.calls, m.name)
	if m.process == nil {
		return nil
	}
	return m.process(ctx)
}

func TestPipeline_RunsInOrderAndContinuesOnError(t *testing.T) {
	logger := zaptest.NewLogger(t)
	p := New(logger)
	var calls []string

	p.AddStage(&mockStage{name: "screenshots", calls: &calls})
	p.AddStage(&mockStage{name: "video", calls: &calls, process: func(ctx context.Context) error {
		return errors.New("navigation failed")
	}})
	p.AddStage(&mockStage{name: "favicon", calls: &calls, process: func(ctx context.Context) error {
		panic("unexpected nil")
	}})
	p.AddStage(&mockStage{name: "metadata", calls: &calls})

	results, err := p.Run(context.Background(), &models.RunContext{})
	require.NoError(t, err)

	assert.Equal(t, []string{"screenshots", "video", "favicon", "metadata"}, calls)
	require.Len(t, results, 4)
	assert.True(t, results[0].OK())
	assert.EqualError(t, results[1].Err, "navigation failed")
	assert.ErrorIs(t, results[2].Err, ErrStagePanic)
	assert.True(t, results[3].OK())
	assert.Equal(t, 2, Failed(results))
}

func TestPipeline_Cancel(t *testing.T) {
	logger := zaptest.NewLogger(t)
	p := New(logger)
	var calls []string

	ctx, cancel := context.WithCancel(context.Background())
	p.AddStage(&mockStage{name: "first", calls: &calls, process: func(ctx context.Context) error {
		cancel()
		return nil
	}})
	p.AddStage(&mockStage{name: "second", calls: &calls})

	results, err := p.Run(ctx, &models.RunContext{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"first"}, calls)
	assert.Len(t, results, 1)
}

func TestPipeline_Empty(t *testing.T) {
	p := New(zaptest.NewLogger(t))
	results, err := p.Run(context.Background(), &models.RunContext{})
	assert.NoError(t, err)
	assert.Empty(t, results)
}

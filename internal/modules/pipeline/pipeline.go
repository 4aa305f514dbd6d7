package pipeline

import (
	"context"
	"errors"
	"fmt"
	"mediakit/internal/models"
	"time"

	"go.uber.org/zap"
)

// ErrStagePanic wraps a panic recovered from a stage.
var ErrStagePanic = errors.New("stage panicked")

// Stage defines the interface for a pipeline stage.
// Each stage reads the shared run context and writes its own output files.
type Stage interface {
	Name() string
	Execute(ctx context.Context, rc *models.RunContext, logger *zap.Logger) error
}

// Result is the outcome of one stage. A nil Err means the stage succeeded.
type Result struct {
	Stage    string
	Err      error
	Duration time.Duration
}

func (r Result) OK() bool { return r.Err == nil }

// Pipeline runs stages one after another and keeps going when a stage fails.
type Pipeline struct {
	stages []Stage     // List of stages in the pipeline
	logger *zap.Logger // Logger for pipeline-wide logging
}

// New creates a new Pipeline instance with the given logger.
//
// Parameters:
//   - logger: Logger for logging pipeline events.
//
// Returns:
//   - A pointer to a new Pipeline instance.
func New(logger *zap.Logger) *Pipeline {
	return &Pipeline{
		logger: logger,
	}
}

// AddStage adds a stage to the pipeline's sequence.
//
// Parameters:
//   - stage: The stage to add.
func (p *Pipeline) AddStage(stage Stage) {
	p.stages = append(p.stages, stage)
}

// Run executes the stages sequentially in the order they were added.
//
// A stage error or panic is recorded in that stage's Result and the next stage
// still runs. Cancellation is checked between stages.
//
// Parameters:
//   - ctx: Context for cancellation.
//   - rc: Run context handed to every stage.
//
// Returns:
//   - One Result per stage that ran.
//   - ctx.Err() if the run was cancelled before all stages ran, nil otherwise.
func (p *Pipeline) Run(ctx context.Context, rc *models.RunContext) ([]Result, error) {
	if len(p.stages) == 0 {
		p.logger.Warn("no stages in pipeline")
		return nil, nil
	}

	results := make([]Result, 0, len(p.stages))
	for idx, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			p.logger.Info("pipeline canceled", zap.Int("stage", idx), zap.Error(err))
			return results, err
		}

		start := time.Now()
		err := p.execute(ctx, stage, rc)
		res := Result{Stage: stage.Name(), Err: err, Duration: time.Since(start)}
		results = append(results, res)

		if err != nil {
			p.logger.Warn("stage failed",
				zap.String("stage", res.Stage),
				zap.Duration("duration", res.Duration),
				zap.Error(err))
			continue
		}
		p.logger.Debug("stage completed",
			zap.String("stage", res.Stage),
			zap.Duration("duration", res.Duration))
	}

	if err := ctx.Err(); err != nil {
		p.logger.Info("pipeline canceled", zap.Error(err))
		return results, err
	}

	p.logger.Info("pipeline completed", zap.Int("failed", Failed(results)))
	return results, nil
}

func (p *Pipeline) execute(ctx context.Context, stage Stage, rc *models.RunContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStagePanic, r)
		}
	}()
	return stage.Execute(ctx, rc, p.logger)
}

// Failed counts the results that carry an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}

package request

import (
	"context"
	"fmt"

	"github.com/sipeat/sipeat-events/pkg/events"
	"go.uber.org/zap"
)

// pipeline runs its stages in order and stops at the first failure.
type pipeline struct {
	stages []Stage
	log    *zap.Logger
}

func newPipeline(log *zap.Logger, stages ...Stage) *pipeline {
	return &pipeline{stages: stages, log: log}
}

func (p *pipeline) Process(ctx context.Context, request events.RequestCreated) error {
	for _, stage := range p.stages {
		if err := stage.Handle(ctx, request); err != nil {
			p.log.Error("pipeline stage failed, aborting request",
				zap.String("stage", stage.Name()),
				zap.String("request_id", request.RequestID),
				zap.Error(err))
			return fmt.Errorf("%s: %w", stage.Name(), err)
		}
	}
	return nil
}

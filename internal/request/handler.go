package request

import (
	"context"
	"math/rand"
	"time"

	"github.com/sipeat/sipeat-events/internal/discord"
	"github.com/sipeat/sipeat-events/pkg/events"
	"go.uber.org/zap"
)

// Handler processes request.created events through the fulfillment
// pipeline and publishes one side-channel notification per event.
type Handler struct {
	notifier discord.Notifier
	log      *zap.Logger
	stages   []Stage
}

func NewHandler(notifier discord.Notifier, log *zap.Logger) *Handler {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Handler{
		notifier: notifier,
		log:      log,
		stages: []Stage{
			&inventoryStage{rng: rng, failRate: outOfStockRate, log: log},
			&paymentStage{rng: rng, failRate: paymentFailureRate, log: log},
			&dispenseStage{rng: rng, failRate: dispenseFaultRate, log: log},
			&notificationStage{log: log},
		},
	}
}

func (h *Handler) Kind() events.Kind { return events.KindRequestCreated }

func (h *Handler) Handle(ctx context.Context, envelope events.Envelope) error {
	request, err := events.Decode[events.RequestCreated](envelope)
	if err != nil {
		h.notifier.Publish(ctx, envelope.Type, envelope.Data, false, err)
		return err
	}

	h.log.Info("processing drink request",
		zap.String("request_id", request.RequestID),
		zap.String("customer", request.CustomerName),
		zap.String("drink", request.DrinkName))

	err = newPipeline(h.log, h.stages...).Process(ctx, request)
	h.notifier.Publish(ctx, envelope.Type, envelope.Data, err == nil, err)
	if err != nil {
		h.log.Error("request processing failed",
			zap.String("request_id", request.RequestID),
			zap.Error(err))
		return err
	}

	h.log.Info("request processing completed",
		zap.String("request_id", request.RequestID),
		zap.String("customer", request.CustomerName))
	return nil
}

package contact

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sipeat/sipeat-events/internal/discord"
	"github.com/sipeat/sipeat-events/pkg/events"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	maxAttempts    = 3
	retryBaseDelay = time.Second
)

// Handler processes contact.created events. All strategies run in
// parallel and each gets a few attempts before the event as a whole is
// considered failed. Whatever the outcome, exactly one side-channel
// notification is published.
type Handler struct {
	strategies []Strategy
	notifier   discord.Notifier
	log        *zap.Logger

	// retryDelay is the base of the linear retry schedule, overridable
	// in tests.
	retryDelay time.Duration
}

func NewHandler(notifier discord.Notifier, log *zap.Logger) *Handler {
	return &Handler{
		strategies: []Strategy{
			NewEmailStrategy(log),
			NewSalesStrategy(log),
			NewCRMStrategy(log),
		},
		notifier:   notifier,
		log:        log,
		retryDelay: retryBaseDelay,
	}
}

func (h *Handler) Kind() events.Kind { return events.KindContactCreated }

func (h *Handler) Handle(ctx context.Context, envelope events.Envelope) error {
	contact, err := events.Decode[events.ContactCreated](envelope)
	if err != nil {
		h.notifier.Publish(ctx, envelope.Type, envelope.Data, false, err)
		return err
	}

	h.log.Info("processing new contact",
		zap.String("contact_id", contact.ContactID),
		zap.String("email", contact.Email),
		zap.Int("lead_score", LeadScore(contact)))

	err = h.runStrategies(ctx, contact)
	h.notifier.Publish(ctx, envelope.Type, envelope.Data, err == nil, err)
	if err != nil {
		h.log.Error("contact workflow failed",
			zap.String("contact_id", contact.ContactID),
			zap.Error(err))
		return err
	}

	h.log.Info("contact workflow completed", zap.String("contact_id", contact.ContactID))
	return nil
}

func (h *Handler) runStrategies(ctx context.Context, contact events.ContactCreated) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, strategy := range h.strategies {
		group.Go(func() error {
			return h.sendWithRetry(ctx, strategy, contact)
		})
	}
	return group.Wait()
}

func (h *Handler) sendWithRetry(ctx context.Context, strategy Strategy, contact events.ContactCreated) error {
	attempt := 0
	policy := backoff.WithContext(newRetryPolicy(h.retryDelay, maxAttempts), ctx)

	return backoff.Retry(func() error {
		attempt++
		if err := strategy.Send(ctx, contact); err != nil {
			h.log.Warn("notification strategy failed",
				zap.String("strategy", strategy.Name()),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		return nil
	}, policy)
}

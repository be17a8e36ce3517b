package discord

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sipeat/sipeat-events/pkg/events"
	"github.com/sipeat/sipeat-events/pkg/kafka/producer"
	"go.uber.org/zap"
)

const notifierSource = "sipeat-discord-service"

// Notifier publishes workflow outcomes onto the side-channel topic. It
// never fails the caller: every workflow emits exactly one notification per
// run regardless of its own outcome, and a broken side channel must not
// change that outcome.
type Notifier interface {
	Publish(ctx context.Context, kind events.Kind, original json.RawMessage, success bool, cause error)
}

type notifier struct {
	publisher producer.Publisher
	log       *zap.Logger
}

func NewNotifier(publisher producer.Publisher, log *zap.Logger) Notifier {
	return &notifier{publisher: publisher, log: log}
}

func (n *notifier) Publish(ctx context.Context, kind events.Kind, original json.RawMessage, success bool, cause error) {
	payload := events.DiscordNotification{
		EventType:      kind.String(),
		OriginalEvent:  original,
		Success:        success,
		NotificationID: "discord-" + uuid.New().String(),
	}
	if cause != nil {
		payload.Error = cause.Error()
	}

	envelope, err := events.New(events.KindDiscordNotification, notifierSource, payload)
	if err != nil {
		n.log.Error("failed to build discord notification event",
			zap.String("event_type", kind.String()),
			zap.Error(err))
		return
	}

	if err := n.publisher.Publish(ctx, events.TopicDiscord, envelope); err != nil {
		n.log.Error("failed to publish discord notification event",
			zap.String("event_type", kind.String()),
			zap.String("notification_id", payload.NotificationID),
			zap.Error(err))
		return
	}

	n.log.Debug("discord notification event published",
		zap.String("event_type", kind.String()),
		zap.Bool("success", success),
		zap.String("notification_id", payload.NotificationID))
}

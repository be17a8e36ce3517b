package discord

import (
	"context"

	"github.com/sipeat/sipeat-events/pkg/events"
	"go.uber.org/zap"
)

// Handler consumes discord.notification events and performs the actual
// webhook call. A notification that cannot be delivered after retries is
// dropped; there is no dead-letter path for the side channel.
type Handler struct {
	sender Sender
	cfg    Config
	log    *zap.Logger
}

func NewHandler(sender Sender, cfg Config, log *zap.Logger) *Handler {
	return &Handler{sender: sender, cfg: cfg, log: log}
}

func (h *Handler) Kind() events.Kind { return events.KindDiscordNotification }

func (h *Handler) Handle(ctx context.Context, envelope events.Envelope) error {
	notification, err := events.Decode[events.DiscordNotification](envelope)
	if err != nil {
		return err
	}

	message := buildMessage(notification, h.cfg.Username, h.cfg.AvatarURL)
	if err := h.sender.Send(ctx, message); err != nil {
		h.log.Error("dropping undeliverable discord notification",
			zap.String("notification_id", notification.NotificationID),
			zap.String("event_type", notification.EventType),
			zap.Error(err))
		return err
	}

	h.log.Info("discord notification delivered",
		zap.String("notification_id", notification.NotificationID),
		zap.String("event_type", notification.EventType),
		zap.Bool("success", notification.Success))
	return nil
}

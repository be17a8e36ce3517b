package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	maxSendAttempts = 3
	retryDelay      = time.Second
)

// Sender delivers a rendered message to the external webhook endpoint.
type Sender interface {
	Send(ctx context.Context, message Message) error
}

type webhookSender struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewWebhookSender(cfg Config, log *zap.Logger) Sender {
	return &webhookSender{
		url:     cfg.WebhookURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(cfg.SendRate), 1),
		log:     log,
	}
}

// Send posts the message, honoring Discord's rate limiting: a 429 response
// waits for the server-provided Retry-After (falling back to one second),
// any other failure retries on a fixed one-second delay. Three attempts
// total; an exhausted message is the caller's to drop.
func (s *webhookSender) Send(ctx context.Context, message Message) error {
	if s.url == "" {
		s.log.Warn("discord webhook URL not configured, dropping notification")
		return nil
	}

	payload, err := json.Marshal(applyLimits(message))
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	constant := backoff.NewConstantBackOff(retryDelay)
	constant.Reset()

	var lastErr error
	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		retryAfter, err := s.post(ctx, payload)
		if err == nil {
			s.log.Debug("discord message sent", zap.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		if attempt == maxSendAttempts {
			break
		}

		delay := constant.NextBackOff()
		if retryAfter > 0 {
			delay = retryAfter
		}
		s.log.Warn("discord send attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("failed to send discord message after %d attempts: %w", maxSendAttempts, lastErr)
}

// post performs one webhook call. A non-zero retryAfter is returned for
// rate-limit responses.
func (s *webhookSender) post(ctx context.Context, payload []byte) (retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter = retryDelay
		if header := resp.Header.Get("Retry-After"); header != "" {
			if seconds, parseErr := strconv.Atoi(header); parseErr == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return retryAfter, fmt.Errorf("discord rate limit hit")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("discord webhook error (%d): %s", resp.StatusCode, string(body))
	}
	return 0, nil
}

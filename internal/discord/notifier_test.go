package discord

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/sipeat/sipeat-events/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePublisher struct {
	mu        sync.Mutex
	published []publishedEvent
	err       error
}

type publishedEvent struct {
	topic    events.Topic
	envelope events.Envelope
}

func (p *fakePublisher) Publish(ctx context.Context, topic events.Topic, envelope events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, publishedEvent{topic: topic, envelope: envelope})
	return nil
}

func (p *fakePublisher) Close() {}

func TestNotifierPublishSuccess(t *testing.T) {
	publisher := &fakePublisher{}
	n := NewNotifier(publisher, zap.NewNop())

	original := json.RawMessage(`{"contactId":"c-1"}`)
	n.Publish(context.Background(), events.KindContactCreated, original, true, nil)

	require.Len(t, publisher.published, 1)
	published := publisher.published[0]
	assert.Equal(t, events.TopicDiscord, published.topic)
	assert.Equal(t, events.KindDiscordNotification, published.envelope.Type)
	assert.Equal(t, notifierSource, published.envelope.Source)

	payload, err := events.Decode[events.DiscordNotification](published.envelope)
	require.NoError(t, err)
	assert.Equal(t, "contact.created", payload.EventType)
	assert.True(t, payload.Success)
	assert.Empty(t, payload.Error)
	assert.JSONEq(t, string(original), string(payload.OriginalEvent))
	assert.Contains(t, payload.NotificationID, "discord-")
}

func TestNotifierPublishFailureCarriesError(t *testing.T) {
	publisher := &fakePublisher{}
	n := NewNotifier(publisher, zap.NewNop())

	n.Publish(context.Background(), events.KindMachineCreated, json.RawMessage(`{}`), false, errors.New("setup failed"))

	require.Len(t, publisher.published, 1)
	payload, err := events.Decode[events.DiscordNotification](publisher.published[0].envelope)
	require.NoError(t, err)
	assert.False(t, payload.Success)
	assert.Equal(t, "setup failed", payload.Error)
}

func TestNotifierSwallowsPublishErrors(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("broker down")}
	n := NewNotifier(publisher, zap.NewNop())

	require.NotPanics(t, func() {
		n.Publish(context.Background(), events.KindRequestCreated, json.RawMessage(`{}`), true, nil)
	})
	assert.Empty(t, publisher.published)
}

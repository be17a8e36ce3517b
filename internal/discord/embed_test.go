package discord

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/sipeat/sipeat-events/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessageSuccess(t *testing.T) {
	original, err := json.Marshal(map[string]any{
		"contactId":    "c-1",
		"name":         "Dana",
		"company_name": "SipEat",
	})
	require.NoError(t, err)

	msg := buildMessage(events.DiscordNotification{
		EventType:      "contact.created",
		OriginalEvent:  original,
		Success:        true,
		NotificationID: "discord-1",
	}, "SipEat Kafka", "")

	assert.Equal(t, "📝 **contact.created** event processed", msg.Content)
	assert.Equal(t, "SipEat Kafka", msg.Username)
	require.Len(t, msg.Embeds, 1)

	embed := msg.Embeds[0]
	assert.Equal(t, "📝 New Contact Form Submission", embed.Title)
	assert.Equal(t, colorSuccess, embed.Color)
	require.NotNil(t, embed.Footer)
	assert.Equal(t, "Successfully processed", embed.Footer.Text)

	// Fields come out in key order.
	require.Len(t, embed.Fields, 3)
	assert.Equal(t, "Company name", embed.Fields[0].Name)
	assert.Equal(t, "SipEat", embed.Fields[0].Value)
	assert.Equal(t, "ContactId", embed.Fields[1].Name)
	assert.Equal(t, "Name", embed.Fields[2].Name)
	assert.True(t, embed.Fields[0].Inline)
}

func TestBuildMessageFailureAppendsError(t *testing.T) {
	msg := buildMessage(events.DiscordNotification{
		EventType:     "machine.created",
		OriginalEvent: json.RawMessage(`{"machineId":"m-1"}`),
		Success:       false,
		Error:         "location Restricted Zone is not authorized for machine placement",
	}, "SipEat Kafka", "")

	assert.Equal(t, "🤖 **machine.created** event failed", msg.Content)
	require.Len(t, msg.Embeds, 1)

	embed := msg.Embeds[0]
	assert.Equal(t, colorFailure, embed.Color)
	assert.Equal(t, "Processing failed", embed.Footer.Text)

	last := embed.Fields[len(embed.Fields)-1]
	assert.Equal(t, "Error", last.Name)
	assert.Contains(t, last.Value, "not authorized")
	assert.False(t, last.Inline)
}

func TestTitleForEvent(t *testing.T) {
	tests := []struct {
		eventType string
		title     string
		icon      string
	}{
		{eventType: "contact.created", title: "New Contact Form Submission", icon: "📝"},
		{eventType: "request.created", title: "New Drink Request", icon: "🥤"},
		{eventType: "machine.created", title: "New Machine Added", icon: "🤖"},
		{eventType: "something.else", title: "Kafka Event", icon: "🔔"},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			title, icon := titleForEvent(tt.eventType)
			assert.Equal(t, tt.title, title)
			assert.Equal(t, tt.icon, icon)
		})
	}
}

func TestPayloadFields(t *testing.T) {
	fields := payloadFields(json.RawMessage(`{
		"drink_name": "Water",
		"machine_id": null,
		"customer_name": "",
		"count": 3,
		"nested": {"a": 1}
	}`))

	require.Len(t, fields, 5)
	byName := map[string]string{}
	for _, f := range fields {
		byName[f.Name] = f.Value
	}
	assert.Equal(t, "Water", byName["Drink name"])
	assert.Equal(t, "N/A", byName["Machine id"])
	assert.Equal(t, "N/A", byName["Customer name"])
	assert.Equal(t, "3", byName["Count"])
	assert.JSONEq(t, `{"a":1}`, byName["Nested"])
}

func TestPayloadFieldsMalformed(t *testing.T) {
	assert.Nil(t, payloadFields(json.RawMessage(`not json`)))
	assert.Nil(t, payloadFields(json.RawMessage(`{}`)))
}

func TestTruncateValue(t *testing.T) {
	short := strings.Repeat("a", maxFieldValue)
	assert.Equal(t, short, truncateValue(short))

	long := strings.Repeat("a", maxFieldValue+100)
	truncated := truncateValue(long)
	assert.Len(t, truncated, maxFieldValue)
	assert.True(t, strings.HasSuffix(truncated, "..."))
	assert.Equal(t, strings.Repeat("a", maxFieldValue-3), strings.TrimSuffix(truncated, "..."))
}

func TestApplyLimits(t *testing.T) {
	fields := make([]Field, 30)
	for i := range fields {
		fields[i] = Field{Name: "f", Value: strings.Repeat("x", 2000)}
	}
	embeds := make([]Embed, 12)
	for i := range embeds {
		embeds[i] = Embed{Fields: fields}
	}

	limited := applyLimits(Message{Embeds: embeds})

	assert.Len(t, limited.Embeds, maxEmbeds)
	for _, e := range limited.Embeds {
		assert.Len(t, e.Fields, maxFields)
		for _, f := range e.Fields {
			assert.LessOrEqual(t, len(f.Value), maxFieldValue)
		}
	}
}

func TestFieldName(t *testing.T) {
	assert.Equal(t, "Company name", fieldName("company_name"))
	assert.Equal(t, "Name", fieldName("name"))
	assert.Equal(t, "", fieldName(""))
}

package discord

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sipeat/sipeat-events/pkg/events"
)

// Discord's published message limits.
const (
	maxFields     = 25
	maxFieldValue = 1024
	maxEmbeds     = 10
	colorSuccess  = 0x00FF00
	colorFailure  = 0xFF0000
)

// Message is the webhook payload.
type Message struct {
	Content   string  `json:"content"`
	Username  string  `json:"username,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Embeds    []Embed `json:"embeds,omitempty"`
}

type Embed struct {
	Title     string  `json:"title,omitempty"`
	Color     int     `json:"color,omitempty"`
	Fields    []Field `json:"fields,omitempty"`
	Footer    *Footer `json:"footer,omitempty"`
	Timestamp string  `json:"timestamp,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type Footer struct {
	Text string `json:"text"`
}

func titleForEvent(eventType string) (title, icon string) {
	switch events.Kind(eventType) {
	case events.KindContactCreated:
		return "New Contact Form Submission", "📝"
	case events.KindRequestCreated:
		return "New Drink Request", "🥤"
	case events.KindMachineCreated:
		return "New Machine Added", "🤖"
	default:
		return "Kafka Event", "🔔"
	}
}

// buildMessage renders a side-channel notification as a webhook message:
// one embed titled after the original event, one inline field per key of
// the original payload, green on success and red on failure.
func buildMessage(n events.DiscordNotification, username, avatarURL string) Message {
	title, icon := titleForEvent(n.EventType)

	color := colorSuccess
	footer := "Successfully processed"
	outcome := "processed"
	if !n.Success {
		color = colorFailure
		footer = "Processing failed"
		outcome = "failed"
	}

	fields := payloadFields(n.OriginalEvent)
	if n.Error != "" {
		fields = append(fields, Field{Name: "Error", Value: n.Error, Inline: false})
	}

	embed := Embed{
		Title:     icon + " " + title,
		Color:     color,
		Fields:    fields,
		Footer:    &Footer{Text: footer},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	return Message{
		Content:   fmt.Sprintf("%s **%s** event %s", icon, n.EventType, outcome),
		Username:  username,
		AvatarURL: avatarURL,
		Embeds:    []Embed{embed},
	}
}

// payloadFields turns the original payload's key/value pairs into embed
// fields, in key order so the output is stable.
func payloadFields(original json.RawMessage) []Field {
	var data map[string]any
	if err := json.Unmarshal(original, &data); err != nil || len(data) == 0 {
		return nil
	}

	keys := lo.Keys(data)
	sort.Strings(keys)

	return lo.Map(keys, func(key string, _ int) Field {
		return Field{
			Name:   fieldName(key),
			Value:  fieldValue(data[key]),
			Inline: true,
		}
	})
}

// fieldName capitalizes the key and replaces underscores with spaces.
func fieldName(key string) string {
	name := strings.ReplaceAll(key, "_", " ")
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// fieldValue serializes a payload value to text; nested objects are
// JSON-encoded.
func fieldValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "N/A"
	case string:
		if v == "" {
			return "N/A"
		}
		return v
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "N/A"
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// truncateValue enforces Discord's field value limit with an ellipsis
// marker.
func truncateValue(value string) string {
	if len(value) > maxFieldValue {
		return value[:maxFieldValue-3] + "..."
	}
	return value
}

// applyLimits clamps the message to Discord's documented limits.
func applyLimits(m Message) Message {
	if len(m.Embeds) > maxEmbeds {
		m.Embeds = m.Embeds[:maxEmbeds]
	}
	for i := range m.Embeds {
		fields := m.Embeds[i].Fields
		if len(fields) > maxFields {
			fields = fields[:maxFields]
		}
		m.Embeds[i].Fields = lo.Map(fields, func(f Field, _ int) Field {
			f.Value = truncateValue(f.Value)
			return f
		})
	}
	return m
}

package events

import (
	"fmt"
	"sort"
)

// Topic is a logical channel name, resolved to a concrete broker topic
// through the Topics registry so producer and consumer processes agree on
// the deployed names.
type Topic string

const (
	TopicContact Topic = "contact-events"
	TopicMachine Topic = "machine-events"
	TopicRequest Topic = "request-events"
	TopicDiscord Topic = "discord-notifications"
)

// Default broker topic names, overridable per deployment.
const (
	DefaultContactTopic = "sipeat.contact.events"
	DefaultMachineTopic = "sipeat.machine.events"
	DefaultRequestTopic = "sipeat.request.events"
	DefaultDiscordTopic = "sipeat.discord.notifications"
)

// UnknownTopicError is returned when a logical topic name has no entry in
// the registry.
type UnknownTopicError struct {
	Topic Topic
}

func (e *UnknownTopicError) Error() string {
	return fmt.Sprintf("unknown topic: %q", string(e.Topic))
}

// Topics maps logical topic names to deployed broker topics. It is built
// once at startup and read-only afterwards.
type Topics struct {
	names map[Topic]string
}

// NewTopics builds the registry. Empty overrides fall back to defaults.
func NewTopics(contact, machine, request, discord string) *Topics {
	pick := func(override, def string) string {
		if override != "" {
			return override
		}
		return def
	}
	return &Topics{names: map[Topic]string{
		TopicContact: pick(contact, DefaultContactTopic),
		TopicMachine: pick(machine, DefaultMachineTopic),
		TopicRequest: pick(request, DefaultRequestTopic),
		TopicDiscord: pick(discord, DefaultDiscordTopic),
	}}
}

// Resolve returns the broker topic for a logical name.
func (t *Topics) Resolve(topic Topic) (string, error) {
	name, ok := t.names[topic]
	if !ok {
		return "", &UnknownTopicError{Topic: topic}
	}
	return name, nil
}

// All returns every deployed topic name, for health reporting.
func (t *Topics) All() []string {
	all := make([]string, 0, len(t.names))
	for _, name := range t.names {
		all = append(all, name)
	}
	sort.Strings(all)
	return all
}

// Package events defines the event envelope and payload types flowing
// through the SipEat event bus, plus the logical topic registry.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the logical event type carried by an envelope.
// The set is closed; free-form strings must go through ParseKind so that
// typos fail loudly instead of silently matching no handlers.
type Kind string

const (
	KindContactCreated      Kind = "contact.created"
	KindMachineCreated      Kind = "machine.created"
	KindRequestCreated      Kind = "request.created"
	KindDiscordNotification Kind = "discord.notification"
)

// ParseKind validates a raw event type string against the known set.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindContactCreated, KindMachineCreated, KindRequestCreated, KindDiscordNotification:
		return k, nil
	default:
		return "", fmt.Errorf("unknown event kind: %q", s)
	}
}

func (k Kind) String() string { return string(k) }

// Envelope is the immutable wrapper carried by the bus. The payload is kept
// as raw JSON; the bus never interprets or mutates it.
type Envelope struct {
	ID        string          `json:"id"`
	Type      Kind            `json:"type"`
	Timestamp string          `json:"timestamp"`
	Source    string          `json:"source"`
	Data      json.RawMessage `json:"data"`
}

// New builds an envelope for the given payload, stamping a fresh UUID and
// the current UTC time.
func New(kind Kind, source string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}
	return Envelope{
		ID:        uuid.New().String(),
		Type:      kind,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    source,
		Data:      data,
	}, nil
}

// Unmarshal decodes a raw bus message into an envelope, validating the
// event kind.
func Unmarshal(raw []byte) (Envelope, error) {
	var wire struct {
		ID        string          `json:"id"`
		Type      string          `json:"type"`
		Timestamp string          `json:"timestamp"`
		Source    string          `json:"source"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Envelope{}, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	kind, err := ParseKind(wire.Type)
	if err != nil {
		return Envelope{}, err
	}
	if wire.ID == "" {
		return Envelope{}, fmt.Errorf("envelope is missing id")
	}
	return Envelope{
		ID:        wire.ID,
		Type:      kind,
		Timestamp: wire.Timestamp,
		Source:    wire.Source,
		Data:      wire.Data,
	}, nil
}

// Decode unmarshals the envelope payload into the variant matching its kind.
func Decode[T any](e Envelope) (T, error) {
	var payload T
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return payload, fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return payload, nil
}

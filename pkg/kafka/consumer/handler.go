package consumer

import (
	"context"

	"github.com/sipeat/sipeat-events/pkg/events"
)

// Handler processes envelopes of a single event kind. Multiple handlers may
// be registered for the same kind; all of them are invoked for every
// matching envelope.
type Handler interface {
	// Kind is the event type this handler subscribes to.
	Kind() events.Kind
	// Handle processes one envelope. Errors are logged at the dispatch
	// boundary and never crash the consumer loop.
	Handle(ctx context.Context, envelope events.Envelope) error
}

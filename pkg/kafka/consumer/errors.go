package consumer

import "fmt"

// SubscribeError wraps a failed subscription attempt. Subscription failures
// are fatal to the consumer group and fail process startup.
type SubscribeError struct {
	Topic   string
	GroupID string
	Err     error
}

func (e *SubscribeError) Error() string {
	return fmt.Sprintf("failed to subscribe to topic %s (group %s): %v", e.Topic, e.GroupID, e.Err)
}

func (e *SubscribeError) Unwrap() error { return e.Err }

package counters

import "context"

// MessageID names the counter that issues message identifiers.
const MessageID = "message_id"

type Repository interface {
	// Next increments the named counter and returns its new value.
	Next(ctx context.Context, name string) (int64, error)
}

package event

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the platform input hook or injection
// device cannot be reached.
var ErrUnavailable = errors.New("input capability unavailable")

// ErrUnknownKey is wrapped by injectors that have no way to produce a key.
var ErrUnknownKey = errors.New("key cannot be injected")

// Source delivers live input notifications.
//
// Stream calls emit for every notification, in arrival order, from a single
// goroutine. It returns nil once ctx is done, the error from emit if emit
// fails, and any other error when the underlying capability goes away.
type Source interface {
	Stream(ctx context.Context, emit func(Notification) error) error
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, emit func(Notification) error) error

func (f SourceFunc) Stream(ctx context.Context, emit func(Notification) error) error {
	return f(ctx, emit)
}

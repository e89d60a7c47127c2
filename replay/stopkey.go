package replay

import (
	"context"
	"errors"

	"macrorec/event"
)

var errStopKey = errors.New("stop key pressed")

// WatchStopKey cancels tok when key is pressed on src. It returns when ctx
// is done, after firing, or when src fails.
func WatchStopKey(ctx context.Context, src event.Source, key event.Key, tok *Token) error {
	err := src.Stream(ctx, func(n event.Notification) error {
		if n.Kind == event.KeyPress && n.Key.Equal(key) {
			tok.Cancel()
			return errStopKey
		}
		return nil
	})
	if errors.Is(err, errStopKey) {
		return nil
	}
	return err
}

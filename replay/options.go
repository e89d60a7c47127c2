package replay

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidRepeat = errors.New("repeat count must be at least 1")
	ErrInvalidDelay  = errors.New("start delay must not be negative")
)

const (
	DefaultDelay = 3 * time.Second
	DefaultSlice = 100 * time.Millisecond
	DefaultPause = 500 * time.Millisecond
)

type Options struct {
	// Repeat is how many times the whole log is played.
	Repeat int
	// Delay is waited once before the first event.
	Delay time.Duration
	// Slice bounds each sleep so cancellation is noticed promptly.
	Slice time.Duration
	// Pause separates iterations. It is not applied after the last one.
	Pause time.Duration
}

func DefaultOptions() Options {
	return Options{
		Repeat: 1,
		Delay:  DefaultDelay,
		Slice:  DefaultSlice,
		Pause:  DefaultPause,
	}
}

// Validate rejects out-of-range values rather than clamping them.
func (o Options) Validate() error {
	if o.Repeat < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidRepeat, o.Repeat)
	}
	if o.Delay < 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidDelay, o.Delay)
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.Slice <= 0 {
		o.Slice = DefaultSlice
	}
	if o.Pause < 0 {
		o.Pause = 0
	}
	return o
}

package hotkey

import (
	"context"
	"errors"
	"sync"

	"macrorec/event"
	"macrorec/log"
)

// streamHotkey watches a chord on a shared input Source.
type streamHotkey struct {
	src     event.Source
	chord   Chord
	keydown chan struct{}
	keyup   chan struct{}
	cancel  context.CancelFunc
	once    sync.Once
}

func NewStream(src event.Source, c Chord) Hotkey {
	return &streamHotkey{
		src:     src,
		chord:   c,
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (h *streamHotkey) Register() error {
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	m := NewMatcher(h.chord)
	go func() {
		err := h.src.Stream(ctx, func(n event.Notification) error {
			pressed, released := m.Feed(n)
			if pressed {
				signal(h.keydown)
			}
			if released {
				signal(h.keyup)
			}
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("hotkey %s stream ended: %v", h.chord, err)
		}
	}()
	return nil
}

func (h *streamHotkey) Unregister() {
	h.once.Do(func() {
		if h.cancel != nil {
			h.cancel()
		}
	})
}

func (h *streamHotkey) Keydown() <-chan struct{} {
	return h.keydown
}

func (h *streamHotkey) Keyup() <-chan struct{} {
	return h.keyup
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

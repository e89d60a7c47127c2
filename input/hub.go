//go:build cgo

package input

import (
	"context"
	"sync"

	hook "github.com/robotn/gohook"

	"macrorec/event"
	"macrorec/log"
)

const (
	wheelVertical = 3
	subBuffer     = 4096
)

// Hub owns the process-wide system hook and fans its notifications out to
// every open stream. The hook starts with the first stream and runs until
// Close.
type Hub struct {
	mu      sync.Mutex
	subs    map[int]chan event.Notification
	next    int
	started bool
	stop    chan struct{}
	stopped chan struct{}
	dropped int
}

func NewHub() *Hub {
	return &Hub{
		subs:    make(map[int]chan event.Notification),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (h *Hub) Stream(ctx context.Context, emit func(event.Notification) error) error {
	h.mu.Lock()
	select {
	case <-h.stopped:
		h.mu.Unlock()
		return event.ErrUnavailable
	default:
	}
	if !h.started {
		h.started = true
		evs := hook.Start()
		log.Info("input hook started")
		go h.pump(evs)
	}
	id := h.next
	h.next++
	ch := make(chan event.Notification, subBuffer)
	h.subs[id] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}()

	for {
		select {
		case n := <-ch:
			if err := emit(n); err != nil {
				return err
			}
			continue
		default:
		}
		select {
		case <-ctx.Done():
			return nil
		case <-h.stopped:
			return event.ErrUnavailable
		case n := <-ch:
			if err := emit(n); err != nil {
				return err
			}
		}
	}
}

func (h *Hub) pump(evs chan hook.Event) {
	defer close(h.stopped)
	for {
		select {
		case <-h.stop:
			return
		case e, ok := <-evs:
			if !ok {
				return
			}
			n, ok := Translate(e)
			if !ok {
				continue
			}
			h.fanout(n)
		}
	}
}

func (h *Hub) fanout(n event.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- n:
		default:
			h.dropped++
			if h.dropped%100 == 1 {
				log.Warnf("input hook subscriber is lagging, %d notifications dropped", h.dropped)
			}
		}
	}
}

// Close stops the system hook. Open streams end with ErrUnavailable.
func (h *Hub) Close() {
	h.mu.Lock()
	select {
	case <-h.stop:
		h.mu.Unlock()
		return
	default:
	}
	close(h.stop)
	started := h.started
	h.started = true
	h.mu.Unlock()

	if !started {
		close(h.stopped)
		return
	}
	hook.End()
	<-h.stopped
}

// Translate converts a raw hook event. Typed-character and click events
// report false, as do keys with the undefined code 0.
func Translate(e hook.Event) (event.Notification, bool) {
	x, y := int32(e.X), int32(e.Y)
	switch e.Kind {
	case hook.KeyHold, hook.KeyUp:
		k, ok := KeyForCode(e.Keycode)
		if !ok {
			return event.Notification{}, false
		}
		if e.Kind == hook.KeyHold {
			return event.Press(k), true
		}
		return event.Release(k), true
	case hook.MouseHold, hook.MouseDown:
		return event.Click(x, y, buttonFor(e.Button), e.Kind == hook.MouseHold), true
	case hook.MouseMove, hook.MouseDrag:
		return event.Move(x, y), true
	case hook.MouseWheel:
		if e.Direction == wheelVertical {
			return event.Scroll(x, y, 0, -e.Rotation), true
		}
		return event.Scroll(x, y, e.Rotation, 0), true
	}
	return event.Notification{}, false
}

func buttonFor(b uint16) event.Button {
	switch b {
	case 1:
		return event.ButtonLeft
	case 2:
		return event.ButtonRight
	case 3:
		return event.ButtonMiddle
	}
	return event.ButtonOther
}

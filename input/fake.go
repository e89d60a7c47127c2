package input

import (
	"context"
	"fmt"
	"sync"
	"time"

	"macrorec/event"
)

// ScriptSource is an in-memory Source. Every Send is delivered to all
// streams open at that moment, in order.
type ScriptSource struct {
	mu     sync.Mutex
	subs   map[int]chan event.Notification
	next   int
	closed chan struct{}
	err    error
}

func NewScriptSource() *ScriptSource {
	return &ScriptSource{
		subs:   make(map[int]chan event.Notification),
		closed: make(chan struct{}),
	}
}

func (s *ScriptSource) Stream(ctx context.Context, emit func(event.Notification) error) error {
	s.mu.Lock()
	select {
	case <-s.closed:
		err := s.err
		s.mu.Unlock()
		return err
	default:
	}
	id := s.next
	s.next++
	ch := make(chan event.Notification, 256)
	s.subs[id] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}()

	for {
		// Deliver anything already queued before honouring cancellation so
		// notifications sent before a stop are not lost.
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
		case <-s.closed:
			return s.err
		case n := <-ch:
			if err := emit(n); err != nil {
				return err
			}
		}
	}
}

// Send queues n for every open stream.
func (s *ScriptSource) Send(ns ...event.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range ns {
		for _, ch := range s.subs {
			ch <- n
		}
	}
}

// Subscribers is the number of open streams.
func (s *ScriptSource) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// WaitSubscribers blocks until at least n streams are open.
func (s *ScriptSource) WaitSubscribers(n int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for s.Subscribers() < n {
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for %d subscribers, have %d", n, s.Subscribers())
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}

// Fail ends every stream with err. Later streams fail immediately.
func (s *ScriptSource) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.closed:
	default:
		s.err = err
		close(s.closed)
	}
}

// Call is one injected action seen by RecordingInjector.
type Call struct {
	Op     string
	X, Y   int32
	Button event.Button
	Down   bool
	Key    string
	At     time.Duration
}

func (c Call) String() string {
	switch c.Op {
	case "move":
		return fmt.Sprintf("move %d,%d", c.X, c.Y)
	case "button":
		return fmt.Sprintf("button %s %v", c.Button, c.Down)
	case "scroll":
		return fmt.Sprintf("scroll %d,%d", c.X, c.Y)
	case "key":
		return fmt.Sprintf("key %s %v", c.Key, c.Down)
	}
	return c.Op
}

// RecordingInjector remembers every call with its offset from creation.
// FailAt makes the n-th call (1-based) return an error.
type RecordingInjector struct {
	mu     sync.Mutex
	start  time.Time
	calls  []Call
	FailAt int
	notify chan struct{}
}

func NewRecordingInjector() *RecordingInjector {
	return &RecordingInjector{start: time.Now(), notify: make(chan struct{}, 1)}
}

func (r *RecordingInjector) add(c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.At = time.Since(r.start)
	r.calls = append(r.calls, c)
	select {
	case r.notify <- struct{}{}:
	default:
	}
	if r.FailAt > 0 && len(r.calls) == r.FailAt {
		return fmt.Errorf("injection %d refused", r.FailAt)
	}
	return nil
}

func (r *RecordingInjector) MoveTo(x, y int32) error {
	return r.add(Call{Op: "move", X: x, Y: y})
}

func (r *RecordingInjector) Button(b event.Button, down bool) error {
	return r.add(Call{Op: "button", Button: b, Down: down})
}

func (r *RecordingInjector) Scroll(dx, dy int32) error {
	return r.add(Call{Op: "scroll", X: dx, Y: dy})
}

func (r *RecordingInjector) Key(name string, down bool) error {
	return r.add(Call{Op: "key", Key: name, Down: down})
}

func (r *RecordingInjector) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Injected is signalled, without blocking, after each call.
func (r *RecordingInjector) Injected() <-chan struct{} { return r.notify }

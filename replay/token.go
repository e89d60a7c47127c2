package replay

import (
	"sync"
	"sync/atomic"
)

// Token is a one-way cancellation flag shared between the replay goroutine
// and whoever may want to stop it.
type Token struct {
	cancelled atomic.Bool
	once      sync.Once
	ch        chan struct{}
}

func NewToken() *Token {
	return &Token{ch: make(chan struct{})}
}

// Cancel may be called any number of times from any goroutine.
func (t *Token) Cancel() {
	t.once.Do(func() {
		t.cancelled.Store(true)
		close(t.ch)
	})
}

func (t *Token) Cancelled() bool { return t.cancelled.Load() }

// Done is closed once Cancel has been called.
func (t *Token) Done() <-chan struct{} { return t.ch }

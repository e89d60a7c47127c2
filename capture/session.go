package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"macrorec/event"
	"macrorec/log"
)

var (
	ErrCaptureAborted = errors.New("capture aborted")
	ErrSessionActive  = errors.New("capture session already active")
)

// Outcome says how a session ended.
type Outcome int

const (
	OutcomeRunning Outcome = iota
	// OutcomeSaved: the save key was pressed and the completion callback ran.
	OutcomeSaved
	// OutcomeDiscarded: the abort key was pressed.
	OutcomeDiscarded
	// OutcomeEnded: the owner called End.
	OutcomeEnded
	// OutcomeAborted: the input source failed.
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRunning:
		return "running"
	case OutcomeSaved:
		return "saved"
	case OutcomeDiscarded:
		return "discarded"
	case OutcomeEnded:
		return "ended"
	case OutcomeAborted:
		return "aborted"
	}
	return "unknown"
}

var errStopped = errors.New("capture stopped by control key")

// Recorder starts capture sessions over a Source, one at a time.
type Recorder struct {
	src      event.Source
	controls Controls

	mu     sync.Mutex
	active *Session
}

func NewRecorder(src event.Source, c Controls) *Recorder {
	return &Recorder{src: src, controls: c}
}

// Begin starts a session. onSave, if not nil, is called with the captured
// log when the save key ends the session; Done is closed once it returns.
func (r *Recorder) Begin(ctx context.Context, onSave func(event.Log)) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return nil, ErrSessionActive
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ID:      uuid.NewString(),
		started: time.Now(),
		filter:  NewFilter(r.controls),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	r.active = s
	log.CaptureStart(s.ID)

	go s.run(ctx, r.src, func() {
		r.mu.Lock()
		if r.active == s {
			r.active = nil
		}
		r.mu.Unlock()
	}, onSave)
	return s, nil
}

// Active reports whether a session is running.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

// Session is one capture run. The filter and its log are only touched by
// the stream goroutine until Done is closed.
type Session struct {
	ID string

	started time.Time
	filter  *Filter
	cancel  context.CancelFunc
	done    chan struct{}

	mu      sync.Mutex
	outcome Outcome
	err     error
	events  int
	seen    int
}

func (s *Session) run(ctx context.Context, src event.Source, release func(), onSave func(event.Log)) {
	err := src.Stream(ctx, func(n event.Notification) error {
		v := s.filter.Apply(n, time.Since(s.started).Seconds())
		s.mu.Lock()
		defer s.mu.Unlock()
		s.events = len(s.filter.Log())
		s.seen++
		switch v {
		case StopAndSave:
			s.outcome = OutcomeSaved
			return errStopped
		case StopNoSave:
			s.outcome = OutcomeDiscarded
			return errStopped
		}
		return nil
	})

	s.mu.Lock()
	switch {
	case errors.Is(err, errStopped):
	case err != nil && ctx.Err() == nil:
		s.outcome = OutcomeAborted
		s.err = fmt.Errorf("%w: %w", ErrCaptureAborted, err)
	default:
		s.outcome = OutcomeEnded
	}
	outcome := s.outcome
	s.mu.Unlock()

	captured := s.filter.Log()
	pointer, keys := captured.Counts()
	log.CaptureEnd(log.CaptureSummary{
		ID:        s.ID,
		Outcome:   outcome.String(),
		Events:    len(captured),
		Pointer:   pointer,
		Keys:      keys,
		DurationS: captured.Duration(),
	})
	if s.err != nil {
		log.Errorf("capture %s: %v", s.ID, s.err)
	}

	if outcome == OutcomeSaved && onSave != nil {
		onSave(captured.Clone())
	}

	s.cancel()
	release()
	close(s.done)
}

// Done is closed when the session has ended for any reason.
func (s *Session) Done() <-chan struct{} { return s.done }

// End stops the session if it is still running and hands over the log.
// It is safe to call more than once.
func (s *Session) End() event.Log {
	s.cancel()
	<-s.done
	return s.filter.Log().Clone()
}

func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Err is non-nil, wrapping ErrCaptureAborted, when the source failed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Len is the number of events recorded so far.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}

// Seen is the number of notifications observed, recorded or not.
func (s *Session) Seen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen
}

// Elapsed is the time since the session started.
func (s *Session) Elapsed() time.Duration { return time.Since(s.started) }

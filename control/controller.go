package control

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"macrorec/capture"
	"macrorec/event"
	"macrorec/hotkey"
	"macrorec/log"
	"macrorec/replay"
)

// Sink receives user-facing notifications. Calls may come from any
// goroutine but never while the controller holds its lock.
type Sink interface {
	StateChanged(s State)
	CaptureSaved(path string, events int)
	ReplayProgress(completed, total int)
	ReplayDone(res replay.Result, err error)
	Warning(msg string)
}

// Saver persists a finished capture and returns where it went.
type Saver func(event.Log) (string, error)

type Config struct {
	Recorder  *capture.Recorder
	Scheduler *replay.Scheduler
	// StopSource and StopKey drive the stop-key listener during replay. A
	// nil StopSource disables it.
	StopSource event.Source
	StopKey    event.Key
	Save       Saver
	Sink       Sink
	Options    replay.Options
	// CaptureChord, when set, is stripped from the tail of a capture
	// stopped through the chord.
	CaptureChord hotkey.Chord
}

type Controller struct {
	cfg Config

	mu      sync.Mutex
	state   State
	log     event.Log
	session *capture.Session
	// captured is closed when the running capture's log has been adopted.
	captured chan struct{}
	// captureErr is the adopted capture's failure, if its source broke.
	captureErr error
	token      *replay.Token
	done       chan struct{}
	result     replay.Result
	err        error
}

func New(cfg Config) *Controller {
	if cfg.Sink == nil {
		cfg.Sink = nopSink{}
	}
	if cfg.Options.Repeat == 0 {
		cfg.Options = replay.DefaultOptions()
	}
	c := &Controller{cfg: cfg, done: make(chan struct{}), captured: make(chan struct{})}
	close(c.done)
	close(c.captured)
	cfg.Scheduler.OnIteration = func(completed, total int) {
		c.cfg.Sink.ReplayProgress(completed, total)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Log returns a copy of the current log.
func (c *Controller) Log() event.Log {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log.Clone()
}

func (c *Controller) Options() replay.Options {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Options
}

// SetOptions validates and stores the options used by hotkey-started
// replays.
func (c *Controller) SetOptions(o replay.Options) error {
	if err := o.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.cfg.Options = o
	c.mu.Unlock()
	return nil
}

// setState must be called with c.mu held; it returns the notification to
// deliver after unlocking.
func (c *Controller) setState(s State) func() {
	if c.state == s {
		return func() {}
	}
	log.Infof("state %s -> %s", c.state, s)
	c.state = s
	return func() { c.cfg.Sink.StateChanged(s) }
}

func (c *Controller) reject(err error) error {
	if errors.Is(err, ErrBusy) || errors.Is(err, ErrNoLog) {
		log.Warn(err.Error())
		c.cfg.Sink.Warning(err.Error())
	}
	return err
}

// BeginCapture starts recording. Pressing the save key ends it and
// persists the log; the abort key ends it without saving.
func (c *Controller) BeginCapture() error {
	c.mu.Lock()
	st, err := next(c.state, startCapture, false)
	if err != nil {
		c.mu.Unlock()
		return c.reject(err)
	}
	sess, err := c.cfg.Recorder.Begin(context.Background(), c.persist)
	if err != nil {
		c.mu.Unlock()
		return c.reject(fmt.Errorf("%w: %w", ErrBusy, err))
	}
	c.session = sess
	c.captured = make(chan struct{})
	c.captureErr = nil
	notify := c.setState(st)
	c.mu.Unlock()

	notify()
	go c.awaitSession(sess)
	return nil
}

func (c *Controller) persist(l event.Log) {
	if c.cfg.Save == nil || len(l) == 0 {
		return
	}
	path, err := c.cfg.Save(l)
	if err != nil {
		log.Errorf("saving capture: %v", err)
		c.cfg.Sink.Warning(fmt.Sprintf("could not save recording: %v", err))
		return
	}
	log.Info("saved " + path)
	c.cfg.Sink.CaptureSaved(path, len(l))
}

// awaitSession handles sessions that end on their own: save key, abort key
// or a failed input source.
func (c *Controller) awaitSession(sess *capture.Session) {
	<-sess.Done()

	c.mu.Lock()
	if c.session != sess {
		c.mu.Unlock()
		return
	}
	c.session = nil
	notify := c.adopt(sess.End(), sess.Err())
	c.mu.Unlock()

	if err := sess.Err(); err != nil {
		c.cfg.Sink.Warning(err.Error())
	}
	notify()
}

// adopt installs a finished capture as the current log. Must hold c.mu.
func (c *Controller) adopt(l event.Log, err error) func() {
	c.log = l
	c.captureErr = err
	close(c.captured)
	st, err := next(c.state, stopCapture, len(l) > 0)
	if err != nil {
		return func() {}
	}
	return c.setState(st)
}

// EndCapture stops the running capture and keeps its log for replay,
// saving it first when save is set. If the input source had already failed
// the log is kept unsaved and the error wraps capture.ErrCaptureAborted.
func (c *Controller) EndCapture(save bool) (event.Log, error) {
	return c.endCapture(save, false)
}

func (c *Controller) endCapture(save, viaChord bool) (event.Log, error) {
	c.mu.Lock()
	sess := c.session
	if sess == nil || c.state != Capturing {
		c.mu.Unlock()
		return nil, ErrNotCapturing
	}
	c.session = nil
	c.mu.Unlock()

	l := sess.End()
	if viaChord && c.cfg.CaptureChord.Letter != 0 {
		chord := c.cfg.CaptureChord
		l.TrimTrailing(func(e event.Event) bool {
			return e.Kind == event.KeyPress && chord.Involves(e.Key)
		})
	}

	err := sess.Err()
	c.mu.Lock()
	notify := c.adopt(l, err)
	c.mu.Unlock()
	notify()

	if err != nil {
		c.cfg.Sink.Warning(err.Error())
		return l.Clone(), err
	}
	// the save key may have ended the session first and already persisted it
	if save && sess.Outcome() != capture.OutcomeSaved {
		c.persist(l)
	}
	return l.Clone(), nil
}

// CaptureStatus reports the size and age of the running capture.
func (c *Controller) CaptureStatus() (events int, elapsed time.Duration, ok bool) {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()
	if sess == nil {
		return 0, 0, false
	}
	return sess.Len(), sess.Elapsed(), true
}

// WaitCapture blocks until the running capture ends by itself and returns
// the resulting log. If ctx is done first the capture is ended without
// saving. A capture cut short by a failing input source returns its partial
// log with an error wrapping capture.ErrCaptureAborted.
func (c *Controller) WaitCapture(ctx context.Context) (event.Log, error) {
	c.mu.Lock()
	captured := c.captured
	c.mu.Unlock()

	select {
	case <-captured:
	case <-ctx.Done():
		if _, err := c.EndCapture(false); err != nil && !errors.Is(err, ErrNotCapturing) && !errors.Is(err, capture.ErrCaptureAborted) {
			return nil, err
		}
		<-captured
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log.Clone(), c.captureErr
}

// Load installs l as the log to replay.
func (c *Controller) Load(l event.Log) error {
	c.mu.Lock()
	st, err := next(c.state, load, len(l) > 0)
	if err != nil {
		c.mu.Unlock()
		return c.reject(err)
	}
	c.log = l.Clone()
	notify := c.setState(st)
	c.mu.Unlock()
	notify()
	return nil
}

// Replay starts playing the current log in the background with opts.
func (c *Controller) Replay(opts replay.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	st, err := next(c.state, startReplay, len(c.log) > 0)
	if err != nil {
		c.mu.Unlock()
		return c.reject(err)
	}
	tok := replay.NewToken()
	c.token = tok
	c.done = make(chan struct{})
	l := c.log
	done := c.done
	notify := c.setState(st)
	c.mu.Unlock()

	notify()
	go c.runReplay(l, opts, tok, done)
	return nil
}

func (c *Controller) runReplay(l event.Log, opts replay.Options, tok *replay.Token, done chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	if c.cfg.StopSource != nil && !c.cfg.StopKey.IsZero() {
		go func() {
			if err := replay.WatchStopKey(ctx, c.cfg.StopSource, c.cfg.StopKey, tok); err != nil {
				log.Warnf("stop key listener: %v", err)
			}
		}()
	}
	res, err := c.cfg.Scheduler.Run(ctx, l, opts, tok)
	cancel()

	c.mu.Lock()
	c.result, c.err = res, err
	c.token = nil
	st, _ := next(c.state, stopReplay, true)
	notify := c.setState(st)
	close(done)
	c.mu.Unlock()

	notify()
	c.cfg.Sink.ReplayDone(res, err)
}

// RequestCancel asks a running replay to stop. It returns immediately.
func (c *Controller) RequestCancel() {
	c.mu.Lock()
	tok := c.token
	c.mu.Unlock()
	if tok != nil {
		tok.Cancel()
	}
}

// Wait blocks until the current or most recent replay has finished and
// returns its outcome.
func (c *Controller) Wait(ctx context.Context) (replay.Result, error) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		c.RequestCancel()
		<-done
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.err
}

// ReplaySync plays the current log and waits for it to finish. Cancelling
// ctx cancels the replay.
func (c *Controller) ReplaySync(ctx context.Context, opts replay.Options) (replay.Result, error) {
	if err := c.Replay(opts); err != nil {
		return replay.Result{}, err
	}
	return c.Wait(ctx)
}

// ToggleCapture starts a capture, or stops and saves the running one.
func (c *Controller) ToggleCapture() error {
	if c.State() == Capturing {
		_, err := c.endCapture(true, true)
		return err
	}
	return c.BeginCapture()
}

// ToggleReplay starts a replay with the configured options, or cancels the
// running one.
func (c *Controller) ToggleReplay() error {
	if c.State() == Replaying {
		c.RequestCancel()
		return nil
	}
	return c.Replay(c.Options())
}

type nopSink struct{}

func (nopSink) StateChanged(State)              {}
func (nopSink) CaptureSaved(string, int)        {}
func (nopSink) ReplayProgress(int, int)         {}
func (nopSink) ReplayDone(replay.Result, error) {}
func (nopSink) Warning(string)                  {}

package control

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrorec/capture"
	"macrorec/event"
	"macrorec/hotkey"
	"macrorec/input"
	"macrorec/replay"
)

type recordingSink struct {
	mu       sync.Mutex
	states   []State
	saved    []string
	warnings []string
	progress []int
	results  []replay.Result
}

func (s *recordingSink) StateChanged(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, st)
}

func (s *recordingSink) CaptureSaved(path string, _ int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, path)
}

func (s *recordingSink) ReplayProgress(completed, _ int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, completed)
}

func (s *recordingSink) ReplayDone(res replay.Result, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, res)
}

func (s *recordingSink) Warning(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, msg)
}

func (s *recordingSink) counts() (saved, warnings, results int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved), len(s.warnings), len(s.results)
}

type fixture struct {
	src  *input.ScriptSource
	inj  *input.RecordingInjector
	sink *recordingSink
	ctl  *Controller

	mu    sync.Mutex
	saves []event.Log
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		src:  input.NewScriptSource(),
		inj:  input.NewRecordingInjector(),
		sink: &recordingSink{},
	}
	f.ctl = New(Config{
		Recorder:   capture.NewRecorder(f.src, capture.DefaultControls()),
		Scheduler:  replay.NewScheduler(f.inj),
		StopSource: f.src,
		StopKey:    event.F9,
		Save: func(l event.Log) (string, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.saves = append(f.saves, l)
			return "saved.json", nil
		},
		Sink:         f.sink,
		Options:      replay.Options{Repeat: 1, Slice: 10 * time.Millisecond},
		CaptureChord: hotkey.Chord{Letter: 'q'},
	})
	return f
}

func (f *fixture) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fixture) waitState(t *testing.T, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return f.ctl.State() == want }, 2*time.Second, time.Millisecond,
		"state is %s, want %s", f.ctl.State(), want)
}

func (f *fixture) capture(t *testing.T, ns ...event.Notification) {
	t.Helper()
	require.NoError(t, f.ctl.BeginCapture())
	require.NoError(t, f.src.WaitSubscribers(1, time.Second))
	f.src.Send(ns...)
}

func TestNext(t *testing.T) {
	cases := []struct {
		from    State
		trig    trigger
		haveLog bool
		want    State
		err     error
	}{
		{Idle, startCapture, false, Capturing, nil},
		{ReplayPending, startCapture, true, Capturing, nil},
		{Capturing, startCapture, false, Capturing, ErrBusy},
		{Replaying, startCapture, true, Replaying, ErrBusy},
		{Capturing, stopCapture, true, ReplayPending, nil},
		{Capturing, stopCapture, false, Idle, nil},
		{Idle, stopCapture, false, Idle, ErrNotCapturing},
		{Idle, load, true, ReplayPending, nil},
		{Idle, load, false, Idle, ErrNoLog},
		{ReplayPending, startReplay, true, Replaying, nil},
		{Idle, startReplay, false, Idle, ErrNoLog},
		{Capturing, startReplay, true, Capturing, ErrBusy},
		{Replaying, startReplay, true, Replaying, ErrBusy},
		{Replaying, stopReplay, true, ReplayPending, nil},
	}
	for _, c := range cases {
		got, err := next(c.from, c.trig, c.haveLog)
		assert.Equal(t, c.want, got, "%s on %s", c.trig, c.from)
		if c.err != nil {
			assert.ErrorIs(t, err, c.err, "%s on %s", c.trig, c.from)
		} else {
			assert.NoError(t, err, "%s on %s", c.trig, c.from)
		}
	}
}

func TestCaptureSaveKeyAutoSaves(t *testing.T) {
	f := newFixture(t)
	f.capture(t,
		event.Press(event.Char('a')),
		event.Release(event.Char('a')),
		event.Press(event.F9),
	)
	f.waitState(t, ReplayPending)
	require.Eventually(t, func() bool { return f.savedCount() == 1 }, time.Second, time.Millisecond)
	assert.Len(t, f.ctl.Log(), 2)
}

func TestCaptureAbortKeyKeepsLogUnsaved(t *testing.T) {
	f := newFixture(t)
	f.capture(t, event.Move(1, 1), event.Press(event.Esc))
	f.waitState(t, ReplayPending)
	assert.Len(t, f.ctl.Log(), 1)
	assert.Zero(t, f.savedCount())
}

func TestCaptureEmptyReturnsToIdle(t *testing.T) {
	f := newFixture(t)
	f.capture(t, event.Press(event.Esc))
	f.waitState(t, Idle)
}

func TestEndCapture(t *testing.T) {
	f := newFixture(t)
	f.capture(t, event.Move(1, 1), event.Move(2, 2))
	require.Eventually(t, func() bool { return f.src.Subscribers() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	l, err := f.ctl.EndCapture(false)
	require.NoError(t, err)
	assert.Len(t, l, 2)
	assert.Equal(t, ReplayPending, f.ctl.State())
	assert.Zero(t, f.savedCount())

	_, err = f.ctl.EndCapture(false)
	assert.ErrorIs(t, err, ErrNotCapturing)
}

func TestCaptureRejectedWhileBusy(t *testing.T) {
	f := newFixture(t)
	f.capture(t)

	err := f.ctl.BeginCapture()
	assert.ErrorIs(t, err, ErrBusy)
	_, warnings, _ := f.sink.counts()
	assert.Equal(t, 1, warnings)

	err = f.ctl.Replay(f.ctl.Options())
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, Capturing, f.ctl.State())
	f.ctl.EndCapture(false)
}

func TestCaptureSourceFailure(t *testing.T) {
	f := newFixture(t)
	f.capture(t)
	f.src.Fail(event.ErrUnavailable)
	f.waitState(t, Idle)
	require.Eventually(t, func() bool {
		_, w, _ := f.sink.counts()
		return w == 1
	}, time.Second, time.Millisecond)
}

func TestWaitCaptureReportsSourceFailure(t *testing.T) {
	f := newFixture(t)
	f.capture(t, event.Press(event.Char('a')), event.Release(event.Char('a')))
	require.Eventually(t, func() bool {
		n, _, _ := f.ctl.CaptureStatus()
		return n == 2
	}, time.Second, time.Millisecond)
	f.src.Fail(event.ErrUnavailable)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	l, err := f.ctl.WaitCapture(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, capture.ErrCaptureAborted)
	assert.ErrorIs(t, err, event.ErrUnavailable)
	assert.Len(t, l, 2)
	assert.Zero(t, f.savedCount())

	// a fresh capture clears the failure
	f2 := newFixture(t)
	f2.capture(t, event.Move(1, 1), event.Press(event.F9))
	_, err = f2.ctl.WaitCapture(ctx)
	assert.NoError(t, err)
}

func TestEndCaptureAfterSourceFailureDoesNotSave(t *testing.T) {
	f := newFixture(t)
	f.capture(t, event.Move(1, 1))
	require.Eventually(t, func() bool {
		n, _, _ := f.ctl.CaptureStatus()
		return n == 1
	}, time.Second, time.Millisecond)

	f.ctl.mu.Lock()
	sess := f.ctl.session
	f.ctl.mu.Unlock()
	f.src.Fail(event.ErrUnavailable)
	<-sess.Done()

	_, err := f.ctl.EndCapture(true)
	if errors.Is(err, ErrNotCapturing) {
		// the session handler won the race; WaitCapture still reports it
		_, err = f.ctl.WaitCapture(context.Background())
	}
	assert.ErrorIs(t, err, capture.ErrCaptureAborted)
	assert.Zero(t, f.savedCount())
}

func TestChordStopAfterSaveKeySavesOnce(t *testing.T) {
	f := newFixture(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	var saves atomic.Int32
	f.ctl.cfg.Save = func(event.Log) (string, error) {
		if saves.Add(1) == 1 {
			close(entered)
			<-release
		}
		return "saved.json", nil
	}

	f.capture(t, event.Press(event.Char('a')), event.Press(event.F9))
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("save key did not persist the capture")
	}

	// the chord stop arrives while the save key's write is in flight
	ended := make(chan error, 1)
	go func() {
		_, err := f.ctl.endCapture(true, true)
		ended <- err
	}()
	require.Eventually(t, func() bool {
		_, _, running := f.ctl.CaptureStatus()
		return !running
	}, time.Second, time.Millisecond)
	close(release)

	require.NoError(t, <-ended)
	f.waitState(t, ReplayPending)
	assert.EqualValues(t, 1, saves.Load())
}

func TestReplayWithoutLog(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.ctl.Replay(f.ctl.Options()), ErrNoLog)
	assert.ErrorIs(t, f.ctl.Load(nil), ErrNoLog)
	assert.Equal(t, Idle, f.ctl.State())
}

func TestReplayInvalidOptions(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Load(event.Log{event.Move(1, 1).At(0)}))
	assert.ErrorIs(t, f.ctl.Replay(replay.Options{Repeat: 0}), replay.ErrInvalidRepeat)
	assert.ErrorIs(t, f.ctl.SetOptions(replay.Options{Repeat: 1, Delay: -1}), replay.ErrInvalidDelay)
	assert.Equal(t, ReplayPending, f.ctl.State())
}

func TestReplayCompletes(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Load(event.Log{
		event.Press(event.Char('a')).At(0),
		event.Release(event.Char('a')).At(0.05),
	}))
	require.NoError(t, f.ctl.Replay(replay.Options{Repeat: 2, Slice: 10 * time.Millisecond, Pause: 10 * time.Millisecond}))
	assert.Equal(t, Replaying, f.ctl.State())

	res, err := f.ctl.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Completed)
	assert.Len(t, f.inj.Calls(), 4)
	assert.Equal(t, ReplayPending, f.ctl.State())
	require.Eventually(t, func() bool {
		_, _, r := f.sink.counts()
		return r == 1
	}, time.Second, time.Millisecond)
}

func TestReplayCancelledByStopKey(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Load(event.Log{event.Move(0, 0).At(0), event.Move(1, 1).At(5)}))
	require.NoError(t, f.ctl.Replay(replay.Options{Repeat: 1, Slice: 10 * time.Millisecond}))
	require.NoError(t, f.src.WaitSubscribers(1, time.Second))

	<-f.inj.Injected()
	f.src.Send(event.Press(event.F9))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := f.ctl.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Zero(t, res.Completed)
	assert.Equal(t, ReplayPending, f.ctl.State())
}

func TestToggles(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.ToggleCapture())
	require.NoError(t, f.src.WaitSubscribers(1, time.Second))
	f.src.Send(
		event.Press(event.Char('x')),
		event.Release(event.Char('x')),
		event.Press(event.Named("shift_l")),
		event.Press(event.AltL),
		event.Press(event.Char('Q')),
	)
	time.Sleep(30 * time.Millisecond)

	require.NoError(t, f.ctl.ToggleCapture())
	assert.Equal(t, ReplayPending, f.ctl.State())
	// the chord that stopped the capture is not part of it
	assert.Len(t, f.ctl.Log(), 2)
	assert.Equal(t, 1, f.savedCount())

	require.NoError(t, f.ctl.SetOptions(replay.Options{Repeat: 1, Delay: time.Minute, Slice: 10 * time.Millisecond}))
	require.NoError(t, f.ctl.ToggleReplay())
	assert.Equal(t, Replaying, f.ctl.State())
	require.NoError(t, f.ctl.ToggleReplay())

	res, err := f.ctl.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Empty(t, f.inj.Calls())
}

func TestCaptureFromReplayPendingReplacesLog(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Load(event.Log{event.Move(0, 0).At(0)}))
	f.capture(t, event.Move(5, 5), event.Move(6, 6), event.Press(event.Esc))
	f.waitState(t, ReplayPending)
	assert.Len(t, f.ctl.Log(), 2)
}

func TestWaitContextCancelsReplay(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Load(event.Log{event.Move(0, 0).At(10)}))
	require.NoError(t, f.ctl.Replay(replay.Options{Repeat: 1, Slice: 10 * time.Millisecond}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res, err := f.ctl.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
}

func TestCoordinatorDispatch(t *testing.T) {
	f := newFixture(t)
	capKey, repKey := hotkey.NewFake(), hotkey.NewFake()
	co := NewCoordinator(capKey, repKey, f.ctl)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- co.Run(ctx) }()

	// replay with nothing recorded is rejected with a warning
	repKey.SimPress()
	require.Eventually(t, func() bool {
		_, w, _ := f.sink.counts()
		return w == 1
	}, time.Second, time.Millisecond)

	capKey.SimPress()
	f.waitState(t, Capturing)
	require.NoError(t, f.src.WaitSubscribers(1, time.Second))
	f.src.Send(event.Move(3, 3))
	time.Sleep(20 * time.Millisecond)

	capKey.SimPress()
	f.waitState(t, ReplayPending)
	require.Eventually(t, func() bool { return f.savedCount() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, f.ctl.SetOptions(replay.Options{Repeat: 1, Slice: 10 * time.Millisecond}))
	repKey.SimPress()
	require.Eventually(t, func() bool { return len(f.inj.Calls()) == 1 }, time.Second, time.Millisecond)
	f.waitState(t, ReplayPending)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("coordinator did not stop")
	}
}

func TestCoordinatorRegisterFailure(t *testing.T) {
	f := newFixture(t)
	co := NewCoordinator(failingHotkey{}, hotkey.NewFake(), f.ctl)
	err := co.Run(context.Background())
	assert.Error(t, err)
}

type failingHotkey struct{}

func (failingHotkey) Register() error          { return errors.New("no permission") }
func (failingHotkey) Unregister()              {}
func (failingHotkey) Keydown() <-chan struct{} { return nil }
func (failingHotkey) Keyup() <-chan struct{}   { return nil }

package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrorec/event"
	"macrorec/input"
)

func begin(t *testing.T, src *input.ScriptSource, onSave func(event.Log)) (*Recorder, *Session) {
	t.Helper()
	rec := NewRecorder(src, DefaultControls())
	sess, err := rec.Begin(context.Background(), onSave)
	require.NoError(t, err)
	require.NoError(t, src.WaitSubscribers(1, time.Second))
	t.Cleanup(func() { sess.End() })
	return rec, sess
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for session to end")
	}
}

func TestSessionStopAndSave(t *testing.T) {
	src := input.NewScriptSource()
	saved := make(chan event.Log, 1)
	rec, sess := begin(t, src, func(l event.Log) { saved <- l })

	src.Send(
		event.Press(event.Char('a')),
		event.Release(event.Char('a')),
		event.Press(event.F9),
		event.Press(event.Char('b')),
	)
	waitDone(t, sess)

	select {
	case l := <-saved:
		assert.Equal(t, []string{"+a", "-a"}, keys(l))
	case <-time.After(time.Second):
		t.Fatal("save callback not invoked")
	}
	assert.Equal(t, OutcomeSaved, sess.Outcome())
	assert.NoError(t, sess.Err())
	assert.False(t, rec.Active())
	assert.Len(t, sess.End(), 2)
}

func TestSessionStopNoSave(t *testing.T) {
	src := input.NewScriptSource()
	called := false
	_, sess := begin(t, src, func(event.Log) { called = true })

	src.Send(event.Move(1, 1), event.Press(event.Esc))
	waitDone(t, sess)

	assert.Equal(t, OutcomeDiscarded, sess.Outcome())
	assert.Len(t, sess.End(), 1)
	assert.False(t, called)
}

func TestSessionEndedByOwner(t *testing.T) {
	src := input.NewScriptSource()
	_, sess := begin(t, src, nil)

	src.Send(event.Move(1, 1), event.Move(2, 2))
	require.Eventually(t, func() bool { return sess.Len() == 2 }, time.Second, time.Millisecond)

	l := sess.End()
	assert.Len(t, l, 2)
	assert.Equal(t, OutcomeEnded, sess.Outcome())
	assert.True(t, l.Ordered())
	// second End is harmless
	assert.Len(t, sess.End(), 2)
}

func TestSessionSourceFailureAborts(t *testing.T) {
	src := input.NewScriptSource()
	_, sess := begin(t, src, nil)

	src.Fail(event.ErrUnavailable)
	waitDone(t, sess)

	assert.Equal(t, OutcomeAborted, sess.Outcome())
	require.Error(t, sess.Err())
	assert.True(t, errors.Is(sess.Err(), ErrCaptureAborted))
	assert.True(t, errors.Is(sess.Err(), event.ErrUnavailable))
}

func TestRecorderRejectsSecondSession(t *testing.T) {
	src := input.NewScriptSource()
	rec, sess := begin(t, src, nil)

	_, err := rec.Begin(context.Background(), nil)
	assert.ErrorIs(t, err, ErrSessionActive)

	sess.End()
	next, err := rec.Begin(context.Background(), nil)
	require.NoError(t, err)
	next.End()
}

func TestSessionTimestampsElapsed(t *testing.T) {
	src := input.NewScriptSource()
	_, sess := begin(t, src, nil)

	src.Send(event.Move(0, 0))
	time.Sleep(120 * time.Millisecond)
	src.Send(event.Move(1, 1))
	require.Eventually(t, func() bool { return sess.Len() == 2 }, time.Second, time.Millisecond)

	l := sess.End()
	gap := l[1].T - l[0].T
	assert.InDelta(t, 0.12, gap, 0.08)
	assert.GreaterOrEqual(t, l[0].T, 0.0)
}

func TestSessionFreshModifierState(t *testing.T) {
	src := input.NewScriptSource()
	rec := NewRecorder(src, DefaultControls())

	for i := 0; i < 2; i++ {
		sess, err := rec.Begin(context.Background(), nil)
		require.NoError(t, err)
		require.NoError(t, src.WaitSubscribers(1, time.Second))
		src.Send(
			event.Press(event.AltL),
			event.Press(event.Tab),
			event.Release(event.Tab),
			event.Release(event.AltL),
			event.Move(5, 5),
		)
		require.Eventually(t, func() bool { return sess.Seen() == 5 }, time.Second, time.Millisecond)
		// each session suppresses its own first Alt-Tab
		assert.Equal(t, []string{"pointer_move"}, keys(sess.End()), "session %d", i)
	}
}

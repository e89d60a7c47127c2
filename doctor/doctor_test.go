package doctor

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrorec/event"
	"macrorec/hotkey"
	"macrorec/input"
)

func TestCheckCapturePass(t *testing.T) {
	src := input.NewScriptSource()
	go func() {
		if src.WaitSubscribers(1, time.Second) == nil {
			src.Send(event.Move(4, 4))
		}
	}()
	var out bytes.Buffer
	assert.True(t, checkCapture(&out, src, time.Second))
	assert.Contains(t, out.String(), "PASS: received pointer_move")
}

func TestCheckCaptureTimeout(t *testing.T) {
	var out bytes.Buffer
	assert.False(t, checkCapture(&out, input.NewScriptSource(), 20*time.Millisecond))
	assert.Contains(t, out.String(), "timeout")
}

func TestCheckCaptureUnavailable(t *testing.T) {
	src := input.NewScriptSource()
	src.Fail(errors.New("no hook"))
	var out bytes.Buffer
	assert.False(t, checkCapture(&out, src, time.Second))
	assert.Contains(t, out.String(), "no hook")
}

func TestCheckHotkey(t *testing.T) {
	hk := hotkey.NewFake()
	go hk.SimPress()
	require.True(t, checkHotkey(hk, hotkey.Chord{Letter: 'q'}))
}

func TestConfirm(t *testing.T) {
	assert.True(t, confirm(strings.NewReader("Y\n"), "ok?"))
	assert.True(t, confirm(strings.NewReader("yes\n"), "ok?"))
	assert.False(t, confirm(strings.NewReader("n\n"), "ok?"))
	assert.False(t, confirm(strings.NewReader(""), "ok?"))
}

package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrorec/event"
)

func sample() event.Log {
	return event.Log{
		event.Move(10, 20).At(0),
		event.Click(10, 20, event.ButtonLeft, true).At(0.1),
		event.Click(10, 20, event.ButtonLeft, false).At(0.15),
		event.Scroll(10, 20, 0, -2).At(0.5),
		event.Press(event.Named("shift_l")).At(0.75),
		event.Press(event.Char('A')).At(0.8),
		event.Release(event.Char('A')).At(0.85),
		event.Release(event.Named("shift_l")).At(0.9),
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.json")
	want := sample()
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].T, got[i].T, 1e-9, "event %d", i)
		got[i].T = want[i].T
	}
	assert.Equal(t, want, got)
}

func TestEncodeFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sample()[:5]))
	out := buf.String()
	assert.Contains(t, out, `"type": "mouse_click"`)
	assert.Contains(t, out, `"button": "Button.left"`)
	assert.Contains(t, out, `"key": "Key.shift_l"`)
	assert.Contains(t, out, "\n  {")
}

func TestRawKeyCodeRoundTrip(t *testing.T) {
	l := event.Log{event.Press(event.Named("<240>")).At(0.5)}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, l))
	assert.Contains(t, buf.String(), `"key": "<240>"`)

	got, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, l, got)
}

func TestDecodeLegacyFile(t *testing.T) {
	data := []byte(`[
		{"type": "mouse_click", "x": 5, "y": 6, "button": "Button.right", "pressed": true, "time": 1.25},
		{"type": "mouse_click", "x": 5, "y": 6, "button": "middle", "pressed": false, "time": 1.5, "extra": 1},
		{"type": "key_press", "key": "Key.alt_l", "time": 2},
		{"type": "key_release", "key": "q", "time": 2.1},
		{"type": "key_press", "key": "enter", "time": 2.2}
	]`)
	l, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, l, 5)
	assert.Equal(t, event.ButtonRight, l[0].Button)
	assert.True(t, l[0].Pressed)
	assert.Equal(t, event.ButtonMiddle, l[1].Button)
	assert.Equal(t, event.AltL, l[2].Key)
	assert.Equal(t, event.Char('q'), l[3].Key)
	assert.Equal(t, event.Named("enter"), l[4].Key)
	assert.Equal(t, 1.25, l[0].T)
}

func TestDecodeErrors(t *testing.T) {
	for name, data := range map[string]string{
		"invalid json": `[{"type":`,
		"not array":    `{"type": "mouse_move"}`,
		"unknown type": `[{"type": "mouse_move", "x": 1, "y": 1, "time": 0}, {"type": "gamepad", "time": 1}]`,
		"no time":      `[{"type": "mouse_move", "x": 1, "y": 1}]`,
		"no key":       `[{"type": "key_press", "time": 0}]`,
	} {
		_, err := Decode([]byte(data))
		assert.ErrorIs(t, err, ErrFormat, name)
	}
	_, err := Decode([]byte(`[{"type": "mouse_move", "x": 1, "y": 1, "time": 0}, {"type": "gamepad", "time": 1}]`))
	assert.ErrorContains(t, err, "record 1")
}

func TestDecodeEmpty(t *testing.T) {
	l, err := Decode([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, l)
}

func TestNumberedPath(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, "recorded_actions.json"), NumberedPath(dir, DefaultBase))

	first, err := SaveNumbered(dir, DefaultBase, sample())
	require.NoError(t, err)
	second, err := SaveNumbered(dir, DefaultBase, sample())
	require.NoError(t, err)
	third, err := SaveNumbered(dir, DefaultBase, sample())
	require.NoError(t, err)

	assert.Equal(t, "recorded_actions.json", filepath.Base(first))
	assert.Equal(t, "recorded_actions_1.json", filepath.Base(second))
	assert.Equal(t, "recorded_actions_2.json", filepath.Base(third))

	files, err := List(dir)
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestSaveNumberedCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	path, err := SaveNumbered(dir, "macro", event.Log{event.Move(1, 1).At(0)})
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()
	_, err := Latest(dir)
	assert.ErrorIs(t, err, ErrNoRecordings)

	older := filepath.Join(dir, "a.json")
	newer := filepath.Join(dir, "b.json")
	require.NoError(t, Save(older, sample()))
	require.NoError(t, Save(newer, sample()))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	got, err := Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, newer, got)
}

package clipboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrorec/event"
	"macrorec/store"
)

func fakeClipboard(t *testing.T) *string {
	t.Helper()
	var content string
	oldW, oldR := writeAll, readAll
	writeAll = func(s string) error { content = s; return nil }
	readAll = func() (string, error) { return content, nil }
	t.Cleanup(func() { writeAll, readAll = oldW, oldR })
	return &content
}

func TestCopyAndReadLog(t *testing.T) {
	content := fakeClipboard(t)
	l := event.Log{
		event.Move(3, 4).At(0),
		event.Press(event.Named("shift_l")).At(0.5),
	}
	require.NoError(t, CopyLog(l))
	assert.Contains(t, *content, `"key": "Key.shift_l"`)

	got, err := ReadLog()
	require.NoError(t, err)
	assert.Equal(t, l, got)
}

func TestReadLogEmpty(t *testing.T) {
	fakeClipboard(t)
	_, err := ReadLog()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestReadLogGarbage(t *testing.T) {
	content := fakeClipboard(t)
	*content = "hello there"
	_, err := ReadLog()
	assert.ErrorIs(t, err, store.ErrFormat)
}

func TestWriteFailure(t *testing.T) {
	fakeClipboard(t)
	writeAll = func(string) error { return errors.New("no display") }
	assert.ErrorContains(t, CopyLog(event.Log{event.Move(1, 1).At(0)}), "no display")
}

// Package clipboard moves recordings through the system clipboard in the
// same JSON form used on disk.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"

	cb "github.com/atotto/clipboard"

	"macrorec/event"
	"macrorec/store"
)

var ErrEmpty = errors.New("clipboard is empty")

// Hooks for tests; the real clipboard needs a display.
var (
	writeAll = cb.WriteAll
	readAll  = cb.ReadAll
)

func Copy(text string) error {
	return writeAll(text)
}

func Read() (string, error) {
	return readAll()
}

// CopyLog places l on the clipboard.
func CopyLog(l event.Log) error {
	var buf bytes.Buffer
	if err := store.Encode(&buf, l); err != nil {
		return err
	}
	if err := writeAll(buf.String()); err != nil {
		return fmt.Errorf("writing clipboard: %w", err)
	}
	return nil
}

// ReadLog decodes a recording from the clipboard.
func ReadLog() (event.Log, error) {
	text, err := readAll()
	if err != nil {
		return nil, fmt.Errorf("reading clipboard: %w", err)
	}
	if len(bytes.TrimSpace([]byte(text))) == 0 {
		return nil, ErrEmpty
	}
	return store.Decode([]byte(text))
}

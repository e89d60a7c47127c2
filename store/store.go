// Package store reads and writes recorded event logs as JSON.
//
// The file is an array of records tagged by "type" (mouse_move,
// mouse_click, mouse_scroll, key_press, key_release) with a "time" field in
// seconds. Buttons are written as "Button.left" and named keys as
// "Key.shift_l" so files from earlier recorders load unchanged. Keys with
// no name are written as their raw code, "<65437>".
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"macrorec/event"
)

const DefaultBase = "recorded_actions"

var (
	ErrFormat       = errors.New("malformed recording")
	ErrNoRecordings = errors.New("no recordings found")
)

const (
	typeMove    = "mouse_move"
	typeClick   = "mouse_click"
	typeScroll  = "mouse_scroll"
	typePress   = "key_press"
	typeRelease = "key_release"
)

type moveRecord struct {
	Type string  `json:"type"`
	X    int32   `json:"x"`
	Y    int32   `json:"y"`
	Time float64 `json:"time"`
}

type clickRecord struct {
	Type    string  `json:"type"`
	X       int32   `json:"x"`
	Y       int32   `json:"y"`
	Button  string  `json:"button"`
	Pressed bool    `json:"pressed"`
	Time    float64 `json:"time"`
}

type scrollRecord struct {
	Type string  `json:"type"`
	X    int32   `json:"x"`
	Y    int32   `json:"y"`
	DX   int32   `json:"dx"`
	DY   int32   `json:"dy"`
	Time float64 `json:"time"`
}

type keyRecord struct {
	Type string  `json:"type"`
	Key  string  `json:"key"`
	Time float64 `json:"time"`
}

func record(e event.Event) (any, error) {
	switch e.Kind {
	case event.PointerMove:
		return moveRecord{typeMove, e.X, e.Y, e.T}, nil
	case event.PointerButton:
		return clickRecord{typeClick, e.X, e.Y, "Button." + e.Button.String(), e.Pressed, e.T}, nil
	case event.PointerScroll:
		return scrollRecord{typeScroll, e.X, e.Y, e.DX, e.DY, e.T}, nil
	case event.KeyPress:
		return keyRecord{typePress, keyString(e.Key), e.T}, nil
	case event.KeyRelease:
		return keyRecord{typeRelease, keyString(e.Key), e.T}, nil
	}
	return nil, fmt.Errorf("cannot encode event kind %s", e.Kind)
}

// keyString writes named keys with the Key. prefix. Raw codes such as
// "<65437>" stay bare.
func keyString(k event.Key) string {
	if k.IsNamed() && !strings.HasPrefix(k.Name, "<") {
		return "Key." + k.Name
	}
	if k.IsNamed() {
		return k.Name
	}
	return string(k.Char)
}

func parseButton(s string) event.Button {
	switch strings.TrimPrefix(s, "Button.") {
	case "left":
		return event.ButtonLeft
	case "right":
		return event.ButtonRight
	case "middle":
		return event.ButtonMiddle
	}
	return event.ButtonOther
}

// Encode writes l as indented JSON.
func Encode(w io.Writer, l event.Log) error {
	records := make([]any, 0, len(l))
	for _, e := range l {
		r, err := record(e)
		if err != nil {
			return err
		}
		records = append(records, r)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// Decode parses a recording. Unknown fields are ignored; an unknown record
// type is an error naming its position.
func Decode(data []byte) (event.Log, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrFormat)
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: top level is not an array", ErrFormat)
	}

	var (
		l   event.Log
		err error
	)
	i := 0
	root.ForEach(func(_, r gjson.Result) bool {
		var e event.Event
		e, err = decodeRecord(r)
		if err != nil {
			err = fmt.Errorf("%w: record %d: %v", ErrFormat, i, err)
			return false
		}
		l.Append(e)
		i++
		return true
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func decodeRecord(r gjson.Result) (event.Event, error) {
	if !r.IsObject() {
		return event.Event{}, errors.New("not an object")
	}
	t := r.Get("time")
	if !t.Exists() {
		return event.Event{}, errors.New("missing time")
	}
	x, y := int32(r.Get("x").Int()), int32(r.Get("y").Int())

	typ := r.Get("type").String()
	switch typ {
	case typeMove:
		return event.Move(x, y).At(t.Float()), nil
	case typeClick:
		return event.Click(x, y, parseButton(r.Get("button").String()), r.Get("pressed").Bool()).At(t.Float()), nil
	case typeScroll:
		return event.Scroll(x, y, int32(r.Get("dx").Int()), int32(r.Get("dy").Int())).At(t.Float()), nil
	case typePress, typeRelease:
		k := event.ParseKey(r.Get("key").String())
		if k.IsZero() {
			return event.Event{}, errors.New("missing key")
		}
		if typ == typePress {
			return event.Press(k).At(t.Float()), nil
		}
		return event.Release(k).At(t.Float()), nil
	}
	return event.Event{}, fmt.Errorf("unknown type %q", typ)
}

// Save writes l to path through a temporary file so a crash never leaves a
// truncated recording behind.
func Save(path string, l event.Log) error {
	var buf bytes.Buffer
	if err := Encode(&buf, l); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".recording-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func Load(path string) (event.Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	l, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// NumberedPath returns dir/base.json, or the first free dir/base_N.json.
func NumberedPath(dir, base string) string {
	path := filepath.Join(dir, base+".json")
	for n := 1; exists(path); n++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%d.json", base, n))
	}
	return path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SaveNumbered saves l under the next free numbered name and returns it.
func SaveNumbered(dir, base string, l event.Log) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	path := NumberedPath(dir, base)
	if err := Save(path, l); err != nil {
		return "", err
	}
	return path, nil
}

// List returns the recordings in dir, oldest name first.
func List(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	out := matches[:0]
	for _, m := range matches {
		if !strings.HasPrefix(filepath.Base(m), ".") {
			out = append(out, m)
		}
	}
	return out, nil
}

// Latest returns the most recently modified recording in dir.
func Latest(dir string) (string, error) {
	files, err := List(dir)
	if err != nil {
		return "", err
	}
	var (
		best    string
		bestMod time.Time
	)
	for _, f := range files {
		fi, err := os.Stat(f)
		if err != nil {
			continue
		}
		if best == "" || fi.ModTime().After(bestMod) {
			best, bestMod = f, fi.ModTime()
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w in %s", ErrNoRecordings, dir)
	}
	return best, nil
}

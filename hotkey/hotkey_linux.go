//go:build linux

package hotkey

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// evdev constants from linux/input-event-codes.h
const (
	evKey          = 1
	valueRelease   = 0
	valuePress     = 1
	codeLeftShift  = 42
	codeRightShift = 54
	codeLeftAlt    = 56
	codeRightAlt   = 100

	inputEventSize = 24
)

var letterCodes = map[rune]uint16{
	'q': 16, 'w': 17, 'e': 18, 'r': 19, 't': 20, 'y': 21, 'u': 22, 'i': 23, 'o': 24, 'p': 25,
	'a': 30, 's': 31, 'd': 32, 'f': 33, 'g': 34, 'h': 35, 'j': 36, 'k': 37, 'l': 38,
	'z': 44, 'x': 45, 'c': 46, 'v': 47, 'b': 48, 'n': 49, 'm': 50,
}

var errNoKeyboards = errors.New("no keyboard devices found (is user in 'input' group?)")

type keyEvent struct {
	code  uint16
	value int32
}

// decodeKeys extracts EV_KEY records from a buffer of struct input_event.
func decodeKeys(buf []byte) []keyEvent {
	var out []keyEvent
	for i := 0; i+inputEventSize <= len(buf); i += inputEventSize {
		if binary.LittleEndian.Uint16(buf[i+16:]) != evKey {
			continue
		}
		out = append(out, keyEvent{
			code:  binary.LittleEndian.Uint16(buf[i+18:]),
			value: int32(binary.LittleEndian.Uint32(buf[i+20:])),
		})
	}
	return out
}

// evdevChord tracks shift, alt and the chord letter across every keyboard.
// Auto-repeat (value 2) leaves it unchanged.
type evdevChord struct {
	letter     uint16
	shift, alt int
	letterDown bool
}

func (c *evdevChord) feed(k keyEvent) (down, up bool) {
	delta := 0
	switch k.value {
	case valuePress:
		delta = 1
	case valueRelease:
		delta = -1
	default:
		return false, false
	}

	switch k.code {
	case codeLeftShift, codeRightShift:
		c.shift = max(c.shift+delta, 0)
	case codeLeftAlt, codeRightAlt:
		c.alt = max(c.alt+delta, 0)
	case c.letter:
		if delta > 0 && !c.letterDown && c.shift > 0 && c.alt > 0 {
			c.letterDown = true
			return true, false
		}
		if delta < 0 && c.letterDown {
			c.letterDown = false
			return false, true
		}
	}
	return false, false
}

// linuxHotkey reads keyboards directly from /dev/input, which works without
// an X server as long as the user is in the input group.
type linuxHotkey struct {
	chord   Chord
	keydown chan struct{}
	keyup   chan struct{}

	files []*os.File
	keys  chan keyEvent
	stop  chan struct{}
	once  sync.Once
}

func New(c Chord) Hotkey {
	return &linuxHotkey{
		chord:   c,
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (h *linuxHotkey) Register() error {
	code, ok := letterCodes[h.chord.Letter]
	if !ok {
		return fmt.Errorf("no key code for %s", h.chord)
	}

	paths, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(paths) == 0 {
		return errNoKeyboards
	}
	for _, p := range paths {
		if f, err := os.Open(p); err == nil {
			h.files = append(h.files, f)
		}
	}
	if len(h.files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}

	h.stop = make(chan struct{})
	h.keys = make(chan keyEvent, 64)
	for _, f := range h.files {
		go h.read(f)
	}
	go h.match(&evdevChord{letter: code})
	return nil
}

func (h *linuxHotkey) read(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	for {
		n, err := f.Read(buf)
		if err != nil {
			return
		}
		for _, k := range decodeKeys(buf[:n]) {
			select {
			case h.keys <- k:
			case <-h.stop:
				return
			}
		}
	}
}

func (h *linuxHotkey) match(c *evdevChord) {
	for {
		select {
		case <-h.stop:
			return
		case k := <-h.keys:
			down, up := c.feed(k)
			if down {
				signal(h.keydown)
			}
			if up {
				signal(h.keyup)
			}
		}
	}
}

func (h *linuxHotkey) Unregister() {
	h.once.Do(func() {
		if h.stop == nil {
			return
		}
		close(h.stop)
		for _, f := range h.files {
			f.Close()
		}
	})
}

func (h *linuxHotkey) Keydown() <-chan struct{} { return h.keydown }
func (h *linuxHotkey) Keyup() <-chan struct{}   { return h.keyup }

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "event") && hasKeys(e.Name()) {
			paths = append(paths, filepath.Join("/dev/input", e.Name()))
		}
	}
	return paths, nil
}

// hasKeys reports whether the device advertises a full key bitmap, which
// rules out power buttons and lid switches.
func hasKeys(event string) bool {
	data, err := os.ReadFile(filepath.Join("/sys/class/input", event, "device", "capabilities", "key"))
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(data))) > 10
}

// Diagnose reports whether OS-level chord detection can work here.
func Diagnose() (string, error) {
	paths, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(paths) == 0 {
		return "", errNoKeyboards
	}
	for _, p := range paths {
		if f, err := os.Open(p); err == nil {
			f.Close()
			return fmt.Sprintf("%d keyboard(s) found, opened %s", len(paths), p), nil
		}
	}
	return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(paths))
}

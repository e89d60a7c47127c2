package hotkey

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"macrorec/event"
)

// Chord is Shift+Alt plus one letter.
type Chord struct {
	Letter rune
}

// ParseChord accepts "q", "Q" or "shift+alt+q".
func ParseChord(s string) (Chord, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "shift+alt+")
	s = strings.TrimPrefix(s, "alt+shift+")
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 || n != len(s) || r < 'a' || r > 'z' {
		return Chord{}, fmt.Errorf("invalid chord %q: want shift+alt+<letter>", s)
	}
	return Chord{Letter: r}, nil
}

func (c Chord) String() string {
	return "Shift+Alt+" + string(unicode.ToUpper(c.Letter))
}

// Is reports whether k is the chord's letter, ignoring case.
func (c Chord) Is(k event.Key) bool {
	return !k.IsNamed() && unicode.ToLower(k.Char) == c.Letter
}

// Involves reports whether k is one of the keys making up the chord.
func (c Chord) Involves(k event.Key) bool {
	return k.IsShift() || k.IsAlt() || c.Is(k)
}

// Matcher detects a chord from raw key notifications. Its modifier flags
// are its own and unrelated to any capture in progress.
type Matcher struct {
	chord     Chord
	shiftHeld bool
	altHeld   bool
	down      bool
}

func NewMatcher(c Chord) *Matcher {
	return &Matcher{chord: c}
}

// Feed updates modifier state and reports chord transitions: pressed when
// the letter goes down with both modifiers held, released when that letter
// comes back up. Auto-repeat of a held letter does not fire again.
func (m *Matcher) Feed(n event.Notification) (pressed, released bool) {
	k := n.Key
	switch n.Kind {
	case event.KeyPress:
		switch {
		case k.IsShift():
			m.shiftHeld = true
		case k.IsAlt():
			m.altHeld = true
		case m.chord.Is(k) && m.shiftHeld && m.altHeld && !m.down:
			m.down = true
			return true, false
		}
	case event.KeyRelease:
		switch {
		case k.IsShift():
			m.shiftHeld = false
		case k.IsAlt():
			m.altHeld = false
		case m.chord.Is(k) && m.down:
			m.down = false
			return false, true
		}
	}
	return false, false
}

package event

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Key is either a literal character (Char set, Name empty) or a named
// symbol such as "shift_l", "tab" or "f9".
type Key struct {
	Char rune
	Name string
}

func Char(r rune) Key       { return Key{Char: r} }
func Named(name string) Key { return Key{Name: name} }

var (
	Tab   = Named("tab")
	Esc   = Named("esc")
	F9    = Named("f9")
	Shift = Named("shift")
	Alt   = Named("alt")
	AltL  = Named("alt_l")
	AltR  = Named("alt_r")
	AltGr = Named("alt_gr")
)

func (k Key) IsZero() bool  { return k.Char == 0 && k.Name == "" }
func (k Key) IsNamed() bool { return k.Name != "" }

func (k Key) String() string {
	if k.Name != "" {
		return k.Name
	}
	if k.Char == 0 {
		return ""
	}
	return string(k.Char)
}

// Equal compares keys, folding the case of literal characters.
func (k Key) Equal(o Key) bool {
	if k.Name != "" || o.Name != "" {
		return k.Name == o.Name
	}
	return unicode.ToLower(k.Char) == unicode.ToLower(o.Char)
}

func (k Key) IsTab() bool { return k.Name == "tab" }

// IsShift reports the shift variants tracked as a held modifier.
func (k Key) IsShift() bool {
	switch k.Name {
	case "shift", "shift_l", "shift_r":
		return true
	}
	return false
}

// IsAlt reports the alt variants tracked as a held modifier. alt_gr is not
// one of them.
func (k Key) IsAlt() bool {
	switch k.Name {
	case "alt", "alt_l", "alt_r":
		return true
	}
	return false
}

// DenotesAlt is wider than IsAlt: any symbol whose name carries "alt",
// alt_gr included.
func (k Key) DenotesAlt() bool {
	return k.Name != "" && strings.Contains(k.Name, "alt")
}

// ParseKey reads a key from user input: a single character is a literal
// key, anything longer is a symbol name ("f9", "esc", "Key.shift_l").
func ParseKey(s string) Key {
	s = strings.TrimPrefix(strings.TrimSpace(s), "Key.")
	if s == "" {
		return Key{}
	}
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		return Char(r)
	}
	return Named(strings.ToLower(s))
}

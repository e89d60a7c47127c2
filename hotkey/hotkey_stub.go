//go:build !linux && !darwin && !windows

package hotkey

import (
	"errors"
	"fmt"
)

var errNoOSHotkey = errors.New("OS hotkeys not supported on this platform")

// New returns a hotkey that fails to register; use NewStream instead.
func New(c Chord) Hotkey { return stubHotkey{chord: c} }

type stubHotkey struct{ chord Chord }

func (h stubHotkey) Register() error        { return fmt.Errorf("%s: %w", h.chord, errNoOSHotkey) }
func (stubHotkey) Unregister()              {}
func (stubHotkey) Keydown() <-chan struct{} { return nil }
func (stubHotkey) Keyup() <-chan struct{}   { return nil }

func Diagnose() (string, error) { return "", errNoOSHotkey }

//go:build cgo

package input

import (
	"fmt"
	"unicode/utf8"

	"github.com/go-vgo/robotgo"

	"macrorec/event"
)

// RobotInjector drives the pointer and keyboard through robotgo.
type RobotInjector struct{}

// NewSystemInjector returns the injector for this build.
func NewSystemInjector() (Injector, error) {
	return RobotInjector{}, nil
}

func (RobotInjector) MoveTo(x, y int32) error {
	robotgo.Move(int(x), int(y))
	return nil
}

func (RobotInjector) Button(b event.Button, down bool) error {
	robotgo.Toggle(robotButton(b), toggleWord(down))
	return nil
}

func (RobotInjector) Scroll(dx, dy int32) error {
	robotgo.Scroll(int(dx), int(dy))
	return nil
}

// Key toggles name. robotgo looks up single characters by byte, so a
// non-ASCII character has no key code and is refused up front.
func (RobotInjector) Key(name string, down bool) error {
	if utf8.RuneCountInString(name) == 1 && len(name) > 1 {
		return fmt.Errorf("%w: %q", event.ErrUnknownKey, name)
	}
	if err := robotgo.KeyToggle(name, toggleWord(down)); err != nil {
		return fmt.Errorf("%w: %q: %w", event.ErrUnknownKey, name, err)
	}
	return nil
}

func robotButton(b event.Button) string {
	switch b {
	case event.ButtonRight:
		return "right"
	case event.ButtonMiddle:
		return "center"
	}
	return "left"
}

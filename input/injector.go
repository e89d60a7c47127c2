package input

import "macrorec/event"

// Injector synthesises input at the OS level. Key names are the ones
// produced by replay.Resolve.
type Injector interface {
	MoveTo(x, y int32) error
	Button(b event.Button, down bool) error
	Scroll(dx, dy int32) error
	Key(name string, down bool) error
}

func toggleWord(down bool) string {
	if down {
		return "down"
	}
	return "up"
}

package event

import "fmt"

type Kind uint8

const (
	PointerMove Kind = iota + 1
	PointerButton
	PointerScroll
	KeyPress
	KeyRelease
)

func (k Kind) String() string {
	switch k {
	case PointerMove:
		return "pointer_move"
	case PointerButton:
		return "pointer_button"
	case PointerScroll:
		return "pointer_scroll"
	case KeyPress:
		return "key_press"
	case KeyRelease:
		return "key_release"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsKey reports whether k is a key press or release.
func (k Kind) IsKey() bool { return k == KeyPress || k == KeyRelease }

type Button uint8

const (
	ButtonLeft Button = iota + 1
	ButtonRight
	ButtonMiddle
	ButtonOther
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	}
	return "other"
}

// Event is one captured input event. Only the fields meaningful for Kind are
// set: X/Y for pointer kinds, Button/Pressed for PointerButton, DX/DY for
// PointerScroll and Key for the key kinds. T is seconds since capture start.
type Event struct {
	Kind    Kind
	X, Y    int32
	Button  Button
	Pressed bool
	DX, DY  int32
	Key     Key
	T       float64
}

func (e Event) String() string {
	switch e.Kind {
	case PointerMove:
		return fmt.Sprintf("%.3f move %d,%d", e.T, e.X, e.Y)
	case PointerButton:
		state := "up"
		if e.Pressed {
			state = "down"
		}
		return fmt.Sprintf("%.3f %s %s at %d,%d", e.T, e.Button, state, e.X, e.Y)
	case PointerScroll:
		return fmt.Sprintf("%.3f scroll %d,%d at %d,%d", e.T, e.DX, e.DY, e.X, e.Y)
	case KeyPress:
		return fmt.Sprintf("%.3f press %s", e.T, e.Key)
	case KeyRelease:
		return fmt.Sprintf("%.3f release %s", e.T, e.Key)
	}
	return fmt.Sprintf("%.3f %s", e.T, e.Kind)
}

// Notification is a raw input event as delivered by a Source, before it has
// been timestamped and filtered.
type Notification struct {
	Kind    Kind
	X, Y    int32
	Button  Button
	Pressed bool
	DX, DY  int32
	Key     Key
}

// At stamps n with t seconds.
func (n Notification) At(t float64) Event {
	return Event{
		Kind:    n.Kind,
		X:       n.X,
		Y:       n.Y,
		Button:  n.Button,
		Pressed: n.Pressed,
		DX:      n.DX,
		DY:      n.DY,
		Key:     n.Key,
		T:       t,
	}
}

func Press(k Key) Notification   { return Notification{Kind: KeyPress, Key: k} }
func Release(k Key) Notification { return Notification{Kind: KeyRelease, Key: k} }

func Move(x, y int32) Notification {
	return Notification{Kind: PointerMove, X: x, Y: y}
}

func Click(x, y int32, b Button, pressed bool) Notification {
	return Notification{Kind: PointerButton, X: x, Y: y, Button: b, Pressed: pressed}
}

func Scroll(x, y, dx, dy int32) Notification {
	return Notification{Kind: PointerScroll, X: x, Y: y, DX: dx, DY: dy}
}

package hotkey

// Hotkey delivers presses and releases of one global chord.
type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

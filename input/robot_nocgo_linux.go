//go:build !cgo

package input

// NewSystemInjector returns the injector for this build. Without cgo only
// the uinput device is available, so replays that move the pointer fail.
func NewSystemInjector() (Injector, error) {
	u, err := OpenUinput("macrorec-replay")
	if err != nil {
		return nil, err
	}
	return u, nil
}

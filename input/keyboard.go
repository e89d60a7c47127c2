//go:build cgo

package input

import (
	"fmt"

	"github.com/micmonay/keybd_event"

	"macrorec/event"
)

// ProbeKeyboard checks that the OS lets this process create a synthetic
// keyboard, which replay depends on.
func ProbeKeyboard() error {
	if _, err := keybd_event.NewKeyBonding(); err != nil {
		return fmt.Errorf("%w: %w", event.ErrUnavailable, err)
	}
	return nil
}

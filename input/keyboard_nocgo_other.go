//go:build !cgo && !linux

package input

import (
	"fmt"

	"macrorec/event"
)

func ProbeKeyboard() error {
	return fmt.Errorf("%w: keyboard injection needs a cgo build", event.ErrUnavailable)
}

//go:build !cgo && !linux

package input

import (
	"fmt"

	"macrorec/event"
)

func NewSystemInjector() (Injector, error) {
	return nil, fmt.Errorf("%w: input injection needs a cgo build", event.ErrUnavailable)
}

//go:build !cgo

package input

import (
	"context"
	"fmt"

	"macrorec/event"
)

// Hub needs the cgo system hook; without it every stream fails.
type Hub struct{}

func NewHub() *Hub { return &Hub{} }

func (h *Hub) Stream(context.Context, func(event.Notification) error) error {
	return fmt.Errorf("%w: built without cgo", event.ErrUnavailable)
}

func (h *Hub) Close() {}

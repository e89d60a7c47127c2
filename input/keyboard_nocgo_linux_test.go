//go:build !cgo

package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrorec/event"
)

func TestKeyboardCheckUsesUinput(t *testing.T) {
	if err := ProbeKeyboard(); err != nil {
		assert.ErrorIs(t, err, event.ErrUnavailable)
		return
	}
	inj, err := NewSystemInjector()
	require.NoError(t, err)
	u, ok := inj.(*UinputInjector)
	require.True(t, ok)
	assert.NoError(t, u.Close())
}

package input

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"macrorec/event"
)

func TestEvdevCode(t *testing.T) {
	for name, want := range map[string]uint16{
		"a":      30,
		"A":      30,
		"!":      2,
		"lshift": 42,
		"ralt":   100,
		"f1":     59,
		"f10":    68,
		"f13":    183,
		"left":   105,
		"space":  57,
		"num1":   79,
		"num/":   98,
		"f24":    194,
	} {
		got, ok := evdevCode(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := evdevCode("hyper")
	assert.False(t, ok)
}

func TestUinputKeyRefusesUnknownKey(t *testing.T) {
	var u UinputInjector
	err := u.Key("é", true)
	assert.ErrorIs(t, err, event.ErrUnknownKey)
}

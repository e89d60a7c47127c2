//go:build linux

package hotkey

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func rawEvent(typ, code uint16, value int32) []byte {
	b := make([]byte, inputEventSize)
	binary.LittleEndian.PutUint16(b[16:], typ)
	binary.LittleEndian.PutUint16(b[18:], code)
	binary.LittleEndian.PutUint32(b[20:], uint32(value))
	return b
}

func TestDecodeKeys(t *testing.T) {
	var buf []byte
	buf = append(buf, rawEvent(evKey, 16, valuePress)...)
	buf = append(buf, rawEvent(0, 0, 0)...) // EV_SYN
	buf = append(buf, rawEvent(evKey, 16, valueRelease)...)
	buf = append(buf, 1, 2, 3) // partial record

	assert.Equal(t, []keyEvent{{16, valuePress}, {16, valueRelease}}, decodeKeys(buf))
}

func TestEvdevChord(t *testing.T) {
	q := letterCodes['q']
	c := &evdevChord{letter: q}

	down, _ := c.feed(keyEvent{q, valuePress})
	assert.False(t, down, "letter alone")
	c.feed(keyEvent{q, valueRelease})

	c.feed(keyEvent{codeLeftShift, valuePress})
	c.feed(keyEvent{codeRightAlt, valuePress})
	down, _ = c.feed(keyEvent{q, valuePress})
	assert.True(t, down)

	down, _ = c.feed(keyEvent{q, 2})
	assert.False(t, down, "auto-repeat")

	_, up := c.feed(keyEvent{q, valueRelease})
	assert.True(t, up)

	c.feed(keyEvent{codeRightAlt, valueRelease})
	down, _ = c.feed(keyEvent{q, valuePress})
	assert.False(t, down, "alt released")
}

func TestEvdevChordModifiersAcrossSides(t *testing.T) {
	w := letterCodes['w']
	c := &evdevChord{letter: w}
	c.feed(keyEvent{codeLeftShift, valuePress})
	c.feed(keyEvent{codeRightShift, valuePress})
	c.feed(keyEvent{codeLeftShift, valueRelease})
	c.feed(keyEvent{codeLeftAlt, valuePress})

	down, _ := c.feed(keyEvent{w, valuePress})
	assert.True(t, down, "right shift still held")
}

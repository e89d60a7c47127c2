package input

import (
	"fmt"

	"macrorec/event"
)

// Virtual key codes reported by the system hook for the keys we name.
const (
	vcEscape     = 0x0001
	vcF1         = 0x003B
	vcF10        = 0x0044
	vcF11        = 0x0057
	vcF12        = 0x0058
	vcBackspace  = 0x000E
	vcTab        = 0x000F
	vcEnter      = 0x001C
	vcSpace      = 0x0039
	vcCapsLock   = 0x003A
	vcShiftL     = 0x002A
	vcShiftR     = 0x0036
	vcControlL   = 0x001D
	vcControlR   = 0x0E1D
	vcAltL       = 0x0038
	vcAltR       = 0x0E38
	vcMetaL      = 0x0E5B
	vcMetaR      = 0x0E5C
	vcMenu       = 0x0E5D
	vcPrintScr   = 0x0E37
	vcInsert     = 0x0E52
	vcDelete     = 0x0E53
	vcHome       = 0x0E47
	vcEnd        = 0x0E4F
	vcPageUp     = 0x0E49
	vcPageDown   = 0x0E51
	vcUp         = 0xE048
	vcDown       = 0xE050
	vcLeft       = 0xE04B
	vcRight      = 0xE04D
	vcNumLock    = 0x0045
	vcScrollLock = 0x0046
	vcLessGreat  = 0x0056
	vcF13        = 0x005B
	vcF24        = 0x0076

	vcKPDivide   = 0x0E35
	vcKPMultiply = 0x0037
	vcKPSubtract = 0x004A
	vcKPAdd      = 0x004E
	vcKPEnter    = 0x0E1C
	vcKPEquals   = 0x0E0D
	vcKPDecimal  = 0x0053
	vcKP0        = 0x0052
	vcKP1        = 0x004F
	vcKP2        = 0x0050
	vcKP3        = 0x0051
	vcKP4        = 0x004B
	vcKP5        = 0x004C
	vcKP6        = 0x004D
	vcKP7        = 0x0047
	vcKP8        = 0x0048
	vcKP9        = 0x0049
)

var namedCodes = map[uint16]string{
	vcEscape:     "esc",
	vcF11:        "f11",
	vcF12:        "f12",
	vcBackspace:  "backspace",
	vcTab:        "tab",
	vcEnter:      "enter",
	vcSpace:      "space",
	vcCapsLock:   "caps_lock",
	vcShiftL:     "shift_l",
	vcShiftR:     "shift_r",
	vcControlL:   "ctrl_l",
	vcControlR:   "ctrl_r",
	vcAltL:       "alt_l",
	vcAltR:       "alt_r",
	vcMetaL:      "cmd",
	vcMetaR:      "cmd_r",
	vcMenu:       "menu",
	vcPrintScr:   "print_screen",
	vcInsert:     "insert",
	vcDelete:     "delete",
	vcHome:       "home",
	vcEnd:        "end",
	vcPageUp:     "page_up",
	vcPageDown:   "page_down",
	vcUp:         "up",
	vcDown:       "down",
	vcLeft:       "left",
	vcRight:      "right",
	vcNumLock:    "num_lock",
	vcScrollLock: "scroll_lock",
	vcLessGreat:  "less_greater",
	vcF24:        "f24",

	vcKPDivide:   "kp_divide",
	vcKPMultiply: "kp_multiply",
	vcKPSubtract: "kp_subtract",
	vcKPAdd:      "kp_add",
	vcKPEnter:    "kp_enter",
	vcKPEquals:   "kp_equal",
	vcKPDecimal:  "kp_decimal",
	vcKP0:        "kp_0",
	vcKP1:        "kp_1",
	vcKP2:        "kp_2",
	vcKP3:        "kp_3",
	vcKP4:        "kp_4",
	vcKP5:        "kp_5",
	vcKP6:        "kp_6",
	vcKP7:        "kp_7",
	vcKP8:        "kp_8",
	vcKP9:        "kp_9",
}

// charCodes holds the unshifted character of each printable key.
var charCodes = map[uint16]rune{
	0x0029: '`', 0x0002: '1', 0x0003: '2', 0x0004: '3', 0x0005: '4',
	0x0006: '5', 0x0007: '6', 0x0008: '7', 0x0009: '8', 0x000A: '9',
	0x000B: '0', 0x000C: '-', 0x000D: '=',
	0x0010: 'q', 0x0011: 'w', 0x0012: 'e', 0x0013: 'r', 0x0014: 't',
	0x0015: 'y', 0x0016: 'u', 0x0017: 'i', 0x0018: 'o', 0x0019: 'p',
	0x001A: '[', 0x001B: ']', 0x002B: '\\',
	0x001E: 'a', 0x001F: 's', 0x0020: 'd', 0x0021: 'f', 0x0022: 'g',
	0x0023: 'h', 0x0024: 'j', 0x0025: 'k', 0x0026: 'l', 0x0027: ';',
	0x0028: '\'',
	0x002C: 'z', 0x002D: 'x', 0x002E: 'c', 0x002F: 'v', 0x0030: 'b',
	0x0031: 'n', 0x0032: 'm', 0x0033: ',', 0x0034: '.', 0x0035: '/',
}

func init() {
	// f1 to f10 are contiguous
	for i := uint16(0); i <= vcF10-vcF1; i++ {
		namedCodes[vcF1+i] = fmt.Sprintf("f%d", i+1)
	}
	// f13 to f15 sit at 0x5B, f16 to f23 resume at 0x63
	for i, code := range []uint16{0x5B, 0x5C, 0x5D, 0x63, 0x64, 0x65, 0x66, 0x67, 0x68, 0x69, 0x6A} {
		namedCodes[code] = fmt.Sprintf("f%d", i+13)
	}
}

// RawKeyName is the symbol recorded for a key code with no name, written
// the way other recorders store bare virtual key codes.
func RawKeyName(code uint16) string { return fmt.Sprintf("<%d>", code) }

// KeyForCode maps a hook key code to a key. Codes without a name become a
// raw "<code>" symbol so the press still lands in the log; only the
// undefined code 0 reports false.
func KeyForCode(code uint16) (event.Key, bool) {
	if name, ok := namedCodes[code]; ok {
		return event.Named(name), true
	}
	if r, ok := charCodes[code]; ok {
		return event.Char(r), true
	}
	if code == 0 {
		return event.Key{}, false
	}
	return event.Named(RawKeyName(code)), true
}

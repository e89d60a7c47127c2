package input

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"
	"unicode"
	"unicode/utf8"

	"macrorec/event"
)

// ioctl constants from linux/uinput.h
const (
	uiSetEvbit   = 0x40045564 // UI_SET_EVBIT
	uiSetKeybit  = 0x40045565 // UI_SET_KEYBIT
	uiSetRelbit  = 0x40045566 // UI_SET_RELBIT
	uiDevCreate  = 0x5501     // UI_DEV_CREATE
	uiDevDestroy = 0x5502     // UI_DEV_DESTROY
)

// event types and codes from linux/input-event-codes.h
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02

	relX      = 0x00
	relY      = 0x01
	relHWheel = 0x06
	relWheel  = 0x08

	btnLeft   = 0x110
	btnRight  = 0x111
	btnMiddle = 0x112
)

const busUSB = 0x03

type inputEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type uinputUserDev struct {
	Name         [80]byte
	ID           inputID
	FfEffectsMax uint32
	Absmax       [64]int32
	Absmin       [64]int32
	Absfuzz      [64]int32
	Absflat      [64]int32
}

// ErrNoAbsolutePointer is returned by UinputInjector.MoveTo: a virtual
// device has no notion of where the cursor is.
var ErrNoAbsolutePointer = errors.New("uinput cannot place the pointer at absolute coordinates")

// evdevNames maps injector key names to evdev codes. Codes for the
// printable keys and the plain function keys coincide with the hook's.
var evdevNames = map[string]uint16{
	"esc": 1, "backspace": 14, "tab": 15, "enter": 28, "space": 57,
	"capslock": 58, "lshift": 42, "shift": 42, "rshift": 54,
	"lctrl": 29, "ctrl": 29, "rctrl": 97, "lalt": 56, "alt": 56, "ralt": 100,
	"lcmd": 125, "cmd": 125, "rcmd": 126, "menu": 127,
	"printscreen": 99, "insert": 110, "delete": 111, "home": 102, "end": 107,
	"pageup": 104, "pagedown": 109, "up": 103, "down": 108, "left": 105, "right": 106,
	"f11": 87, "f12": 88,
	"num_lock": 69,
	"num0":     82, "num1": 79, "num2": 80, "num3": 81, "num4": 75,
	"num5": 76, "num6": 77, "num7": 71, "num8": 72, "num9": 73,
	"num/": 98, "num*": 55, "num-": 74, "num+": 78, "num.": 83,
	"num_enter": 96, "num_equal": 117,
}

// shiftedBase maps US-layout shifted symbols to the key that produces them.
var shiftedBase = map[rune]rune{
	'~': '`', '!': '1', '@': '2', '#': '3', '$': '4', '%': '5', '^': '6',
	'&': '7', '*': '8', '(': '9', ')': '0', '_': '-', '+': '=',
	'{': '[', '}': ']', '|': '\\', ':': ';', '"': '\'', '<': ',', '>': '.', '?': '/',
}

func init() {
	for i := uint16(0); i < 10; i++ {
		evdevNames[fmt.Sprintf("f%d", i+1)] = vcF1 + i
	}
	for i := uint16(0); i < 12; i++ {
		evdevNames[fmt.Sprintf("f%d", i+13)] = 183 + i
	}
	for code, r := range charCodes {
		evdevNames[string(r)] = code
	}
}

func evdevCode(name string) (uint16, bool) {
	if code, ok := evdevNames[name]; ok {
		return code, true
	}
	if utf8.RuneCountInString(name) != 1 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(name)
	if base, ok := shiftedBase[r]; ok {
		r = base
	}
	code, ok := evdevNames[string(unicode.ToLower(r))]
	return code, ok
}

// UinputInjector writes to a virtual keyboard-and-wheel device. It needs
// write access to /dev/uinput and cannot move the pointer.
type UinputInjector struct {
	mu sync.Mutex
	f  *os.File
}

// OpenUinput creates the virtual device.
func OpenUinput(name string) (*UinputInjector, error) {
	path := "/dev/uinput"
	if _, err := os.Stat(path); err != nil {
		path = "/dev/input/uinput"
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: uinput device not found, try: sudo modprobe uinput", event.ErrUnavailable)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|syscall.O_NONBLOCK, os.ModeDevice)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", event.ErrUnavailable, err)
	}
	if err := setupDevice(f, name); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", event.ErrUnavailable, err)
	}
	// Give the compositor time to pick up the new device
	time.Sleep(200 * time.Millisecond)
	return &UinputInjector{f: f}, nil
}

func ioctl(f *os.File, req, arg uintptr) error {
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), req, arg); errno != 0 {
		return errno
	}
	return nil
}

func setupDevice(f *os.File, name string) error {
	for _, ev := range []uintptr{evKey, evSyn, evRel} {
		if err := ioctl(f, uiSetEvbit, ev); err != nil {
			return err
		}
	}
	// all standard keys so udev classifies this as a keyboard
	for i := uintptr(0); i < 256; i++ {
		if err := ioctl(f, uiSetKeybit, i); err != nil {
			return err
		}
	}
	for _, b := range []uintptr{btnLeft, btnRight, btnMiddle} {
		if err := ioctl(f, uiSetKeybit, b); err != nil {
			return err
		}
	}
	for _, r := range []uintptr{relX, relY, relWheel, relHWheel} {
		if err := ioctl(f, uiSetRelbit, r); err != nil {
			return err
		}
	}

	dev := uinputUserDev{}
	copy(dev.Name[:], name)
	dev.ID.Bustype = busUSB
	dev.ID.Vendor = 0x1234
	dev.ID.Product = 0x5679
	dev.ID.Version = 1
	if err := binary.Write(f, binary.LittleEndian, &dev); err != nil {
		return err
	}
	return ioctl(f, uiDevCreate, 0)
}

func (u *UinputInjector) emit(typ, code uint16, value int32) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.f == nil {
		return os.ErrClosed
	}
	ev := inputEvent{Type: typ, Code: code, Value: value}
	if err := binary.Write(u.f, binary.LittleEndian, &ev); err != nil {
		return err
	}
	syn := inputEvent{Type: evSyn}
	return binary.Write(u.f, binary.LittleEndian, &syn)
}

func (u *UinputInjector) MoveTo(int32, int32) error { return ErrNoAbsolutePointer }

func (u *UinputInjector) Button(b event.Button, down bool) error {
	code := uint16(btnLeft)
	switch b {
	case event.ButtonRight:
		code = btnRight
	case event.ButtonMiddle:
		code = btnMiddle
	}
	return u.emit(evKey, code, boolValue(down))
}

func (u *UinputInjector) Scroll(dx, dy int32) error {
	if dy != 0 {
		if err := u.emit(evRel, relWheel, dy); err != nil {
			return err
		}
	}
	if dx != 0 {
		return u.emit(evRel, relHWheel, dx)
	}
	return nil
}

func (u *UinputInjector) Key(name string, down bool) error {
	code, ok := evdevCode(name)
	if !ok {
		return fmt.Errorf("%w: no evdev code for %q", event.ErrUnknownKey, name)
	}
	return u.emit(evKey, code, boolValue(down))
}

// Close destroys the virtual device.
func (u *UinputInjector) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.f == nil {
		return nil
	}
	ioctl(u.f, uiDevDestroy, 0)
	err := u.f.Close()
	u.f = nil
	return err
}

func boolValue(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

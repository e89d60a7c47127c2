package replay

import (
	"fmt"

	"macrorec/event"
)

// injectNames maps captured symbol names to the names the injector
// understands.
var injectNames = map[string]string{
	"space":        "space",
	"enter":        "enter",
	"tab":          "tab",
	"backspace":    "backspace",
	"delete":       "delete",
	"esc":          "esc",
	"insert":       "insert",
	"home":         "home",
	"end":          "end",
	"page_up":      "pageup",
	"page_down":    "pagedown",
	"up":           "up",
	"down":         "down",
	"left":         "left",
	"right":        "right",
	"caps_lock":    "capslock",
	"print_screen": "printscreen",
	"menu":         "menu",
	"shift":        "shift",
	"shift_l":      "lshift",
	"shift_r":      "rshift",
	"ctrl":         "ctrl",
	"ctrl_l":       "lctrl",
	"ctrl_r":       "rctrl",
	"alt":          "alt",
	"alt_l":        "lalt",
	"alt_r":        "ralt",
	"alt_gr":       "ralt",
	"cmd":          "cmd",
	"cmd_l":        "lcmd",
	"cmd_r":        "rcmd",
	"num_lock":     "num_lock",
	"kp_divide":    "num/",
	"kp_multiply":  "num*",
	"kp_subtract":  "num-",
	"kp_add":       "num+",
	"kp_enter":     "num_enter",
	"kp_equal":     "num_equal",
	"kp_decimal":   "num.",
}

// ErrUnknownKey marks an injector's refusal of a resolved key name. The
// scheduler skips such events instead of failing the replay.
var ErrUnknownKey = event.ErrUnknownKey

func init() {
	for i := 1; i <= 24; i++ {
		name := fmt.Sprintf("f%d", i)
		injectNames[name] = name
	}
	for i := 0; i <= 9; i++ {
		injectNames[fmt.Sprintf("kp_%d", i)] = fmt.Sprintf("num%d", i)
	}
}

// Resolve maps a captured key to the injector's name for it. Literal
// characters pass through; unknown named symbols report false.
func Resolve(k event.Key) (string, bool) {
	if !k.IsNamed() {
		if k.Char == 0 {
			return "", false
		}
		return string(k.Char), true
	}
	name, ok := injectNames[k.Name]
	return name, ok
}

//go:build darwin

package hotkey

import "golang.design/x/hotkey"

// Option is the macOS name for Alt.
const altModifier = hotkey.ModOption

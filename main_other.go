//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

// Native hotkeys on macOS must be registered from the main thread.
func main() {
	mainthread.Init(run)
}

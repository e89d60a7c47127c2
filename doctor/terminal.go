package doctor

import (
	"os"

	"golang.org/x/term"

	"macrorec/shutdown"
)

var savedState *term.State

func saveTerminal() {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return
	}
	if st, err := term.GetState(int(os.Stdin.Fd())); err == nil {
		savedState = st
	}
}

// resetTerminal undoes anything a hotkey backend left behind in stdin.
func resetTerminal() {
	if savedState != nil {
		term.Restore(int(os.Stdin.Fd()), savedState)
	}
}

func setupInterruptHandler() {
	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		resetTerminal()
		println("\nInterrupted")
		os.Exit(1)
	}()
}

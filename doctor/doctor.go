// Package doctor walks the user through checking that capture, hotkeys,
// injection and the clipboard work on this machine.
package doctor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"macrorec/clipboard"
	"macrorec/event"
	"macrorec/hotkey"
	"macrorec/input"
)

const waitTimeout = 10 * time.Second

type Config struct {
	Source event.Source
	Chord  hotkey.Chord
	// Hotkey builds the chord listener; hotkey.New when nil.
	Hotkey func(hotkey.Chord) hotkey.Hotkey
}

type check struct {
	name string
	run  func() bool
}

// Run executes the checks in order, stopping at the first failure, and
// returns an exit code (0=all pass, 1=any fail).
func Run(cfg Config) int {
	saveTerminal()
	setupInterruptHandler()
	if cfg.Hotkey == nil {
		cfg.Hotkey = hotkey.New
	}

	fmt.Println("macrorec doctor - interactive system diagnostics")
	fmt.Println("================================================")

	checks := []check{
		{"Input capture", func() bool { return checkCapture(os.Stdout, cfg.Source, waitTimeout) }},
		{"Hotkey detection", func() bool { return checkHotkey(cfg.Hotkey(cfg.Chord), cfg.Chord) }},
		{"Input injection", checkInjection},
		{"Clipboard", checkClipboard},
	}

	allPass := true
	for i, c := range checks {
		fmt.Println()
		fmt.Printf("[%d/%d] %s\n", i+1, len(checks), c.name)
		if !c.run() {
			allPass = false
			break
		}
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

// checkCapture waits for any pointer or key notification from src.
func checkCapture(w io.Writer, src event.Source, timeout time.Duration) bool {
	fmt.Fprintln(w, "Move the mouse or press a key...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var got event.Notification
	errSeen := errors.New("seen")
	err := src.Stream(ctx, func(n event.Notification) error {
		got = n
		return errSeen
	})
	switch {
	case errors.Is(err, errSeen):
		fmt.Fprintf(w, "  PASS: received %s\n", got.Kind)
		return true
	case err != nil:
		fmt.Fprintf(w, "  FAIL: input hook unavailable: %v\n", err)
		return false
	}
	fmt.Fprintln(w, "  FAIL: timeout waiting for input")
	return false
}

func checkHotkey(hk hotkey.Hotkey, chord hotkey.Chord) bool {
	fmt.Printf("Press %s...\n", chord)

	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		if diag, derr := hotkey.Diagnose(); derr != nil {
			fmt.Printf("  %v\n", derr)
		} else {
			fmt.Printf("  %s\n", diag)
		}
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: hotkey detected")
		// Wait for keyup to avoid triggering next step
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		resetTerminal()
		return true
	case <-time.After(waitTimeout):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkInjection() bool {
	if err := input.ProbeKeyboard(); err != nil {
		fmt.Printf("  FAIL: cannot create a synthetic keyboard: %v\n", err)
		return false
	}
	inj, err := input.NewSystemInjector()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	if c, ok := inj.(io.Closer); ok {
		defer c.Close()
	}

	fmt.Println("Focus on a text editor window...")
	for i := 5; i > 0; i-- {
		fmt.Printf("  %d...\n", i)
		time.Sleep(1 * time.Second)
	}
	for _, r := range "macrorec" {
		name := string(r)
		if err := inj.Key(name, true); err != nil {
			fmt.Printf("  FAIL: key injection failed: %v\n", err)
			return false
		}
		inj.Key(name, false)
		time.Sleep(20 * time.Millisecond)
	}

	resetTerminal()
	if !confirm(os.Stdin, "Did the text \"macrorec\" appear?") {
		fmt.Println("  FAIL: injection not confirmed")
		return false
	}
	fmt.Println("  PASS: injection verified by user")
	return true
}

func checkClipboard() bool {
	previous, _ := clipboard.Read()
	defer clipboard.Copy(previous)

	want := event.Log{event.Move(1, 2).At(0), event.Press(event.F9).At(0.25)}
	if err := clipboard.CopyLog(want); err != nil {
		fmt.Printf("  FAIL: clipboard copy failed: %v\n", err)
		return false
	}
	got, err := clipboard.ReadLog()
	if err != nil {
		fmt.Printf("  FAIL: clipboard read failed: %v\n", err)
		return false
	}
	if len(got) != len(want) {
		fmt.Printf("  FAIL: clipboard returned %d events, want %d\n", len(got), len(want))
		return false
	}
	fmt.Println("  PASS: recording survived the clipboard")
	return true
}

func confirm(r io.Reader, question string) bool {
	fmt.Printf("%s [y/n]: ", question)
	answer, _ := bufio.NewReader(r).ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

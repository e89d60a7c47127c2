package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"macrorec/beep"
	"macrorec/control"
	"macrorec/event"
	"macrorec/hotkey"
	"macrorec/input"
	"macrorec/log"
)

const testWaitTimeout = 10 * time.Second

var errQuit = errors.New("quit")

// echoInjector prints every injected action instead of touching the OS.
type echoInjector struct {
	sink *uiSink
}

func (e *echoInjector) emit(format string, args ...any) error {
	e.sink.printf("inject: "+format, args...)
	return nil
}

func (e *echoInjector) MoveTo(x, y int32) error { return e.emit("move %d,%d", x, y) }

func (e *echoInjector) Button(b event.Button, down bool) error {
	return e.emit("button %s %s", b, upDown(down))
}

func (e *echoInjector) Scroll(dx, dy int32) error { return e.emit("scroll %d,%d", dx, dy) }

func (e *echoInjector) Key(name string, down bool) error {
	return e.emit("key %s %s", name, upDown(down))
}

func upDown(down bool) string {
	if down {
		return "down"
	}
	return "up"
}

type testDriver struct {
	app            *app
	sink           *uiSink
	src            *input.ScriptSource
	capKey, repKey *hotkey.FakeHotkey

	// cursors into the sink's state history and replay count
	stateSeen int
	doneSeen  int
}

// runTestMode drives the app from a line-oriented script on in:
//
//	CAPTURE | REPLAY          press the capture or replay chord
//	PRESS k | RELEASE k       key notification (f9, esc, a, shift_l...)
//	MOVE x y                  pointer move
//	CLICK x y left|right|middle down|up
//	SCROLL x y dx dy
//	WAIT_STATE idle|capturing|ready|replaying
//	WAIT                      wait for the next replay to finish
//	SLEEP ms
//	QUIT
//
// WAIT_STATE consumes state changes in order, so a state entered and left
// between two commands is still seen. Controller notifications and
// injected actions are printed to out.
func runTestMode(cfg config, in io.Reader, out io.Writer) int {
	beep.Disable()

	src := input.NewScriptSource()
	sink := &uiSink{out: out}
	d := &testDriver{
		app:    newApp(cfg, src, &echoInjector{sink: sink}, sink),
		sink:   sink,
		src:    src,
		capKey: hotkey.NewFake(),
		repKey: hotkey.NewFake(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	co := control.NewCoordinator(d.capKey, d.repKey, d.app.ctl)
	go co.Run(ctx)

	if cfg.load != "" {
		if err := d.app.loadFile(cfg.load); err != nil {
			sink.printf("error: %v", err)
			return 1
		}
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := d.exec(strings.Fields(line)); err != nil {
			if errors.Is(err, errQuit) {
				break
			}
			sink.printf("error: %s: %v", line, err)
			log.Errorf("test command %q: %v", line, err)
			return 1
		}
	}

	d.app.ctl.RequestCancel()
	d.app.ctl.Wait(context.Background())
	return 0
}

func (d *testDriver) exec(f []string) error {
	ints := func(from, n int) ([]int32, error) {
		if len(f) < from+n {
			return nil, fmt.Errorf("need %d numbers", n)
		}
		out := make([]int32, n)
		for i := range out {
			v, err := strconv.Atoi(f[from+i])
			if err != nil {
				return nil, err
			}
			out[i] = int32(v)
		}
		return out, nil
	}

	switch strings.ToUpper(f[0]) {
	case "CAPTURE":
		d.capKey.SimPress()
	case "REPLAY":
		d.repKey.SimPress()
	case "PRESS", "RELEASE":
		if len(f) < 2 {
			return fmt.Errorf("missing key")
		}
		k := event.ParseKey(f[1])
		if strings.EqualFold(f[0], "PRESS") {
			d.src.Send(event.Press(k))
		} else {
			d.src.Send(event.Release(k))
		}
	case "MOVE":
		v, err := ints(1, 2)
		if err != nil {
			return err
		}
		d.src.Send(event.Move(v[0], v[1]))
	case "CLICK":
		v, err := ints(1, 2)
		if err != nil {
			return err
		}
		if len(f) < 5 {
			return fmt.Errorf("need button and down|up")
		}
		d.src.Send(event.Click(v[0], v[1], parseButtonWord(f[3]), f[4] == "down"))
	case "SCROLL":
		v, err := ints(1, 4)
		if err != nil {
			return err
		}
		d.src.Send(event.Scroll(v[0], v[1], v[2], v[3]))
	case "WAIT_STATE":
		if len(f) < 2 {
			return fmt.Errorf("missing state")
		}
		return d.waitState(f[1])
	case "WAIT":
		return d.waitReplay()
	case "SLEEP":
		if len(f) < 2 {
			return fmt.Errorf("missing duration")
		}
		ms, err := strconv.Atoi(f[1])
		if err != nil {
			return err
		}
		time.Sleep(time.Duration(ms) * time.Millisecond)
	case "QUIT":
		return errQuit
	default:
		return fmt.Errorf("unknown command")
	}
	return nil
}

func parseButtonWord(s string) event.Button {
	switch s {
	case "left":
		return event.ButtonLeft
	case "right":
		return event.ButtonRight
	case "middle":
		return event.ButtonMiddle
	}
	return event.ButtonOther
}

func parseState(s string) (control.State, error) {
	for _, st := range []control.State{control.Idle, control.Capturing, control.ReplayPending, control.Replaying} {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown state %q", s)
}

func (d *testDriver) waitState(name string) error {
	want, err := parseState(name)
	if err != nil {
		return err
	}
	deadline := time.Now().Add(testWaitTimeout)
	for {
		if i := d.sink.entered(d.stateSeen, want); i >= 0 {
			d.stateSeen = i + 1
			break
		}
		if n, _ := d.sink.progress(); n == d.stateSeen && d.app.ctl.State() == want {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("state is %s", d.app.ctl.State())
		}
		time.Sleep(5 * time.Millisecond)
	}
	// capture and the replay stop key both listen on the source; make sure
	// the listener is attached before the script sends keys
	if want == control.Capturing || want == control.Replaying {
		return d.src.WaitSubscribers(1, testWaitTimeout)
	}
	return nil
}

func (d *testDriver) waitReplay() error {
	deadline := time.Now().Add(testWaitTimeout)
	for {
		if _, n := d.sink.progress(); n > d.doneSeen {
			d.doneSeen++
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New("timed out waiting for replay")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

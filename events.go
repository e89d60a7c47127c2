package main

import (
	"fmt"
	"io"
	"sync"

	"macrorec/beep"
	"macrorec/control"
	"macrorec/replay"
)

// uiSink forwards controller notifications to the TUI, to plain output
// when out is set, and to the audible cues.
type uiSink struct {
	out io.Writer

	mu   sync.Mutex
	last control.State
	// every state entered and the number of finished replays, for the
	// scripted test mode
	history []control.State
	dones   int
}

// entered returns the index of the first st in the state history at or
// after from, or -1.
func (s *uiSink) entered(from int, st control.State) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := from; i < len(s.history); i++ {
		if s.history[i] == st {
			return i
		}
	}
	return -1
}

func (s *uiSink) progress() (states, dones int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history), s.dones
}

func (s *uiSink) printf(format string, args ...any) {
	if s.out == nil {
		logToTUI(format, args...)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format+"\n", args...)
}

func (s *uiSink) StateChanged(st control.State) {
	s.mu.Lock()
	prev := s.last
	s.last = st
	s.history = append(s.history, st)
	s.mu.Unlock()

	switch {
	case st == control.Capturing:
		beep.Play(beep.CaptureStart)
	case prev == control.Capturing:
		beep.Play(beep.CaptureStop)
	case st == control.Replaying:
		beep.Play(beep.ReplayStart)
	}
	tuiSend(StateMsg{State: st})
	s.printf("state: %s", st)
}

func (s *uiSink) CaptureSaved(path string, events int) {
	tuiSend(SavedMsg{Path: path, Events: events})
	s.printf("saved %d events to %s", events, path)
}

func (s *uiSink) ReplayProgress(completed, total int) {
	tuiSend(ProgressMsg{Completed: completed, Total: total})
	s.printf("iteration %d/%d", completed, total)
}

func (s *uiSink) ReplayDone(res replay.Result, err error) {
	defer func() {
		s.mu.Lock()
		s.dones++
		s.mu.Unlock()
	}()
	if err != nil {
		beep.Play(beep.Error)
	} else {
		beep.Play(beep.ReplayDone)
	}
	tuiSend(ReplayDoneMsg{Result: res, Err: err})
	switch {
	case err != nil:
		s.printf("replay failed after %d/%d iterations: %v", res.Completed, res.Requested, err)
	case res.Cancelled:
		s.printf("replay cancelled after %d/%d iterations", res.Completed, res.Requested)
	default:
		s.printf("replay done: %d iterations, %d events injected, %d skipped", res.Completed, res.Injected, res.Skipped)
	}
}

func (s *uiSink) Warning(msg string) {
	beep.Play(beep.Error)
	tuiSend(WarningMsg{Text: msg})
	if s.out != nil {
		s.printf("warning: %s", msg)
	}
}

package control

import (
	"errors"
	"fmt"
)

var (
	ErrBusy         = errors.New("another operation is in progress")
	ErrNoLog        = errors.New("no recorded actions to replay")
	ErrNotCapturing = errors.New("no capture in progress")
)

type State int

const (
	Idle State = iota
	Capturing
	ReplayPending
	Replaying
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case ReplayPending:
		return "ready"
	case Replaying:
		return "replaying"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Busy reports whether s is running an operation that excludes starting
// another one.
func (s State) Busy() bool { return s == Capturing || s == Replaying }

type trigger int

const (
	startCapture trigger = iota
	stopCapture
	load
	startReplay
	stopReplay
)

func (t trigger) String() string {
	return [...]string{"start capture", "stop capture", "load", "start replay", "stop replay"}[t]
}

// next is the transition table. haveLog says whether a non-empty log is
// held once the trigger has been applied.
func next(from State, t trigger, haveLog bool) (State, error) {
	switch t {
	case startCapture:
		if from.Busy() {
			return from, fmt.Errorf("cannot %s while %s: %w", t, from, ErrBusy)
		}
		return Capturing, nil
	case stopCapture:
		if from != Capturing {
			return from, ErrNotCapturing
		}
		if haveLog {
			return ReplayPending, nil
		}
		return Idle, nil
	case load:
		if from.Busy() {
			return from, fmt.Errorf("cannot %s while %s: %w", t, from, ErrBusy)
		}
		if !haveLog {
			return from, ErrNoLog
		}
		return ReplayPending, nil
	case startReplay:
		if from.Busy() {
			return from, fmt.Errorf("cannot %s while %s: %w", t, from, ErrBusy)
		}
		if !haveLog {
			return from, ErrNoLog
		}
		return Replaying, nil
	case stopReplay:
		if from != Replaying {
			return from, fmt.Errorf("cannot %s while %s", t, from)
		}
		return ReplayPending, nil
	}
	return from, fmt.Errorf("unknown trigger %d", t)
}

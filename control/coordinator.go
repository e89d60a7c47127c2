package control

import (
	"context"
	"errors"
	"fmt"

	"macrorec/capture"
	"macrorec/hotkey"
	"macrorec/log"
)

// Coordinator maps the two global chords onto controller toggles. It holds
// no capture state of its own.
type Coordinator struct {
	capture hotkey.Hotkey
	replay  hotkey.Hotkey
	ctl     *Controller
}

func NewCoordinator(captureKey, replayKey hotkey.Hotkey, ctl *Controller) *Coordinator {
	return &Coordinator{capture: captureKey, replay: replayKey, ctl: ctl}
}

// Run registers both chords and dispatches presses until ctx is done.
func (co *Coordinator) Run(ctx context.Context) error {
	if err := co.capture.Register(); err != nil {
		return fmt.Errorf("registering capture hotkey: %w", err)
	}
	defer co.capture.Unregister()
	if err := co.replay.Register(); err != nil {
		return fmt.Errorf("registering replay hotkey: %w", err)
	}
	defer co.replay.Unregister()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-co.capture.Keydown():
			log.Info("hotkey_capture")
			co.report(co.ctl.ToggleCapture())
		case <-co.replay.Keydown():
			log.Info("hotkey_replay")
			co.report(co.ctl.ToggleReplay())
		}
	}
}

func (co *Coordinator) report(err error) {
	if err == nil {
		return
	}
	// busy, empty-log and aborted-capture errors were already surfaced by
	// the controller
	if errors.Is(err, ErrBusy) || errors.Is(err, ErrNoLog) || errors.Is(err, capture.ErrCaptureAborted) {
		return
	}
	log.Errorf("hotkey action failed: %v", err)
	co.ctl.cfg.Sink.Warning(err.Error())
}

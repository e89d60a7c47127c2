package capture

import "macrorec/event"

// Verdict is what the filter decided to do with one notification.
type Verdict int

const (
	Record Verdict = iota
	Discard
	StopAndSave
	StopNoSave
)

func (v Verdict) String() string {
	switch v {
	case Record:
		return "record"
	case Discard:
		return "discard"
	case StopAndSave:
		return "stop_and_save"
	case StopNoSave:
		return "stop_no_save"
	}
	return "unknown"
}

// Controls names the two keys that end a capture session. They are never
// recorded.
type Controls struct {
	Save  event.Key
	Abort event.Key
}

func DefaultControls() Controls {
	return Controls{Save: event.F9, Abort: event.Esc}
}

func (c Controls) match(k event.Key) bool {
	return (!c.Save.IsZero() && k.Equal(c.Save)) || (!c.Abort.IsZero() && k.Equal(c.Abort))
}

// ModifierState is the filter's private view of held modifiers plus the
// first-Alt-Tab bookkeeping. It lives for exactly one session.
type ModifierState struct {
	ShiftHeld bool
	AltHeld   bool

	// FirstAltTabSuppressed is set once the first Alt-Tab of the session
	// has been removed and never cleared.
	FirstAltTabSuppressed bool
	// SuppressingFirstAltTab is set between the suppressed Tab press and
	// the matching alt release.
	SuppressingFirstAltTab bool
}

// Filter turns live notifications into a clean event log. Guards run in a
// fixed order: control keys, then the Alt-Tab rules, then recording.
type Filter struct {
	controls Controls
	mods     ModifierState
	log      event.Log
}

func NewFilter(c Controls) *Filter {
	return &Filter{controls: c}
}

func (f *Filter) Modifiers() ModifierState { return f.mods }

// Log returns the events recorded so far. The slice is owned by the filter.
func (f *Filter) Log() event.Log { return f.log }

// Apply processes one notification observed t seconds into the session.
func (f *Filter) Apply(n event.Notification, t float64) Verdict {
	switch n.Kind {
	case event.KeyPress:
		return f.press(n, t)
	case event.KeyRelease:
		return f.release(n, t)
	}
	f.log.Append(n.At(t))
	return Record
}

func (f *Filter) press(n event.Notification, t float64) Verdict {
	k := n.Key
	if !f.controls.Save.IsZero() && k.Equal(f.controls.Save) {
		return StopAndSave
	}
	if !f.controls.Abort.IsZero() && k.Equal(f.controls.Abort) {
		return StopNoSave
	}

	switch {
	case k.IsShift():
		f.mods.ShiftHeld = true
	case k.IsAlt():
		f.mods.AltHeld = true
	}

	if k.IsTab() && f.mods.AltHeld {
		if f.mods.ShiftHeld {
			return Discard
		}
		if !f.mods.FirstAltTabSuppressed {
			f.mods.FirstAltTabSuppressed = true
			f.mods.SuppressingFirstAltTab = true
			f.log.RemoveLast(func(e event.Event) bool {
				return e.Kind.IsKey() && e.Key.DenotesAlt()
			})
			return Discard
		}
	}

	f.log.Append(n.At(t))
	return Record
}

func (f *Filter) release(n event.Notification, t float64) Verdict {
	k := n.Key
	if f.controls.match(k) {
		return Discard
	}

	// Tab rules see the modifiers as they were while the key was down.
	if f.mods.SuppressingFirstAltTab {
		if k.IsTab() && f.mods.AltHeld && !f.mods.ShiftHeld {
			return Discard
		}
		if k.IsAlt() {
			f.mods.SuppressingFirstAltTab = false
			f.mods.AltHeld = false
			return Discard
		}
	}
	if k.IsTab() && f.mods.ShiftHeld && f.mods.AltHeld {
		return Discard
	}

	switch {
	case k.IsShift():
		f.mods.ShiftHeld = false
	case k.IsAlt():
		f.mods.AltHeld = false
	}

	f.log.Append(n.At(t))
	return Record
}

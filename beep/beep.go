// Package beep plays short audible cues for capture and replay transitions.
package beep

import (
	"math"
	"sync/atomic"
)

var disabled atomic.Bool

func Disable()      { disabled.Store(true) }
func Enabled() bool { return !disabled.Load() }

type Cue int

const (
	CaptureStart Cue = iota
	CaptureStop
	ReplayStart
	ReplayDone
	Error
)

const sampleRate = 44100

// tone is one decaying sine burst; repeats are separated by gap seconds.
type tone struct {
	freq    float64
	dur     float64
	volume  float64
	decay   float64
	repeats int
	gap     float64
}

var cues = map[Cue]tone{
	// high and short
	CaptureStart: {freq: 1200, dur: 0.08, volume: 0.5, decay: 60, repeats: 1},
	CaptureStop:  {freq: 900, dur: 0.1, volume: 0.5, decay: 40, repeats: 1},
	ReplayStart:  {freq: 1200, dur: 0.05, volume: 0.4, decay: 60, repeats: 2, gap: 0.04},
	ReplayDone:   {freq: 700, dur: 0.12, volume: 0.5, decay: 30, repeats: 1},
	// low double beep
	Error: {freq: 350, dur: 0.08, volume: 0.6, decay: 30, repeats: 2, gap: 0.05},
}

// render returns mono 16-bit samples for c.
func render(c Cue) []int16 {
	t, ok := cues[c]
	if !ok {
		return nil
	}
	burst := make([]int16, int(sampleRate*t.dur))
	for i := range burst {
		s := float64(i) / sampleRate
		env := math.Exp(-s * t.decay)
		burst[i] = int16(math.Sin(2*math.Pi*t.freq*s) * 32767 * t.volume * env)
	}
	gap := make([]int16, int(sampleRate*t.gap))
	out := make([]int16, 0, t.repeats*(len(burst)+len(gap)))
	for i := 0; i < t.repeats; i++ {
		if i > 0 {
			out = append(out, gap...)
		}
		out = append(out, burst...)
	}
	return out
}

// Play sounds c without blocking the caller.
func Play(c Cue) {
	if disabled.Load() {
		return
	}
	play(render(c))
}

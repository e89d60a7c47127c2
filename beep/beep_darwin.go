//go:build darwin

package beep

import (
	"sync"

	"github.com/gen2brain/malgo"

	"macrorec/log"
)

// speaker keeps one playback device open and feeds it queued cues from the
// device callback. Cues played back to back are appended, not cut off.
type speaker struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	mu      sync.Mutex
	queue   []int16
	running bool
}

var (
	out     *speaker
	outOnce sync.Once
)

func openSpeaker() *speaker {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		log.Warnf("beep: %v", err)
		return nil
	}
	s := &speaker{ctx: ctx}
	if err := s.openDevice(); err != nil {
		log.Warnf("beep: %v", err)
		ctx.Uninit()
		return nil
	}
	return s
}

func (s *speaker) openDevice() error {
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = 1
	cfg.SampleRate = sampleRate

	dev, err := malgo.InitDevice(s.ctx.Context, cfg, malgo.DeviceCallbacks{Data: s.fill})
	if err != nil {
		return err
	}
	s.device = dev
	return nil
}

// fill runs on the audio thread. It drains the queue and pads with silence.
func (s *speaker) fill(output, _ []byte, frames uint32) {
	s.mu.Lock()
	n := int(frames)
	if n > len(s.queue) {
		n = len(s.queue)
	}
	for i, v := range s.queue[:n] {
		output[i*2] = byte(v)
		output[i*2+1] = byte(v >> 8)
	}
	s.queue = s.queue[n:]
	s.mu.Unlock()

	clear(output[n*2 : int(frames)*2])
}

func (s *speaker) enqueue(samples []int16) {
	s.mu.Lock()
	s.queue = append(s.queue, samples...)
	started := s.running
	s.running = true
	s.mu.Unlock()
	if started {
		return
	}

	if err := s.device.Start(); err == nil {
		return
	}
	// the device goes stale across sleep/wake; reopen once
	s.device.Uninit()
	if err := s.openDevice(); err != nil {
		log.Warnf("beep: reopening device: %v", err)
		s.reset()
		return
	}
	if err := s.device.Start(); err != nil {
		log.Warnf("beep: %v", err)
		s.reset()
	}
}

func (s *speaker) reset() {
	s.mu.Lock()
	s.queue = nil
	s.running = false
	s.mu.Unlock()
}

func Init() {
	outOnce.Do(func() { out = openSpeaker() })
}

func play(samples []int16) {
	Init()
	if out == nil || len(samples) == 0 {
		return
	}
	out.enqueue(samples)
}

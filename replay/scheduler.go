package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"macrorec/event"
	"macrorec/log"
)

// Injector synthesizes input. Key names are the ones produced by Resolve.
type Injector interface {
	MoveTo(x, y int32) error
	Button(b event.Button, down bool) error
	Scroll(dx, dy int32) error
	Key(name string, down bool) error
}

// ErrUnknownKind is returned for an event whose kind the scheduler cannot
// inject. It ends the replay.
var ErrUnknownKind = errors.New("unknown event kind")

type Result struct {
	Requested int
	// Completed counts iterations that ran to their last event.
	Completed int
	Cancelled bool
	Injected  int
	Skipped   int
}

type Scheduler struct {
	inj Injector

	// OnIteration, if set, is called after each completed iteration.
	OnIteration func(completed, total int)
}

func NewScheduler(inj Injector) *Scheduler {
	return &Scheduler{inj: inj}
}

// Run plays l opts.Repeat times, reproducing the recorded gaps between
// events. Cancelling tok or ctx stops it at the next slice boundary; an
// event whose injection has started always completes. A nil tok means the
// run can only be stopped through ctx.
func (s *Scheduler) Run(ctx context.Context, l event.Log, opts Options, tok *Token) (res Result, err error) {
	res.Requested = opts.Repeat
	if err := opts.Validate(); err != nil {
		return res, err
	}
	opts = opts.withDefaults()
	if tok == nil {
		tok = NewToken()
	}

	started := time.Now()
	log.ReplayStart(len(l), opts.Repeat, opts.Delay)
	defer func() {
		log.ReplayEnd(log.ReplaySummary{
			Requested: res.Requested,
			Completed: res.Completed,
			Cancelled: res.Cancelled,
			Injected:  res.Injected,
			Skipped:   res.Skipped,
			Elapsed:   time.Since(started),
			Err:       err,
		})
	}()

	if !s.sleep(ctx, time.Now().Add(opts.Delay), opts.Slice, tok) {
		res.Cancelled = true
		return res, nil
	}

	for iter := 1; iter <= opts.Repeat; iter++ {
		origin := time.Now()
		for i, e := range l {
			due := origin.Add(time.Duration(e.T * float64(time.Second)))
			if !s.sleep(ctx, due, opts.Slice, tok) || stopped(ctx, tok) {
				res.Cancelled = true
				return res, nil
			}
			skipped, err := s.inject(e)
			if err != nil {
				return res, fmt.Errorf("iteration %d, event %d (%s): %w", iter, i, e.Kind, err)
			}
			if skipped {
				res.Skipped++
				log.KeySkipped(e.Key.String(), i)
				continue
			}
			res.Injected++
		}
		res.Completed = iter
		if s.OnIteration != nil {
			s.OnIteration(iter, opts.Repeat)
		}

		if iter < opts.Repeat && !s.sleep(ctx, time.Now().Add(opts.Pause), opts.Slice, tok) {
			res.Cancelled = true
			return res, nil
		}
	}
	return res, nil
}

func stopped(ctx context.Context, tok *Token) bool {
	return tok.Cancelled() || ctx.Err() != nil
}

// sleep waits until deadline in steps of at most slice and reports false
// if cancellation was observed first.
func (s *Scheduler) sleep(ctx context.Context, deadline time.Time, slice time.Duration, tok *Token) bool {
	for {
		if stopped(ctx, tok) {
			return false
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		timer := time.NewTimer(min(remaining, slice))
		select {
		case <-timer.C:
		case <-tok.Done():
			timer.Stop()
			return false
		case <-ctx.Done():
			timer.Stop()
			return false
		}
	}
}

func (s *Scheduler) inject(e event.Event) (skipped bool, err error) {
	switch e.Kind {
	case event.PointerMove:
		return false, s.inj.MoveTo(e.X, e.Y)
	case event.PointerButton:
		if err := s.inj.MoveTo(e.X, e.Y); err != nil {
			return false, err
		}
		return false, s.inj.Button(e.Button, e.Pressed)
	case event.PointerScroll:
		if err := s.inj.MoveTo(e.X, e.Y); err != nil {
			return false, err
		}
		return false, s.inj.Scroll(e.DX, e.DY)
	case event.KeyPress, event.KeyRelease:
		name, ok := Resolve(e.Key)
		if !ok {
			return true, nil
		}
		err := s.inj.Key(name, e.Kind == event.KeyPress)
		if errors.Is(err, ErrUnknownKey) {
			return true, nil
		}
		return false, err
	}
	return false, fmt.Errorf("%w: %s", ErrUnknownKind, e.Kind)
}

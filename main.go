package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"golang.org/x/term"

	"macrorec/beep"
	"macrorec/capture"
	"macrorec/control"
	"macrorec/doctor"
	"macrorec/event"
	"macrorec/hotkey"
	"macrorec/input"
	"macrorec/log"
	"macrorec/replay"
	"macrorec/shutdown"
	"macrorec/store"
)

var version = "dev"

// replayLast asks -replay for the recording just made, or the newest file
// in the save directory.
const replayLast = "last"

type config struct {
	opts         replay.Options
	dir          string
	load         string
	pick         bool
	record       bool
	replayPath   string
	stopKey      event.Key
	abortKey     event.Key
	captureChord hotkey.Chord
	replayChord  hotkey.Chord
	hotkeyMode   string
	logPath      string
	tui          bool
	beep         bool
	test         bool
	doctor       bool
	version      bool
}

func defaultDir() string {
	if d := os.Getenv("MACROREC_DIR"); d != "" {
		return d
	}
	return "."
}

func parseFlags(fs *flag.FlagSet, args []string) (config, error) {
	var cfg config
	repeat := fs.Int("repeat", 1, "Number of times to play the recording")
	delay := fs.Duration("delay", replay.DefaultDelay, "Wait before the first replayed event")
	fs.StringVar(&cfg.dir, "dir", defaultDir(), "Directory recordings are saved to (env MACROREC_DIR)")
	fs.StringVar(&cfg.load, "load", "", "Load a recording for hotkey replay")
	fs.BoolVar(&cfg.pick, "pick", false, "Choose a recording from -dir to load")
	fs.BoolVar(&cfg.record, "record", false, "Record once, save, and exit (combine with -replay last to play it back)")
	fs.StringVar(&cfg.replayPath, "replay", "", "Replay a recording file and exit ('last' for the newest)")
	stopKey := fs.String("stop-key", "f9", "Key that saves a capture and stops a replay")
	abortKey := fs.String("abort-key", "esc", "Key that ends a capture without saving")
	captureChord := fs.String("capture-chord", "shift+alt+q", "Chord that starts and stops capture")
	replayChord := fs.String("replay-chord", "shift+alt+w", "Chord that starts and cancels replay")
	fs.StringVar(&cfg.hotkeyMode, "hotkey", "stream", "Chord detection: stream (input hook) or os (native hotkeys)")
	fs.StringVar(&cfg.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	fs.BoolVar(&cfg.tui, "tui", true, "Run with terminal UI")
	fs.BoolVar(&cfg.beep, "beep", true, "Play audible cues")
	fs.BoolVar(&cfg.test, "test", false, "Test mode (headless, stdin-driven)")
	fs.BoolVar(&cfg.doctor, "doctor", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.opts = replay.Options{
		Repeat: *repeat,
		Delay:  *delay,
		Slice:  replay.DefaultSlice,
		Pause:  replay.DefaultPause,
	}
	if err := cfg.opts.Validate(); err != nil {
		return cfg, err
	}

	cfg.stopKey = event.ParseKey(*stopKey)
	cfg.abortKey = event.ParseKey(*abortKey)
	if cfg.stopKey.IsZero() || cfg.abortKey.IsZero() {
		return cfg, errors.New("stop and abort keys must not be empty")
	}
	if cfg.stopKey.Equal(cfg.abortKey) {
		return cfg, fmt.Errorf("stop and abort keys are both %s", cfg.stopKey)
	}

	var err error
	if cfg.captureChord, err = hotkey.ParseChord(*captureChord); err != nil {
		return cfg, fmt.Errorf("-capture-chord: %w", err)
	}
	if cfg.replayChord, err = hotkey.ParseChord(*replayChord); err != nil {
		return cfg, fmt.Errorf("-replay-chord: %w", err)
	}
	if cfg.captureChord == cfg.replayChord {
		return cfg, fmt.Errorf("capture and replay chords are both %s", cfg.captureChord)
	}

	switch cfg.hotkeyMode {
	case "stream", "os":
	default:
		return cfg, fmt.Errorf("unknown -hotkey mode %q (use stream or os)", cfg.hotkeyMode)
	}
	return cfg, nil
}

// app is the wiring shared by every mode.
type app struct {
	cfg  config
	src  event.Source
	ctl  *control.Controller
	sink *uiSink
}

func newApp(cfg config, src event.Source, inj replay.Injector, sink *uiSink) *app {
	ctl := control.New(control.Config{
		Recorder:   capture.NewRecorder(src, capture.Controls{Save: cfg.stopKey, Abort: cfg.abortKey}),
		Scheduler:  replay.NewScheduler(inj),
		StopSource: src,
		StopKey:    cfg.stopKey,
		Save: func(l event.Log) (string, error) {
			return store.SaveNumbered(cfg.dir, store.DefaultBase, l)
		},
		Sink:         sink,
		Options:      cfg.opts,
		CaptureChord: cfg.captureChord,
	})
	return &app{cfg: cfg, src: src, ctl: ctl, sink: sink}
}

func (a *app) hotkeys() (capKey, repKey hotkey.Hotkey) {
	if a.cfg.hotkeyMode == "os" {
		return hotkey.New(a.cfg.captureChord), hotkey.New(a.cfg.replayChord)
	}
	return hotkey.NewStream(a.src, a.cfg.captureChord), hotkey.NewStream(a.src, a.cfg.replayChord)
}

func (a *app) loadFile(path string) error {
	l, err := store.Load(path)
	if err != nil {
		return err
	}
	if err := a.ctl.Load(l); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	log.Infof("loaded %d events from %s", len(l), path)
	a.sink.printf("loaded %d events from %s", len(l), path)
	return nil
}

// failingInjector stands in when no injection backend could be opened so
// capture still works and replay reports why it cannot.
type failingInjector struct{ err error }

func (f failingInjector) MoveTo(int32, int32) error       { return f.err }
func (f failingInjector) Button(event.Button, bool) error { return f.err }
func (f failingInjector) Scroll(int32, int32) error       { return f.err }
func (f failingInjector) Key(string, bool) error          { return f.err }

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	log.Errorf(format, args...)
	log.Close()
	os.Exit(1)
}

func run() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.version {
		fmt.Printf("macrorec %s\n", version)
		os.Exit(0)
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(cfg.logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	if crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()
	log.Infof("macrorec %s starting", version)

	if !cfg.beep {
		beep.Disable()
	}

	if cfg.test {
		code := runTestMode(cfg, os.Stdin, os.Stdout)
		log.Close()
		os.Exit(code)
	}

	hub := input.NewHub()
	defer hub.Close()

	if cfg.doctor {
		dc := doctor.Config{Source: hub, Chord: cfg.captureChord}
		if cfg.hotkeyMode == "stream" {
			dc.Hotkey = func(c hotkey.Chord) hotkey.Hotkey { return hotkey.NewStream(hub, c) }
		}
		code := doctor.Run(dc)
		hub.Close()
		log.Close()
		os.Exit(code)
	}

	go beep.Init()

	var inj replay.Injector
	if sys, err := input.NewSystemInjector(); err != nil {
		log.Warnf("input injection unavailable: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: replay unavailable: %v\n", err)
		inj = failingInjector{err: err}
	} else {
		if c, ok := sys.(io.Closer); ok {
			defer c.Close()
		}
		inj = sys
	}
	if err := input.ProbeKeyboard(); err != nil {
		log.Warnf("keyboard check: %v", err)
	}

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	useTUI := cfg.tui && term.IsTerminal(int(os.Stdout.Fd())) && !cfg.record && cfg.replayPath == ""
	sink := &uiSink{}
	if !useTUI {
		sink.out = os.Stdout
	}
	a := newApp(cfg, hub, inj, sink)

	if cfg.record || cfg.replayPath != "" {
		code := runBatch(ctx, a)
		hub.Close()
		log.Close()
		os.Exit(code)
	}

	switch {
	case cfg.pick:
		path, err := selectRecording(cfg.dir)
		if err != nil {
			fatalf("%v", err)
		}
		if path != "" {
			if err := a.loadFile(path); err != nil {
				fatalf("%v", err)
			}
		}
	case cfg.load != "":
		if err := a.loadFile(cfg.load); err != nil {
			fatalf("%v", err)
		}
	}

	capKey, repKey := a.hotkeys()
	co := control.NewCoordinator(capKey, repKey, a.ctl)
	coErr := make(chan error, 1)
	go func() { coErr <- co.Run(ctx) }()

	if useTUI {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(a)
		tuiMu.Unlock()
		go func() {
			select {
			case <-ctx.Done():
			case err := <-coErr:
				if err != nil {
					logToTUI("hotkeys unavailable: %v", err)
				}
				return
			}
			tuiProgram.Quit()
		}()
		if _, err := tuiProgram.Run(); err != nil {
			log.Errorf("TUI error: %v", err)
		}
		a.ctl.RequestCancel()
		return
	}

	fmt.Printf("%s to record (%s saves, %s discards), %s to replay. Ctrl+C quits.\n",
		cfg.captureChord, cfg.stopKey, cfg.abortKey, cfg.replayChord)
	select {
	case <-ctx.Done():
	case err := <-coErr:
		if err != nil {
			fatalf("hotkeys: %v", err)
		}
	}
	a.ctl.RequestCancel()
	a.ctl.Wait(context.Background())
}

// runBatch runs the -record and -replay flows and returns the exit code.
func runBatch(ctx context.Context, a *app) int {
	cfg := a.cfg
	if cfg.record {
		fmt.Printf("Recording. Press %s to save or %s to discard.\n", cfg.stopKey, cfg.abortKey)
		if err := a.ctl.BeginCapture(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		l, err := a.ctl.WaitCapture(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		if len(l) == 0 {
			fmt.Println("Nothing recorded.")
			return 0
		}
		if cfg.replayPath == "" || ctx.Err() != nil {
			return 0
		}
	}

	switch {
	case cfg.replayPath == replayLast && cfg.record:
	case cfg.replayPath == replayLast:
		path, err := store.Latest(cfg.dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		if err := a.loadFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	default:
		if err := a.loadFile(cfg.replayPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	fmt.Printf("Replaying %d time(s) in %s. Press %s to stop.\n", cfg.opts.Repeat, cfg.opts.Delay, cfg.stopKey)
	res, err := a.ctl.ReplaySync(ctx, cfg.opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if res.Cancelled {
		fmt.Printf("Replay cancelled after %d of %d iteration(s).\n", res.Completed, res.Requested)
	}
	return 0
}

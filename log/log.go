package log

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog     zerolog.Logger
	diagFile    *os.File
	sessionFile *os.File
	logMu       sync.Mutex
	logReady    bool
	pid         int
	dir         string
)

const envLogPath = "MACROREC_LOG_PATH"

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: MACROREC_LOG_PATH environment variable
	if envPath := os.Getenv(envLogPath); envPath != "" {
		return absolute(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func getDefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Logs", "macrorec"), nil
	case "windows":
		base := os.Getenv("LOCALAPPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Local")
		}
		return filepath.Join(base, "macrorec", "logs"), nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "macrorec", "logs"), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagFile, err = os.OpenFile(filepath.Join(dir, "diagnostics_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	sessionFile, err = os.OpenFile(filepath.Join(dir, "sessions_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05.000",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if sessionFile != nil {
		sessionFile.Close()
		sessionFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func CaptureStart(id string) {
	if !logReady {
		return
	}
	diagLog.Info().Str("session", id).Msg("capture_start")
}

type CaptureSummary struct {
	ID        string
	Outcome   string
	Events    int
	Pointer   int
	Keys      int
	DurationS float64
}

func CaptureEnd(s CaptureSummary) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", s.ID).
		Str("outcome", s.Outcome).
		Int("events", s.Events).
		Int("pointer", s.Pointer).
		Int("keys", s.Keys).
		Float64("duration_s", s.DurationS).
		Msg("capture_end")
	sessionLine("capture\t%s\t%s\t%d events\t%.2fs", s.ID, s.Outcome, s.Events, s.DurationS)
}

// KeySkipped records a key symbol the injector has no mapping for.
func KeySkipped(key string, index int) {
	if !logReady {
		return
	}
	diagLog.Warn().Str("key", key).Int("index", index).Msg("key_skipped")
}

func ReplayStart(events, repeat int, delay time.Duration) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("events", events).
		Int("repeat", repeat).
		Dur("delay", delay).
		Msg("replay_start")
}

type ReplaySummary struct {
	Requested int
	Completed int
	Cancelled bool
	Injected  int
	Skipped   int
	Elapsed   time.Duration
	Err       error
}

func ReplayEnd(s ReplaySummary) {
	if !logReady {
		return
	}
	var ev *zerolog.Event
	if s.Err != nil {
		ev = diagLog.Error().Err(s.Err)
	} else {
		ev = diagLog.Info()
	}
	ev.Int("requested", s.Requested).
		Int("completed", s.Completed).
		Bool("cancelled", s.Cancelled).
		Int("injected", s.Injected).
		Int("skipped", s.Skipped).
		Float64("elapsed_s", s.Elapsed.Seconds()).
		Msg("replay_end")

	status := "done"
	switch {
	case s.Err != nil:
		status = "failed"
	case s.Cancelled:
		status = "cancelled"
	}
	sessionLine("replay\t%s\t%d/%d iterations\t%.2fs", status, s.Completed, s.Requested, s.Elapsed.Seconds())
}

func sessionLine(format string, args ...any) {
	logMu.Lock()
	defer logMu.Unlock()
	if sessionFile == nil {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, fmt.Sprintf(format, args...))
	sessionFile.WriteString(line)
}

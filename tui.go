package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"macrorec/beep"
	"macrorec/clipboard"
	"macrorec/control"
	"macrorec/replay"
)

// TUI message types
type StateMsg struct{ State control.State }
type SavedMsg struct {
	Path   string
	Events int
}
type ProgressMsg struct{ Completed, Total int }
type ReplayDoneMsg struct {
	Result replay.Result
	Err    error
}
type WarningMsg struct{ Text string }
type LogMsg struct{ Text string }
type tickMsg time.Time

const (
	feedLimit  = 200
	statusWide = 40
)

type feedLine struct {
	at   time.Time
	text string
	warn bool
}

type tuiModel struct {
	app *app

	state         control.State
	frame         int
	width, height int

	// refreshed from the controller on every tick
	events    int
	elapsed   time.Duration
	logEvents int
	logDur    float64
	opts      replay.Options

	completed, total int
	lastSaved        string
	feed             []feedLine
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	stateStyles = map[control.State]lipgloss.Style{
		control.Idle:          lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		control.Capturing:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		control.ReplayPending: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		control.Replaying:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	}
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	boldStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	barStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	spinner   = []string{"◐", "◓", "◑", "◒"}
)

func NewTUIProgram(a *app) *tea.Program {
	m := tuiModel{app: a, opts: a.ctl.Options(), state: a.ctl.State()}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) addFeed(text string, warn bool) tuiModel {
	m.feed = append(m.feed, feedLine{at: time.Now(), text: text, warn: warn})
	if len(m.feed) > feedLimit {
		m.feed = m.feed[len(m.feed)-feedLimit:]
	}
	return m
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.frame++
		m = m.refresh()
		return m, tuiTick()

	case StateMsg:
		m.state = msg.State
		if msg.State == control.Replaying {
			m.completed, m.total = 0, m.opts.Repeat
		}
		m = m.refresh()

	case SavedMsg:
		m.lastSaved = msg.Path
		m = m.addFeed(fmt.Sprintf("saved %d events to %s", msg.Events, msg.Path), false)

	case ProgressMsg:
		m.completed, m.total = msg.Completed, msg.Total

	case ReplayDoneMsg:
		res := msg.Result
		switch {
		case msg.Err != nil:
			m = m.addFeed(fmt.Sprintf("replay failed after %d/%d: %v", res.Completed, res.Requested, msg.Err), true)
		case res.Cancelled:
			m = m.addFeed(fmt.Sprintf("replay cancelled after %d/%d", res.Completed, res.Requested), false)
		default:
			m = m.addFeed(fmt.Sprintf("replay done: %d injected, %d skipped", res.Injected, res.Skipped), false)
		}

	case WarningMsg:
		m = m.addFeed(msg.Text, true)

	case LogMsg:
		m = m.addFeed(msg.Text, false)
	}
	return m, nil
}

func (m tuiModel) refresh() tuiModel {
	ctl := m.app.ctl
	m.opts = ctl.Options()
	m.events, m.elapsed, _ = ctl.CaptureStatus()
	l := ctl.Log()
	m.logEvents = len(l)
	m.logDur = l.Duration()
	return m
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctl := m.app.ctl
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "+", "=":
		o := ctl.Options()
		o.Repeat++
		ctl.SetOptions(o)
		m.opts = o
	case "-":
		o := ctl.Options()
		if o.Repeat > 1 {
			o.Repeat--
			ctl.SetOptions(o)
			m.opts = o
		}
	case "y":
		l := ctl.Log()
		return m, func() tea.Msg {
			if err := clipboard.CopyLog(l); err != nil {
				return WarningMsg{Text: fmt.Sprintf("copy failed: %v", err)}
			}
			return LogMsg{Text: fmt.Sprintf("copied %d events to clipboard", len(l))}
		}
	case "p":
		return m, func() tea.Msg {
			l, err := clipboard.ReadLog()
			if err != nil {
				return WarningMsg{Text: fmt.Sprintf("paste failed: %v", err)}
			}
			if err := ctl.Load(l); err != nil {
				return WarningMsg{Text: fmt.Sprintf("paste failed: %v", err)}
			}
			return LogMsg{Text: fmt.Sprintf("loaded %d events from clipboard", len(l))}
		}
	}
	return m, nil
}

func (m tuiModel) statusLines() []string {
	cfg := m.app.cfg
	st := stateStyles[m.state]
	var lines []string

	switch m.state {
	case control.Idle:
		lines = append(lines, st.Render("○ IDLE"))
	case control.Capturing:
		lines = append(lines, st.Render(fmt.Sprintf("● REC %.1fs", m.elapsed.Seconds())))
		lines = append(lines, dimStyle.Render(fmt.Sprintf("%d events", m.events)))
		lines = append(lines, dimStyle.Render(fmt.Sprintf("%s saves, %s discards", cfg.stopKey, cfg.abortKey)))
	case control.ReplayPending:
		lines = append(lines, st.Render("▶ READY"))
	case control.Replaying:
		lines = append(lines, st.Render(fmt.Sprintf("%s REPLAY %d/%d", spinner[m.frame%len(spinner)], m.completed, m.total)))
		lines = append(lines, barStyle.Render(progressBar(m.completed, m.total, statusWide-4)))
		lines = append(lines, dimStyle.Render(fmt.Sprintf("%s stops", cfg.stopKey)))
	}

	lines = append(lines, "")
	if m.logEvents > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("recording: %d events, %.1fs", m.logEvents, m.logDur)))
	} else {
		lines = append(lines, dimStyle.Render("recording: none"))
	}
	lines = append(lines, dimStyle.Render(fmt.Sprintf("repeat %d · delay %s", m.opts.Repeat, m.opts.Delay)))
	if !beep.Enabled() {
		lines = append(lines, dimStyle.Render("sound off"))
	}
	if m.lastSaved != "" {
		lines = append(lines, dimStyle.Render("last saved: "+m.lastSaved))
	}

	lines = append(lines, "")
	lines = append(lines, boldStyle.Render(cfg.captureChord.String())+helpStyle.Render(" record"))
	lines = append(lines, boldStyle.Render(cfg.replayChord.String())+helpStyle.Render(" replay"))
	lines = append(lines, helpStyle.Render("+/- repeat · y copy · p paste"))
	lines = append(lines, helpStyle.Render("macrorec "+version))
	return lines
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	status := lipgloss.NewStyle().
		Width(statusWide).
		Height(m.height).
		Render(strings.Join(m.statusLines(), "\n"))

	feedWidth := m.width - statusWide - 1
	if feedWidth < 20 {
		feedWidth = 20
	}
	wrapWidth := feedWidth - 2
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	var rendered []string
	for _, f := range m.feed {
		style := dimStyle
		if f.warn {
			style = warnStyle
		}
		for i, line := range wrapText(f.text, wrapWidth-9) {
			prefix := strings.Repeat(" ", 9)
			if i == 0 {
				prefix = f.at.Format("15:04:05") + " "
			}
			rendered = append(rendered, helpStyle.Render(prefix)+style.Render(line))
		}
	}
	// keep the newest lines in view
	if len(rendered) > m.height {
		rendered = rendered[len(rendered)-m.height:]
	}
	if len(rendered) == 0 {
		rendered = []string{dimStyle.Render("No activity yet")}
	}

	feed := lipgloss.NewStyle().
		Width(feedWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(strings.Join(rendered, "\n"))

	return lipgloss.JoinHorizontal(lipgloss.Top, status, feed)
}

func progressBar(done, total, width int) string {
	if total <= 0 || width <= 0 {
		return ""
	}
	filled := done * width / total
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func logToTUI(format string, args ...interface{}) {
	tuiSend(LogMsg{Text: fmt.Sprintf(format, args...)})
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		// Find last space within width
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}

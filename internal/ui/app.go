// Package ui is the terminal control panel: the same buttons, app list,
// volume slider and status bar as the desktop panel, driven by keys.
package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stofix/internal/assistant"
	"stofix/internal/registry"
)

// Controller is what the panel drives.
type Controller interface {
	Listen() error
	Stop()
	Email() error
	Hello()
	Notepad() error
	LinkedIn() error
	AddApp(name, path string) error
	RemoveApp(name string) error
	LaunchApp(name string) error
	Apps() []registry.App
	SetVolume(v float64)
	Volume() float64
	Speaking() bool
	State() assistant.State
	StatusText() string
}

const (
	frameInterval = 100 * time.Millisecond
	volumeStep    = 0.05
)

var patterns = []string{
	"|   |   |",
	"||  |   |",
	"||  ||  |",
	"||  ||  ||",
	"||| ||| |||",
}

type modalState string

const (
	modalNone modalState = ""
	modalAdd  modalState = "add"
)

type App struct {
	ctl Controller

	apps      []registry.App
	appCursor int
	volume    float64
	status    string
	frame     int // -1 when idle

	modal     modalState
	nameInput string
	pathInput string
	onPath    bool
}

func New(ctl Controller) *App {
	return &App{
		ctl:    ctl,
		apps:   ctl.Apps(),
		volume: ctl.Volume(),
		status: ctl.StatusText(),
		frame:  -1,
	}
}

type (
	statusMsg string
	appsMsg   []registry.App
	tickMsg   time.Time
	errMsg    struct{ error }
	addedMsg  struct{ err error }
)

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (a *App) Init() tea.Cmd {
	return tick()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tickMsg:
		if a.ctl.Speaking() || a.ctl.State() != assistant.Idle {
			a.frame++
		} else {
			a.frame = -1
		}
		return a, tick()

	case statusMsg:
		a.status = string(m)

	case appsMsg:
		a.apps = m
		if a.appCursor >= len(a.apps) {
			a.appCursor = max(0, len(a.apps)-1)
		}

	case errMsg:
		a.status = "Error: " + m.Error()

	case addedMsg:
		if m.err == nil {
			a.closeModal()
		}

	case tea.KeyMsg:
		if a.modal != modalNone {
			return a.handleModalKey(m)
		}
		return a.handleKey(m)
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "f9", "s":
		return a, a.run(a.ctl.Listen)
	case "f10", "x":
		return a, func() tea.Msg {
			a.ctl.Stop()
			return nil
		}
	case "n":
		return a, a.run(a.ctl.Notepad)
	case "l":
		return a, a.run(a.ctl.LinkedIn)
	case "h":
		return a, func() tea.Msg {
			a.ctl.Hello()
			return nil
		}
	case "e":
		return a, a.run(a.ctl.Email)
	case "a":
		a.modal = modalAdd

	case "up", "k":
		if a.appCursor > 0 {
			a.appCursor--
		}
	case "down", "j":
		if a.appCursor < len(a.apps)-1 {
			a.appCursor++
		}
	case "enter", "r":
		if app, ok := a.selected(); ok {
			return a, a.run(func() error { return a.ctl.LaunchApp(app.Name) })
		}
	case "d", "delete":
		if app, ok := a.selected(); ok {
			return a, a.run(func() error { return a.ctl.RemoveApp(app.Name) })
		}

	case "left", "-":
		a.setVolume(a.volume - volumeStep)
	case "right", "+", "=":
		a.setVolume(a.volume + volumeStep)
	}
	return a, nil
}

func (a *App) handleModalKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	field := &a.nameInput
	if a.onPath {
		field = &a.pathInput
	}

	switch m.Type {
	case tea.KeyEsc:
		a.closeModal()
	case tea.KeyTab, tea.KeyShiftTab:
		a.onPath = !a.onPath
	case tea.KeyEnter:
		if !a.onPath {
			a.onPath = true
			return a, nil
		}
		name, path := a.nameInput, a.pathInput
		return a, func() tea.Msg {
			return addedMsg{err: a.ctl.AddApp(name, path)}
		}
	case tea.KeyBackspace, tea.KeyCtrlH, tea.KeyDelete:
		if r := []rune(*field); len(r) > 0 {
			*field = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		*field += " "
	case tea.KeyRunes:
		*field += string(m.Runes)
	case tea.KeyCtrlC:
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) closeModal() {
	a.modal = modalNone
	a.nameInput, a.pathInput = "", ""
	a.onPath = false
}

func (a *App) selected() (registry.App, bool) {
	if a.appCursor < 0 || a.appCursor >= len(a.apps) {
		return registry.App{}, false
	}
	return a.apps[a.appCursor], true
}

func (a *App) setVolume(v float64) {
	a.ctl.SetVolume(v)
	a.volume = a.ctl.Volume()
}

// run executes fn off the update loop. Refusals that need no feedback,
// like a second start while listening, are swallowed.
func (a *App) run(fn func() error) tea.Cmd {
	return func() tea.Msg {
		err := fn()
		switch {
		case err == nil, errors.Is(err, assistant.ErrAlreadyListening):
			return nil
		case errors.Is(err, assistant.ErrBusy):
			return statusMsg("Busy")
		}
		return errMsg{err}
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 2).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#66A5AD"))
	activeStyle = titleStyle.Background(lipgloss.Color("#4A6FA5"))
	buttonStyle = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).Width(18)
	addStyle    = buttonStyle.BorderForeground(lipgloss.Color("#8E44AD")).Width(39)
	exitStyle   = buttonStyle.BorderForeground(lipgloss.Color("#C0392B")).Width(39)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A6FA5")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	statusStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#FFFFFF"))
	modalStyle  = lipgloss.NewStyle().Padding(1, 2).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#8E44AD"))
)

func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.renderTitle() + "\n\n")
	b.WriteString(buttonRow("[F9] Speak", "[F10] Stop") + "\n")
	b.WriteString(buttonRow("[n] Notepad", "[l] LinkedIn") + "\n")
	b.WriteString(buttonRow("[h] Hello Stof", "[e] Email") + "\n")
	b.WriteString(addStyle.Render("[a] Add Custom App") + "\n\n")

	b.WriteString(a.renderApps() + "\n\n")
	b.WriteString(a.renderVolume() + "\n\n")
	b.WriteString(exitStyle.Render("[q] Exit") + "\n\n")

	if a.modal == modalAdd {
		b.WriteString(a.renderModal() + "\n\n")
	}

	b.WriteString(statusStyle.Render(a.status))
	return b.String()
}

func (a *App) renderTitle() string {
	if a.frame < 0 {
		return titleStyle.Render("STOFIX AI")
	}
	return activeStyle.Render(patterns[a.frame%len(patterns)])
}

func buttonRow(left, right string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, buttonStyle.Render(left), " ", buttonStyle.Render(right))
}

func (a *App) renderApps() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("My Custom Apps") + "\n")
	if len(a.apps) == 0 {
		b.WriteString(dimStyle.Render("  none yet, press [a] to add one"))
		return b.String()
	}
	for i, app := range a.apps {
		line := fmt.Sprintf("%-16s %s", app.Name, dimStyle.Render(app.Path))
		if i == a.appCursor {
			b.WriteString(cursorStyle.Render("> ") + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString(dimStyle.Render("[enter] run  [d] delete  [up/down] select"))
	return b.String()
}

func (a *App) renderVolume() string {
	const width = 20
	filled := int(a.volume*width + 0.5)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("Volume [-] %s [+] %.2f", bar, a.volume)
}

func (a *App) renderModal() string {
	name, path := a.nameInput, a.pathInput
	if a.onPath {
		path += "_"
	} else {
		name += "_"
	}
	return modalStyle.Render(fmt.Sprintf(
		"%s\nApp Name (Voice Command):\n  %s\nFile Path:\n  %s\n\n%s",
		headerStyle.Render("Add Custom App"),
		name, path,
		dimStyle.Render("[tab] switch  [enter] create  [esc] cancel"),
	))
}

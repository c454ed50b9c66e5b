package ui

import (
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stofix/internal/assistant"
	"stofix/internal/registry"
)

type fakeCtl struct {
	mu       sync.Mutex
	calls    []string
	apps     []registry.App
	volume   float64
	speaking bool
	state    assistant.State
	listen   error
	add      error
}

func (f *fakeCtl) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeCtl) Listen() error                  { f.record("listen"); return f.listen }
func (f *fakeCtl) Stop()                          { f.record("stop") }
func (f *fakeCtl) Email() error                   { f.record("email"); return assistant.ErrBusy }
func (f *fakeCtl) Hello()                         { f.record("hello") }
func (f *fakeCtl) Notepad() error                 { f.record("notepad"); return nil }
func (f *fakeCtl) LinkedIn() error                { f.record("linkedin"); return nil }
func (f *fakeCtl) AddApp(name, path string) error { f.record("add " + name + "=" + path); return f.add }
func (f *fakeCtl) RemoveApp(name string) error    { f.record("remove " + name); return nil }
func (f *fakeCtl) LaunchApp(name string) error    { f.record("launch " + name); return nil }
func (f *fakeCtl) Apps() []registry.App           { return f.apps }
func (f *fakeCtl) SetVolume(v float64)            { f.volume = min(max(v, 0), 1) }
func (f *fakeCtl) Volume() float64                { return f.volume }
func (f *fakeCtl) Speaking() bool                 { return f.speaking }
func (f *fakeCtl) State() assistant.State         { return f.state }
func (f *fakeCtl) StatusText() string             { return "Ready" }

func key(s string) tea.KeyMsg {
	switch s {
	case "f9":
		return tea.KeyMsg{Type: tea.KeyF9}
	case "f10":
		return tea.KeyMsg{Type: tea.KeyF10}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds a key and runs the resulting command, feeding its message
// back like the program loop would.
func press(t *testing.T, a *App, s string) {
	t.Helper()
	_, cmd := a.Update(key(s))
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		a.Update(msg)
	}
}

func newApp() (*App, *fakeCtl) {
	ctl := &fakeCtl{
		volume: 0.9,
		apps: []registry.App{
			{Name: "code", Path: "/usr/bin/code"},
			{Name: "spotify", Path: "/usr/bin/spotify"},
		},
	}
	return New(ctl), ctl
}

func TestApp_Buttons(t *testing.T) {
	t.Parallel()

	a, ctl := newApp()
	for _, k := range []string{"f9", "f10", "n", "l", "h", "s", "x"} {
		press(t, a, k)
	}
	assert.Equal(t, []string{"listen", "stop", "notepad", "linkedin", "hello", "listen", "stop"}, ctl.calls)
	assert.Equal(t, "Ready", a.status)

	press(t, a, "e")
	assert.Equal(t, "Busy", a.status)
}

func TestApp_ListenAlreadyActiveIsSilent(t *testing.T) {
	t.Parallel()

	a, ctl := newApp()
	ctl.listen = assistant.ErrAlreadyListening
	press(t, a, "f9")
	assert.Equal(t, "Ready", a.status)

	ctl.listen = errors.New("boom")
	press(t, a, "f9")
	assert.Equal(t, "Error: boom", a.status)
}

func TestApp_AppList(t *testing.T) {
	t.Parallel()

	a, ctl := newApp()
	press(t, a, "enter")
	press(t, a, "down")
	press(t, a, "down")
	press(t, a, "d")
	assert.Equal(t, []string{"launch code", "remove spotify"}, ctl.calls)

	a.Update(appsMsg([]registry.App{{Name: "code", Path: "/usr/bin/code"}}))
	assert.Equal(t, 0, a.appCursor)
	assert.Contains(t, a.View(), "code")
	assert.NotContains(t, a.View(), "spotify")
}

func TestApp_AddForm(t *testing.T) {
	t.Parallel()

	a, ctl := newApp()
	ctl.add = registry.ErrExists

	press(t, a, "a")
	require.Equal(t, modalAdd, a.modal)
	for _, k := range []string{"G", "i", "m", "p", "enter", "/", "b", "i", "n", "space", "x"} {
		press(t, a, k)
	}
	press(t, a, "enter")
	assert.Equal(t, []string{"add Gimp=/bin x"}, ctl.calls)
	assert.Equal(t, modalAdd, a.modal, "form stays open on failure")

	ctl.add = nil
	press(t, a, "enter")
	assert.Equal(t, modalNone, a.modal)
	assert.Empty(t, a.nameInput)

	press(t, a, "a")
	press(t, a, "q")
	assert.Equal(t, "q", a.nameInput, "keys type into the form")
	press(t, a, "esc")
	assert.Equal(t, modalNone, a.modal)
}

func TestApp_Volume(t *testing.T) {
	t.Parallel()

	a, ctl := newApp()
	press(t, a, "+")
	press(t, a, "+")
	press(t, a, "+")
	assert.InDelta(t, 1.0, ctl.volume, 1e-9)
	assert.Contains(t, a.View(), "1.00")

	press(t, a, "-")
	assert.InDelta(t, 0.95, a.volume, 1e-9)
}

func TestApp_Animation(t *testing.T) {
	t.Parallel()

	a, ctl := newApp()

	_, cmd := a.Update(tickMsg{})
	assert.NotNil(t, cmd, "tick reschedules itself")
	assert.Contains(t, a.View(), "STOFIX AI")

	ctl.state = assistant.Listening
	var titles []string
	for range 6 {
		a.Update(tickMsg{})
		titles = append(titles, a.renderTitle())
	}
	assert.Contains(t, titles[0], "|   |   |")
	assert.Contains(t, titles[4], "||| ||| |||")
	assert.Contains(t, titles[5], "|   |   |")

	ctl.state = assistant.Idle
	ctl.speaking = true
	a.Update(tickMsg{})
	assert.NotContains(t, a.renderTitle(), "STOFIX AI")

	ctl.speaking = false
	a.Update(tickMsg{})
	assert.Contains(t, a.renderTitle(), "STOFIX AI")
}

func TestApp_StatusAndQuit(t *testing.T) {
	t.Parallel()

	a, _ := newApp()
	a.Update(statusMsg("Listening..."))
	assert.Contains(t, a.View(), "Listening...")

	_, cmd := a.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

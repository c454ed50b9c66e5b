package assistant

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stofix/internal/registry"
)

type fakeVolume struct{ v float64 }

func (f *fakeVolume) SetVolume(v float64) { f.v = min(max(v, 0), 1) }
func (f *fakeVolume) Volume() float64     { return f.v }

func newAssistant(t *testing.T, script ...heard) (*Assistant, *harness) {
	t.Helper()

	h := newHarness(t, script...)
	board := NewStatusBoard()
	board.Attach(h.status.SetStatus)

	a := New(context.Background(), Deps{
		Ear:      h.ear,
		Speaker:  h.speaker,
		Keyboard: h.keyboard,
		Launcher: h.launcher,
		Registry: h.registry,
	}, fastOptions(), board, &fakeVolume{v: 0.9})
	return a, h
}

func TestApps_Add(t *testing.T) {
	t.Parallel()

	a, h := newAssistant(t)

	require.NoError(t, a.AddApp("  Spotify ", " /usr/bin/spotify "))
	assert.Equal(t, "Added spotify", a.StatusText())
	assert.Equal(t, []string{"Added spotify to the list"}, h.speaker.Said())

	assert.ErrorIs(t, a.AddApp("spotify", "/opt/other"), registry.ErrExists)
	assert.Equal(t, "App already exists!", a.StatusText())

	assert.ErrorIs(t, a.AddApp("", "/opt/other"), registry.ErrEmptyField)
	assert.Equal(t, "Fill all fields!", a.StatusText())

	assert.Equal(t, []registry.App{{Name: "spotify", Path: "/usr/bin/spotify"}}, a.Apps())
}

func TestApps_Remove(t *testing.T) {
	t.Parallel()

	a, _ := newAssistant(t)
	require.NoError(t, a.AddApp("code", "/usr/bin/code"))

	require.NoError(t, a.RemoveApp("code"))
	assert.Equal(t, "Removed code", a.StatusText())
	assert.Empty(t, a.Apps())

	assert.ErrorIs(t, a.RemoveApp("code"), registry.ErrNotFound)
}

func TestApps_Launch(t *testing.T) {
	t.Parallel()

	a, h := newAssistant(t)
	bin, err := os.Executable()
	require.NoError(t, err)

	require.NoError(t, a.AddApp("self", bin))
	require.NoError(t, a.AddApp("ghost", "/definitely/not/here"))

	require.NoError(t, a.LaunchApp("self"))
	assert.Equal(t, "Opening self...", a.StatusText())
	assert.Equal(t, []string{bin}, h.launcher.files)

	assert.ErrorIs(t, a.LaunchApp("ghost"), os.ErrNotExist)
	assert.Equal(t, "Opening ghost...", a.StatusText())
	assert.Contains(t, h.speaker.Said(), "Application file not found")
	assert.Len(t, h.launcher.files, 1)

	assert.ErrorIs(t, a.LaunchApp("nobody"), registry.ErrNotFound)
}

func TestAssistant_Handle(t *testing.T) {
	t.Parallel()

	a, h := newAssistant(t)

	reply, err := a.Handle("add", []string{"My", "Tool", "/opt/my tool/run"})
	require.NoError(t, err)
	assert.Equal(t, "added my", reply.Message)

	reply, err = a.Handle("list", nil)
	require.NoError(t, err)
	assert.Equal(t, []registry.App{{Name: "my", Path: "Tool /opt/my tool/run"}}, reply.Apps)

	_, err = a.Handle("remove", []string{"my"})
	require.NoError(t, err)

	_, err = a.Handle("remove", nil)
	assert.ErrorIs(t, err, ErrUsage)

	_, err = a.Handle("dance", nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = a.Handle("hello", nil)
	require.NoError(t, err)
	assert.Contains(t, h.speaker.Said(), "Hello Stof")

	_, err = a.Handle("notepad", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, h.launcher.editors)

	_, err = a.Handle("linkedin", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{LinkedInURL}, h.launcher.urls)

	reply, err = a.Handle("volume", []string{"1.7"})
	require.NoError(t, err)
	assert.Equal(t, "1.00", reply.Message)

	_, err = a.Handle("volume", []string{"loud"})
	assert.ErrorIs(t, err, ErrUsage)

	reply, err = a.Handle("status", nil)
	require.NoError(t, err)
	assert.Equal(t, "idle: Removed my", reply.Message)
}

func TestAssistant_HandleListenTwice(t *testing.T) {
	t.Parallel()

	a, h := newAssistant(t)

	_, err := a.Handle("listen", nil)
	require.NoError(t, err)
	_, err = a.Handle("listen", nil)
	assert.ErrorIs(t, err, ErrAlreadyListening)

	a.Stop()
	a.Session().Wait()
	assert.LessOrEqual(t, h.ear.Opens(), 1)
	assert.Equal(t, Idle, a.State())
}

func TestStatusBoard(t *testing.T) {
	t.Parallel()

	b := NewStatusBoard()
	assert.Equal(t, "Ready", b.Text())

	var got []string
	b.Attach(func(s string) { got = append(got, s) })
	b.SetStatus("Listening...")
	b.SetStatus("Stopped")

	assert.Equal(t, "Stopped", b.Text())
	assert.Equal(t, []string{"Listening...", "Stopped"}, got)
}

package assistant

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stofix/internal/input"
	"stofix/internal/registry"
)

type heard struct {
	text string
	err  error
}

// fakeEar plays a script of phrases shared by every capture it opens.
// Once the script runs out, Hear blocks until the context is done.
type fakeEar struct {
	mu           sync.Mutex
	script       []heard
	openErr      error
	opens        int
	calibrations int
}

func (e *fakeEar) Open(context.Context) (Capture, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.openErr != nil {
		return nil, e.openErr
	}
	e.opens++
	return &fakeCapture{ear: e}, nil
}

func (e *fakeEar) next() (heard, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.script) == 0 {
		return heard{}, false
	}
	h := e.script[0]
	e.script = e.script[1:]
	return h, true
}

func (e *fakeEar) Opens() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opens
}

type fakeCapture struct{ ear *fakeEar }

func (c *fakeCapture) Calibrate(context.Context, time.Duration) error {
	c.ear.mu.Lock()
	c.ear.calibrations++
	c.ear.mu.Unlock()
	return nil
}

func (c *fakeCapture) Hear(ctx context.Context, _, _ time.Duration) (string, error) {
	if h, ok := c.ear.next(); ok {
		return h.text, h.err
	}
	<-ctx.Done()
	return "", ctx.Err()
}

func (c *fakeCapture) Close() error { return nil }

type fakeSpeaker struct {
	mu   sync.Mutex
	said []string
}

func (s *fakeSpeaker) Say(text string) <-chan struct{} {
	s.mu.Lock()
	s.said = append(s.said, text)
	s.mu.Unlock()
	done := make(chan struct{})
	close(done)
	return done
}

func (s *fakeSpeaker) Speaking() bool { return false }

func (s *fakeSpeaker) Said() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.said)
}

type fakeKeyboard struct {
	mu     sync.Mutex
	events []string
}

func (k *fakeKeyboard) record(ev string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.events = append(k.events, ev)
	return nil
}

func (k *fakeKeyboard) Type(text string) error { return k.record("type:" + text) }

func (k *fakeKeyboard) Press(key input.Key) error { return k.record("press:" + key.String()) }

func (k *fakeKeyboard) Hotkey(keys ...input.Key) error {
	names := make([]string, len(keys))
	for i, key := range keys {
		names[i] = key.String()
	}
	return k.record("hotkey:" + strings.Join(names, "+"))
}

func (k *fakeKeyboard) Events() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return slices.Clone(k.events)
}

type fakeLauncher struct {
	mu      sync.Mutex
	urls    []string
	files   []string
	spawned []string
	editors int
}

func (l *fakeLauncher) OpenURL(_ context.Context, url string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.urls = append(l.urls, url)
	return nil
}

func (l *fakeLauncher) OpenFile(_ context.Context, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.files = append(l.files, path)
	return nil
}

func (l *fakeLauncher) Spawn(_ context.Context, command string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.spawned = append(l.spawned, command)
	return nil
}

func (l *fakeLauncher) OpenEditor(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.editors++
	return nil
}

type fakeStatus struct {
	mu      sync.Mutex
	history []string
}

func (s *fakeStatus) SetStatus(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, text)
}

func (s *fakeStatus) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

type fakeAlerts struct {
	mu       sync.Mutex
	listens  int
	failures []string
}

func (a *fakeAlerts) Listening() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listens++
}

func (a *fakeAlerts) Failure(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures = append(a.failures, msg)
}

type harness struct {
	ear      *fakeEar
	speaker  *fakeSpeaker
	keyboard *fakeKeyboard
	launcher *fakeLauncher
	status   *fakeStatus
	alerts   *fakeAlerts
	registry *registry.Registry
	session  *Session
}

func fastOptions() Options {
	return Options{
		Calibration: 0,
		Settle:      0,
		ComposeWait: 0,
		SendPause:   0,

		RetypeSubject: true,
	}
}

func newHarness(t *testing.T, script ...heard) *harness {
	t.Helper()

	h := &harness{
		ear:      &fakeEar{script: script},
		speaker:  &fakeSpeaker{},
		keyboard: &fakeKeyboard{},
		launcher: &fakeLauncher{},
		status:   &fakeStatus{},
		alerts:   &fakeAlerts{},
		registry: registry.Open(filepath.Join(t.TempDir(), "custom_apps.json")),
	}
	h.session = NewSession(Deps{
		Ear:      h.ear,
		Speaker:  h.speaker,
		Keyboard: h.keyboard,
		Launcher: h.launcher,
		Registry: h.registry,
		Status:   h.status,
		Alerts:   h.alerts,
	}, fastOptions())
	return h
}

// runListen starts a listening session and waits for it to end.
func (h *harness) runListen(t *testing.T) {
	t.Helper()
	require.NoError(t, h.session.Start(context.Background()))
	h.session.Wait()
}

func say(text string) heard { return heard{text: text} }

func fail(err error) heard { return heard{err: err} }

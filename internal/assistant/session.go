// Package assistant runs voice command sessions: it listens for one
// utterance at a time, maps it to an intent and performs it, including the
// guided email dictation flow.
package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"stofix/internal/audio"
	"stofix/pkg/stt"
)

var (
	ErrAlreadyListening = errors.New("already listening")
	ErrBusy             = errors.New("assistant is busy")
)

type State int

const (
	Idle State = iota
	Listening
	Dictating
	Stopping
)

func (s State) String() string {
	switch s {
	case Listening:
		return "listening"
	case Dictating:
		return "dictating"
	case Stopping:
		return "stopping"
	default:
		return "idle"
	}
}

// Session owns the listening state. At most one worker runs at a time;
// Stop cancels it through its context.
type Session struct {
	Deps
	opt Options

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}

	obsMu     sync.Mutex
	observers []func(State)
}

func NewSession(d Deps, opt Options) *Session {
	return &Session{Deps: d, opt: opt.withDefaults()}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active reports whether a worker is running.
func (s *Session) Active() bool {
	return s.State() != Idle
}

// OnStateChange registers fn to be called after every transition.
func (s *Session) OnStateChange(fn func(State)) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Session) emit(st State) {
	s.obsMu.Lock()
	obs := append([]func(State){}, s.observers...)
	s.obsMu.Unlock()
	for _, fn := range obs {
		fn(st)
	}
}

// Start begins a listening session on its own goroutine. It is a no-op
// returning ErrAlreadyListening while a session is active.
func (s *Session) Start(ctx context.Context) error {
	ctx, lg, err := s.begin(ctx, Listening)
	if err != nil {
		return err
	}
	go s.run(ctx, lg, s.listen)
	return nil
}

// Email runs the dictation flow on its own, outside a listening session.
func (s *Session) Email(ctx context.Context) error {
	ctx, lg, err := s.begin(ctx, Dictating)
	if err != nil {
		return err
	}
	go s.run(ctx, lg, func(ctx context.Context, lg *log.Logger) error {
		return s.email(ctx, lg)
	})
	return nil
}

// Stop cancels the active session, if any, then announces it.
func (s *Session) Stop() {
	s.mu.Lock()
	stopping := s.state != Idle && s.state != Stopping
	if stopping {
		s.state = Stopping
		s.cancel()
	}
	s.mu.Unlock()

	if stopping {
		s.emit(Stopping)
	}
	<-s.Speaker.Say("Stopping")
	s.Status.SetStatus("Stopped")
}

// Wait blocks until the current worker, if any, has exited.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Session) begin(parent context.Context, st State) (context.Context, *log.Logger, error) {
	s.mu.Lock()
	if s.state != Idle {
		cur := s.state
		s.mu.Unlock()
		if cur == Listening && st == Listening {
			return nil, nil, ErrAlreadyListening
		}
		return nil, nil, ErrBusy
	}

	ctx, cancel := context.WithCancel(parent)
	s.state = st
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	lg := log.With("session", uuid.NewString()[:8])
	lg.Info("Session started", "mode", st)
	s.emit(st)
	return ctx, lg, nil
}

func (s *Session) run(ctx context.Context, lg *log.Logger, work func(context.Context, *log.Logger) error) {
	err := work(ctx, lg)
	s.report(lg, err)

	s.mu.Lock()
	s.cancel()
	s.state = Idle
	done := s.done
	s.mu.Unlock()

	lg.Info("Session ended")
	s.emit(Idle)
	s.Status.SetStatus("Ready")
	close(done)
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	if s.state == Stopping || s.state == st {
		s.mu.Unlock()
		return
	}
	s.state = st
	s.mu.Unlock()
	s.emit(st)
}

func (s *Session) listen(ctx context.Context, lg *log.Logger) error {
	if err := s.say(ctx, "Listening started"); err != nil {
		return err
	}
	s.Status.SetStatus("Listening...")
	if s.Alerts != nil {
		s.Alerts.Listening()
	}

	if s.Ducker != nil {
		if err := s.Ducker.Duck(ctx); err != nil {
			lg.Warn("Failed to duck audio", "err", err)
		}
		defer func() {
			if err := s.Ducker.Unduck(context.WithoutCancel(ctx)); err != nil {
				lg.Warn("Failed to restore audio", "err", err)
			}
		}()
	}

	capture, err := s.Ear.Open(ctx)
	if err != nil {
		return err
	}
	defer capture.Close()

	if err := capture.Calibrate(ctx, s.opt.Calibration); err != nil {
		return err
	}

	for ctx.Err() == nil {
		text, err := capture.Hear(ctx, s.opt.ListenTimeout, 0)
		if errors.Is(err, audio.ErrWaitTimeout) {
			continue
		}
		if err != nil {
			return err
		}

		lg.Info("Heard", "text", text)
		done, err := s.dispatch(ctx, lg, text)
		if err != nil || done {
			return err
		}
	}
	return nil
}

// dispatch performs the action for text. done ends the listening session.
func (s *Session) dispatch(ctx context.Context, lg *log.Logger, text string) (done bool, err error) {
	intent := Classify(text, s.Registry)
	lg.Debug("Dispatching", "intent", intent.Kind, "text", text)

	switch intent.Kind {
	case IntentCustomApp:
		s.Status.SetStatus("Opening " + text)
		if err := s.say(ctx, "Opening "+text); err != nil {
			return true, err
		}
		return true, s.Launcher.Spawn(ctx, intent.Path)

	case IntentNotepad:
		return false, s.Launcher.OpenEditor(ctx)

	case IntentLinkedIn:
		return false, s.Launcher.OpenURL(ctx, s.opt.LinkedInURL)

	case IntentEmail:
		s.setState(Dictating)
		return true, s.email(ctx, lg)

	case IntentGreet:
		s.Speaker.Say("Hello Stof")
		return false, nil

	case IntentStop:
		s.Stop()
		return true, nil
	}

	status := fmt.Sprintf("Heard '%s'", text)
	if name, ok := closestName(text, s.Registry.Names()); ok {
		status += fmt.Sprintf(", did you mean '%s'?", name)
	}
	s.Status.SetStatus(status)
	<-s.Speaker.Say(fmt.Sprintf("You said %s, but I don't know that app yet.", text))
	return true, nil
}

// report surfaces the error that ended a session.
func (s *Session) report(lg *log.Logger, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	lg.Warn("Session failed", "err", err)

	var status, speech string
	switch {
	case errors.Is(err, stt.ErrUnknownValue):
		status, speech = "Didn't understand", "Sorry, I did not understand."
	case errors.Is(err, stt.ErrRequest):
		status, speech = "Network Error", "I cannot reach the speech service."
	default:
		status, speech = "Mic Error: "+err.Error(), "I cannot access your microphone."
		if s.Alerts != nil {
			s.Alerts.Failure(status)
		}
	}
	s.Status.SetStatus(status)
	<-s.Speaker.Say(speech)
}

// say speaks text, waits for it to finish and lets the room settle.
func (s *Session) say(ctx context.Context, text string) error {
	select {
	case <-s.Speaker.Say(text):
	case <-ctx.Done():
		return ctx.Err()
	}
	return sleep(ctx, s.opt.Settle)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

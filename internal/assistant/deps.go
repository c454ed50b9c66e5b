package assistant

import (
	"context"
	"time"

	"stofix/internal/input"
	"stofix/internal/registry"
)

// Ear opens a fresh capture per listening session or dictation stage.
type Ear interface {
	Open(ctx context.Context) (Capture, error)
}

// Capture yields one lowercased utterance per Hear call.
type Capture interface {
	Calibrate(ctx context.Context, d time.Duration) error
	Hear(ctx context.Context, timeout, phraseLimit time.Duration) (string, error)
	Close() error
}

// Speaker plays text; the returned channel closes when playback is over.
type Speaker interface {
	Say(text string) <-chan struct{}
	Speaking() bool
}

type Keyboard interface {
	Type(text string) error
	Press(key input.Key) error
	Hotkey(keys ...input.Key) error
}

type Launcher interface {
	OpenURL(ctx context.Context, url string) error
	OpenFile(ctx context.Context, path string) error
	Spawn(ctx context.Context, command string) error
	OpenEditor(ctx context.Context) error
}

type Registry interface {
	Lookup(name string) (string, bool)
	Names() []string
	List() []registry.App
	Add(name, path string) error
	Remove(name string) error
}

type Status interface {
	SetStatus(text string)
}

// Alerts are optional cues outside the status line.
type Alerts interface {
	Listening()
	Failure(msg string)
}

// Ducker lowers other audio while the assistant listens.
type Ducker interface {
	Duck(ctx context.Context) error
	Unduck(ctx context.Context) error
}

type Deps struct {
	Ear      Ear
	Speaker  Speaker
	Keyboard Keyboard
	Launcher Launcher
	Registry Registry
	Status   Status

	Alerts Alerts // optional
	Ducker Ducker // optional
}

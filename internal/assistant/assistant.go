package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strconv"
	"strings"

	"stofix/internal/registry"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("bad arguments")
)

// Volume is the speech output level control.
type Volume interface {
	SetVolume(v float64)
	Volume() float64
}

// Assistant is the single entry point for every control surface: panel,
// hotkeys, IPC and bus.
type Assistant struct {
	session *Session
	apps    *Apps
	board   *StatusBoard
	volume  Volume

	root context.Context
}

// New builds an assistant. Sessions it starts live until ctx is done or
// they are stopped, independent of the request that started them.
func New(ctx context.Context, d Deps, opt Options, board *StatusBoard, vol Volume) *Assistant {
	d.Status = board
	return &Assistant{
		session: NewSession(d, opt),
		apps:    NewApps(d.Registry, d.Speaker, d.Launcher, board),
		board:   board,
		volume:  vol,
		root:    ctx,
	}
}

func (a *Assistant) Session() *Session { return a.session }

func (a *Assistant) Listen() error { return a.session.Start(a.root) }

func (a *Assistant) Stop() { a.session.Stop() }

func (a *Assistant) Email() error { return a.session.Email(a.root) }

func (a *Assistant) Hello() { a.session.Speaker.Say("Hello Stof") }

func (a *Assistant) Notepad() error {
	return a.session.Launcher.OpenEditor(a.root)
}

func (a *Assistant) LinkedIn() error {
	return a.session.Launcher.OpenURL(a.root, a.session.opt.LinkedInURL)
}

func (a *Assistant) AddApp(name, path string) error { return a.apps.Add(name, path) }

func (a *Assistant) RemoveApp(name string) error { return a.apps.Remove(name) }

func (a *Assistant) LaunchApp(name string) error { return a.apps.Launch(a.root, name) }

func (a *Assistant) Apps() []registry.App { return a.apps.List() }

func (a *Assistant) SetVolume(v float64) {
	if a.volume != nil {
		a.volume.SetVolume(v)
	}
}

func (a *Assistant) Volume() float64 {
	if a.volume == nil {
		return 0
	}
	return a.volume.Volume()
}

func (a *Assistant) Speaking() bool { return a.session.Speaker.Speaking() }

func (a *Assistant) State() State { return a.session.State() }

func (a *Assistant) StatusText() string { return a.board.Text() }

type Reply struct {
	Message string
	Apps    []registry.App
}

// Handle runs a named command as sent by stofix-ctl or the hub bus.
func (a *Assistant) Handle(cmd string, args []string) (Reply, error) {
	log.Debug("Command", "cmd", cmd, "args", args)

	switch cmd {
	case "listen":
		if err := a.Listen(); err != nil {
			return Reply{}, err
		}
		return Reply{Message: "listening"}, nil

	case "stop":
		go a.Stop()
		return Reply{Message: "stopping"}, nil

	case "email":
		if err := a.Email(); err != nil {
			return Reply{}, err
		}
		return Reply{Message: "composing email"}, nil

	case "hello":
		a.Hello()
		return Reply{Message: "hello"}, nil

	case "notepad":
		return Reply{Message: "editor opened"}, a.Notepad()

	case "linkedin":
		return Reply{Message: "linkedin opened"}, a.LinkedIn()

	case "add":
		if len(args) < 2 {
			return Reply{}, fmt.Errorf("%w: add <name> <path>", ErrUsage)
		}
		if err := a.AddApp(args[0], strings.Join(args[1:], " ")); err != nil {
			return Reply{}, err
		}
		return Reply{Message: "added " + registry.CanonicalName(args[0])}, nil

	case "remove":
		if len(args) != 1 {
			return Reply{}, fmt.Errorf("%w: remove <name>", ErrUsage)
		}
		if err := a.RemoveApp(args[0]); err != nil {
			return Reply{}, err
		}
		return Reply{Message: "removed " + registry.CanonicalName(args[0])}, nil

	case "launch":
		if len(args) != 1 {
			return Reply{}, fmt.Errorf("%w: launch <name>", ErrUsage)
		}
		if err := a.LaunchApp(args[0]); err != nil {
			return Reply{}, err
		}
		return Reply{Message: "opening " + registry.CanonicalName(args[0])}, nil

	case "list":
		return Reply{Apps: a.Apps()}, nil

	case "volume":
		if len(args) == 0 {
			return Reply{Message: strconv.FormatFloat(a.Volume(), 'f', 2, 64)}, nil
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return Reply{}, fmt.Errorf("%w: volume <0..1>", ErrUsage)
		}
		a.SetVolume(v)
		return Reply{Message: strconv.FormatFloat(a.Volume(), 'f', 2, 64)}, nil

	case "status":
		return Reply{Message: fmt.Sprintf("%s: %s", a.State(), a.StatusText())}, nil
	}

	return Reply{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
}

// Package launch starts external programs: files and URLs through the OS
// default handler, custom app commands through the shell, and the bundled
// text editor directly.
package launch

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os/exec"
	"runtime"
)

type Launcher struct {
	goos   string
	editor []string

	// start is swapped in tests
	start func(cmd *exec.Cmd) error
}

// New returns a launcher for the running OS. editor overrides the bundled
// editor command; empty means the platform default.
func New(editor []string) *Launcher {
	return newFor(runtime.GOOS, editor)
}

func newFor(goos string, editor []string) *Launcher {
	if len(editor) == 0 {
		editor = defaultEditor(goos)
	}
	return &Launcher{
		goos:   goos,
		editor: editor,
		start:  startDetached,
	}
}

func defaultEditor(goos string) []string {
	switch goos {
	case "windows":
		return []string{"notepad.exe"}
	case "darwin":
		return []string{"open", "-a", "TextEdit"}
	default:
		return []string{"gedit"}
	}
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	// reap the child without blocking the caller
	go func() { _ = cmd.Wait() }()
	return nil
}

// OpenURL opens a URL in the default browser.
func (l *Launcher) OpenURL(ctx context.Context, url string) error {
	return l.open(ctx, url)
}

// OpenFile opens a file with whatever the OS associates with it.
func (l *Launcher) OpenFile(ctx context.Context, path string) error {
	return l.open(ctx, path)
}

// Launched programs are not tied to ctx: they outlive the voice session
// that started them.
func (l *Launcher) open(_ context.Context, target string) error {
	name, args, err := l.openerCommand(target)
	if err != nil {
		return err
	}

	log.Debug("Opening", "target", target, "cmd", name)
	if err := l.start(exec.Command(name, args...)); err != nil {
		return fmt.Errorf("open %s: %w", target, err)
	}
	return nil
}

func (l *Launcher) openerCommand(target string) (string, []string, error) {
	switch l.goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}, nil
	case "darwin":
		return "open", []string{target}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{target}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", l.goos)
	}
}

// Spawn runs command through the shell, so registered paths may carry
// arguments, quotes and environment references.
func (l *Launcher) Spawn(_ context.Context, command string) error {
	if command == "" {
		return errors.New("empty command")
	}

	name, args := l.shellCommand(command)
	log.Debug("Spawning", "command", command)
	if err := l.start(exec.Command(name, args...)); err != nil {
		return fmt.Errorf("spawn %q: %w", command, err)
	}
	return nil
}

func (l *Launcher) shellCommand(command string) (string, []string) {
	if l.goos == "windows" {
		return "cmd", []string{"/C", command}
	}
	return "sh", []string{"-c", command}
}

// OpenEditor starts the bundled text editor.
func (l *Launcher) OpenEditor(context.Context) error {
	log.Debug("Opening editor", "cmd", l.editor)
	if err := l.start(exec.Command(l.editor[0], l.editor[1:]...)); err != nil {
		return fmt.Errorf("open editor: %w", err)
	}
	return nil
}

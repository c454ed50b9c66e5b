package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"

	"stofix/internal/registry"
)

// Apps manages the custom app list on behalf of the control surfaces.
type Apps struct {
	registry Registry
	speaker  Speaker
	launcher Launcher
	status   Status

	exists func(path string) bool
}

func NewApps(r Registry, sp Speaker, l Launcher, st Status) *Apps {
	return &Apps{
		registry: r,
		speaker:  sp,
		launcher: l,
		status:   st,
		exists:   fileExists,
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (a *Apps) List() []registry.App {
	return a.registry.List()
}

func (a *Apps) Add(name, path string) error {
	err := a.registry.Add(name, path)
	switch {
	case errors.Is(err, registry.ErrEmptyField):
		a.status.SetStatus("Fill all fields!")
		return err
	case errors.Is(err, registry.ErrExists):
		a.status.SetStatus("App already exists!")
		return err
	case err != nil:
		a.status.SetStatus("Error: " + err.Error())
		return err
	}

	name = registry.CanonicalName(name)
	log.Info("App added", "name", name, "path", path)
	a.status.SetStatus("Added " + name)
	a.speaker.Say(fmt.Sprintf("Added %s to the list", name))
	return nil
}

func (a *Apps) Remove(name string) error {
	name = registry.CanonicalName(name)
	if err := a.registry.Remove(name); err != nil {
		a.status.SetStatus("Error: " + err.Error())
		return err
	}
	log.Info("App removed", "name", name)
	a.status.SetStatus("Removed " + name)
	return nil
}

// Launch opens a registered app with the OS default handler.
func (a *Apps) Launch(ctx context.Context, name string) error {
	name = registry.CanonicalName(name)
	path, ok := a.registry.Lookup(name)
	if !ok {
		a.status.SetStatus("Error: " + registry.ErrNotFound.Error())
		return registry.ErrNotFound
	}

	a.status.SetStatus(fmt.Sprintf("Opening %s...", name))
	if !a.exists(path) {
		log.Warn("App file missing", "name", name, "path", path)
		a.speaker.Say("Application file not found")
		return fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}
	return a.launcher.OpenFile(ctx, path)
}

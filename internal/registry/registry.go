// Package registry keeps the user's custom apps: voice command name to
// application path, persisted as a single JSON object.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/natefinch/atomic"
)

var (
	ErrEmptyField = errors.New("name and path are required")
	ErrExists     = errors.New("app already exists")
	ErrNotFound   = errors.New("app not found")
)

type App struct {
	Name string
	Path string
}

// Registry is safe for concurrent use. Every mutation rewrites the whole
// file and notifies subscribers with a fresh snapshot.
type Registry struct {
	mu   sync.RWMutex
	path string
	apps map[string]string

	subMu sync.Mutex
	subs  []func([]App)
}

// Open loads the registry stored at path. A missing file is an empty
// registry; an unreadable or malformed one is logged and reset to empty.
func Open(path string) *Registry {
	r := &Registry{path: path, apps: make(map[string]string)}
	if err := r.Load(); err != nil {
		log.Warn("Failed to load apps, starting empty", "path", path, "err", err)
	}
	return r
}

func (r *Registry) Path() string { return r.path }

// Load replaces the in-memory registry with the file content. On any
// failure the registry is emptied.
func (r *Registry) Load() error {
	apps, err := readFile(r.path)

	r.mu.Lock()
	changed := !maps.Equal(r.apps, apps)
	r.apps = apps
	r.mu.Unlock()

	if changed {
		r.notify()
	}
	return err
}

func readFile(path string) (map[string]string, error) {
	apps := make(map[string]string)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return apps, nil
		}
		return apps, fmt.Errorf("read apps: %w", err)
	}

	var parsed map[string]string
	if err := json.Unmarshal(data, &parsed); err != nil {
		return apps, fmt.Errorf("parse apps: %w", err)
	}
	maps.Copy(apps, parsed)
	return apps, nil
}

func (r *Registry) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := json.Marshal(r.apps)
	if err != nil {
		return fmt.Errorf("marshal apps: %w", err)
	}

	if err := atomic.WriteFile(r.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write apps: %w", err)
	}
	return nil
}

// Add registers name (trimmed, lowercased) for path (trimmed).
func (r *Registry) Add(name, path string) error {
	name = CanonicalName(name)
	path = strings.TrimSpace(path)
	if name == "" || path == "" {
		return ErrEmptyField
	}

	r.mu.Lock()
	if _, ok := r.apps[name]; ok {
		r.mu.Unlock()
		return ErrExists
	}
	r.apps[name] = path
	err := r.saveLocked()
	r.mu.Unlock()

	r.notify()
	return err
}

func (r *Registry) Remove(name string) error {
	name = CanonicalName(name)

	r.mu.Lock()
	if _, ok := r.apps[name]; !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.apps, name)
	err := r.saveLocked()
	r.mu.Unlock()

	r.notify()
	return err
}

// Lookup matches name exactly, no normalization.
func (r *Registry) Lookup(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	path, ok := r.apps[name]
	return path, ok
}

// List returns the apps sorted by name.
func (r *Registry) List() []App {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]App, 0, len(r.apps))
	for _, name := range slices.Sorted(maps.Keys(r.apps)) {
		out = append(out, App{Name: name, Path: r.apps[name]})
	}
	return out
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.apps))
}

// Subscribe registers fn to receive a snapshot after every change.
func (r *Registry) Subscribe(fn func([]App)) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.subs = append(r.subs, fn)
}

func (r *Registry) notify() {
	r.subMu.Lock()
	subs := slices.Clone(r.subs)
	r.subMu.Unlock()

	if len(subs) == 0 {
		return
	}
	snapshot := r.List()
	for _, fn := range subs {
		fn(snapshot)
	}
}

func CanonicalName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Package hotkey binds global function keys that work without the panel
// having focus.
package hotkey

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"

	"golang.design/x/hotkey"
)

type Binding struct {
	Key    string // "F9"
	Action func()
}

var keys = map[string]hotkey.Key{
	"F1": hotkey.KeyF1, "F2": hotkey.KeyF2, "F3": hotkey.KeyF3,
	"F4": hotkey.KeyF4, "F5": hotkey.KeyF5, "F6": hotkey.KeyF6,
	"F7": hotkey.KeyF7, "F8": hotkey.KeyF8, "F9": hotkey.KeyF9,
	"F10": hotkey.KeyF10, "F11": hotkey.KeyF11, "F12": hotkey.KeyF12,
}

func ParseKey(name string) (hotkey.Key, error) {
	k, ok := keys[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unsupported hotkey %q", name)
	}
	return k, nil
}

// Listen registers every binding and runs its action on key down until
// ctx is done. Actions run on the listener goroutine and must not block.
func Listen(ctx context.Context, bindings ...Binding) error {
	var registered []*hotkey.Hotkey
	defer func() {
		for _, hk := range registered {
			if err := hk.Unregister(); err != nil {
				log.Warn("Failed to unregister hotkey", "err", err)
			}
		}
	}()

	for _, b := range bindings {
		k, err := ParseKey(b.Key)
		if err != nil {
			return err
		}
		hk := hotkey.New([]hotkey.Modifier{}, k)
		if err := hk.Register(); err != nil {
			return fmt.Errorf("register %s: %w", b.Key, err)
		}
		registered = append(registered, hk)
		log.Debug("Hotkey registered", "key", b.Key)

		go func(hk *hotkey.Hotkey, b Binding) {
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-hk.Keydown():
					if !ok {
						return
					}
					log.Debug("Hotkey pressed", "key", b.Key)
					b.Action()
				}
			}
		}(hk, b)
	}

	<-ctx.Done()
	return nil
}

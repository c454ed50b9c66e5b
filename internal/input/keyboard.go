// Package input injects synthetic keystrokes into whatever window has the
// OS input focus. The target window is never verified.
package input

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

type Key int

const (
	KeyTab Key = iota
	KeyEnter
	KeyCtrl
	KeyShift
	KeyAlt
)

func (k Key) String() string {
	switch k {
	case KeyTab:
		return "tab"
	case KeyEnter:
		return "enter"
	case KeyCtrl:
		return "ctrl"
	case KeyShift:
		return "shift"
	case KeyAlt:
		return "alt"
	default:
		return fmt.Sprintf("key(%d)", int(k))
	}
}

type modifiers struct {
	ctrl, shift, alt, super bool
}

// pasteModifiers is the paste chord modifier: cmd on macOS, ctrl elsewhere.
func pasteModifiers(goos string) modifiers {
	if goos == "darwin" {
		return modifiers{super: true}
	}
	return modifiers{ctrl: true}
}

type clipboardIO struct {
	read  func() (string, error)
	write func(string) error
}

// Keyboard types text by pasting it through the clipboard, which works for
// any layout and any character, and presses keys through the virtual
// keyboard device.
type Keyboard struct {
	mu   sync.Mutex
	clip clipboardIO
	send func(codes []int, mods modifiers) error
	goos string

	// PasteDelay lets the clipboard settle before and after the paste.
	PasteDelay time.Duration
	// KeepClipboard restores the previous clipboard content after typing.
	KeepClipboard bool
}

func NewKeyboard() (*Keyboard, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("virtual keyboard: %w", err)
	}

	// on linux the uinput device needs a moment before the first event
	if runtime.GOOS == "linux" {
		time.Sleep(2 * time.Second)
	}

	return &Keyboard{
		clip: clipboardIO{read: clipboard.ReadAll, write: clipboard.WriteAll},
		send: func(codes []int, mods modifiers) error {
			return launch(&kb, codes, mods)
		},
		goos:          runtime.GOOS,
		PasteDelay:    80 * time.Millisecond,
		KeepClipboard: true,
	}, nil
}

// Type writes text literally at the current cursor position.
func (k *Keyboard) Type(text string) error {
	if text == "" {
		return nil
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	orig, readErr := k.clip.read()
	if err := k.clip.write(text); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	time.Sleep(k.PasteDelay)

	if err := k.send([]int{keybd_event.VK_V}, pasteModifiers(k.goos)); err != nil {
		return err
	}

	// an unreadable clipboard is left holding the typed text
	if k.KeepClipboard && readErr == nil {
		time.Sleep(k.PasteDelay)
		_ = k.clip.write(orig)
	}
	return nil
}

// Press taps a single key.
func (k *Keyboard) Press(key Key) error {
	return k.Hotkey(key)
}

// Hotkey presses keys together: modifiers are held while the rest are tapped.
func (k *Keyboard) Hotkey(keys ...Key) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	var (
		codes []int
		mods  modifiers
	)
	for _, key := range keys {
		switch key {
		case KeyCtrl:
			mods.ctrl = true
		case KeyShift:
			mods.shift = true
		case KeyAlt:
			mods.alt = true
		case KeyTab:
			codes = append(codes, keybd_event.VK_TAB)
		case KeyEnter:
			codes = append(codes, keybd_event.VK_ENTER)
		default:
			return fmt.Errorf("unsupported key %s", key)
		}
	}
	return k.send(codes, mods)
}

func launch(kb *keybd_event.KeyBonding, codes []int, mods modifiers) error {
	kb.Clear()
	kb.SetKeys(codes...)
	kb.HasCTRL(mods.ctrl)
	kb.HasSHIFT(mods.shift)
	kb.HasALT(mods.alt)
	kb.HasSuper(mods.super)
	defer func() {
		kb.HasCTRL(false)
		kb.HasSHIFT(false)
		kb.HasALT(false)
		kb.HasSuper(false)
	}()

	if err := kb.Launching(); err != nil {
		return fmt.Errorf("send keys: %w", err)
	}
	return nil
}

package notify

import (
	log "log/slog"

	"github.com/gen2brain/beeep"
)

const title = "Stofix"

func init() {
	beeep.AppName = "stofix"
}

// Notifier raises the listening cue and failure popups. Either channel may
// be switched off.
type Notifier struct {
	chime   func() error
	desktop func(title, msg string) error
}

// New builds a notifier; a nil chime disables the sound.
func New(chime *Chime, desktop bool) *Notifier {
	n := &Notifier{}
	if chime != nil {
		n.chime = chime.Play
	}
	if desktop {
		n.desktop = func(title, msg string) error {
			return beeep.Notify(title, msg, "")
		}
	}
	return n
}

// Listening plays the chime and shows a popup without blocking the caller.
func (n *Notifier) Listening() {
	go func() {
		if n.chime != nil {
			if err := n.chime(); err != nil {
				log.Warn("Failed to play chime", "err", err)
			}
		}
	}()
	n.popup("Listening...")
}

func (n *Notifier) Failure(msg string) {
	n.popup(msg)
}

func (n *Notifier) popup(msg string) {
	if n.desktop == nil {
		return
	}
	if err := n.desktop(title, msg); err != nil {
		log.Warn("Failed to notify", "msg", msg, "err", err)
	}
}

package assistant

import (
	log "log/slog"
	"sync"
)

// StatusBoard holds the latest status line and fans it out to the
// attached surfaces.
type StatusBoard struct {
	mu    sync.Mutex
	text  string
	sinks []func(string)
}

func NewStatusBoard() *StatusBoard {
	return &StatusBoard{text: "Ready"}
}

func (b *StatusBoard) Attach(fn func(string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, fn)
}

func (b *StatusBoard) SetStatus(text string) {
	b.mu.Lock()
	b.text = text
	sinks := append([]func(string){}, b.sinks...)
	b.mu.Unlock()

	log.Debug("Status", "text", text)
	for _, fn := range sinks {
		fn(text)
	}
}

func (b *StatusBoard) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

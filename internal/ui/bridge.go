package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"stofix/internal/registry"
)

// Bridge forwards status lines and app list changes into a running
// program. Messages sent before Attach are dropped.
type Bridge struct {
	mu sync.Mutex
	p  *tea.Program
}

func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.p = p
}

func (b *Bridge) send(msg tea.Msg) {
	b.mu.Lock()
	p := b.p
	b.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func (b *Bridge) SetStatus(text string) { b.send(statusMsg(text)) }

func (b *Bridge) SetApps(apps []registry.App) { b.send(appsMsg(apps)) }

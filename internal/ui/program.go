package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// ProgramHandle hands the running *tea.Program across goroutines. Watcher
// callbacks can fire before Run has delivered the program; Send drops
// messages until Set has been called.
type ProgramHandle struct {
	mu sync.Mutex
	p  *tea.Program
}

// Set records the running program.
func (h *ProgramHandle) Set(p *tea.Program) {
	h.mu.Lock()
	h.p = p
	h.mu.Unlock()
}

// Send forwards msg to the program, or drops it when none is running yet.
func (h *ProgramHandle) Send(msg tea.Msg) {
	h.mu.Lock()
	p := h.p
	h.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

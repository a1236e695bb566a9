package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// UpdatedMsg tells the view that conversation history or progress changed.
type UpdatedMsg struct{}

// turnDoneMsg ends a Submit, SetCredential or GrantConsent command.
type turnDoneMsg struct {
	err error
}

type findingSavedMsg struct {
	err error
}

type copiedMsg struct {
	err error
}

type exportedMsg struct {
	path string
	err  error
}

// Notifier forwards conversation updates to a running program. It is
// created before the program so it can be passed as the conversation's
// OnUpdate callback.
type Notifier struct {
	mu      sync.Mutex
	program *tea.Program
}

// Attach sets the program that receives updates.
func (n *Notifier) Attach(p *tea.Program) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.program = p
}

// Notify sends UpdatedMsg to the attached program, if any.
func (n *Notifier) Notify() {
	n.mu.Lock()
	p := n.program
	n.mu.Unlock()
	if p != nil {
		p.Send(UpdatedMsg{})
	}
}

package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"logchat/agent"
	"logchat/config"
	"logchat/model"
)

// backendOrder is the Ctrl+B cycle order.
var backendOrder = []model.BackendKind{model.KindHosted, model.KindOnDevice, model.KindDownloadable}

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		// Title, separator, log status (1 line each), textarea (3 lines), status bar (1 line)
		a.viewport.Width = a.width
		a.viewport.Height = max(a.height-7, 1)
		a.textarea.SetWidth(a.width)

		a.ready = true
		a.updateViewportContent(true)
		return a, nil

	case UpdatedMsg:
		a.updateViewportContent(true)
		return a, nil

	case turnDoneMsg:
		a.running = false
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			config.DebugLog.Errorf("[AppView] Turn failed: %v", msg.err)
			if a.activePrompt() == agent.ReasonCredential {
				a.keyErr = msg.err.Error()
			} else {
				a.setNotice(msg.err.Error(), true)
			}
		}
		a.updateViewportContent(true)
		return a, nil

	case spinner.TickMsg:
		if !a.running {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.updateViewportContent(a.viewport.AtBottom())
		return a, cmd

	case findingSavedMsg:
		if msg.err != nil {
			a.setNotice(fmt.Sprintf("Failed to save finding: %v", msg.err), true)
		} else {
			a.setNotice("Finding saved. It will be included in future questions.", false)
		}
		return a, nil

	case copiedMsg:
		if msg.err != nil {
			a.setNotice(fmt.Sprintf("Failed to copy: %v", msg.err), true)
		} else {
			a.setNotice("Copied last answer to clipboard", false)
		}
		return a, nil

	case exportedMsg:
		if msg.err != nil {
			a.setNotice(fmt.Sprintf("Failed to export transcript: %v", msg.err), true)
		} else {
			a.setNotice("Transcript saved to "+msg.path, false)
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		a.cancel()
		return a, tea.Quit
	case "f1":
		a.showHelp = !a.showHelp
		return a, nil
	}

	if a.showHelp {
		if msg.String() == "esc" {
			a.showHelp = false
		}
		return a, nil
	}
	if a.conv.Progress() != "" {
		return a, nil
	}

	switch a.activePrompt() {
	case agent.ReasonCredential:
		return a.handleCredentialKey(msg)
	case agent.ReasonConsent:
		return a.handleConsentKey(msg)
	}

	a.notice = ""
	switch msg.String() {
	case "enter":
		return a.submit()
	case "ctrl+s":
		return a.saveFinding()
	case "ctrl+y":
		return a.copyLastAnswer()
	case "ctrl+e":
		return a.exportTranscript()
	case "ctrl+b":
		a.cycleBackend()
		return a, nil
	case "ctrl+t":
		a.cycleTier()
		return a, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

func (a AppView) submit() (tea.Model, tea.Cmd) {
	prompt := strings.TrimSpace(a.textarea.Value())
	if prompt == "" || a.running {
		return a, nil
	}
	a.textarea.Reset()
	a.dismissed = nil

	conv, ctx := a.conv, a.ctx
	return a.start(func() error { return conv.Submit(ctx, prompt) })
}

// start runs fn as a turn command with the spinner going.
func (a AppView) start(fn func() error) (tea.Model, tea.Cmd) {
	a.running = true
	a.updateViewportContent(true)
	return a, tea.Batch(a.spinner.Tick, func() tea.Msg {
		return turnDoneMsg{err: fn()}
	})
}

func (a AppView) handleCredentialKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.dismissed = a.conv.Pending()
		a.keyInput.Reset()
		a.keyErr = ""
		return a, nil

	case "enter":
		apiKey := strings.TrimSpace(a.keyInput.Value())
		if apiKey == "" {
			a.keyErr = "API key cannot be empty"
			return a, nil
		}
		a.keyInput.Reset()
		a.keyErr = ""

		conv, ctx := a.conv, a.ctx
		return a.start(func() error { return conv.SetCredential(ctx, apiKey) })
	}

	if !a.keyInput.Focused() {
		a.keyInput.Focus()
	}
	var cmd tea.Cmd
	a.keyInput, cmd = a.keyInput.Update(msg)
	return a, cmd
}

func (a AppView) handleConsentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		conv, ctx := a.conv, a.ctx
		return a.start(func() error { return conv.GrantConsent(ctx) })
	case "n", "N":
		if err := a.conv.DeclineConsent(); err != nil {
			a.setNotice(err.Error(), true)
		}
		a.updateViewportContent(true)
	case "esc":
		a.dismissed = a.conv.Pending()
	}
	return a, nil
}

func (a AppView) saveFinding() (tea.Model, tea.Cmd) {
	if a.opts.Findings == nil {
		a.setNotice("Findings are not available", true)
		return a, nil
	}
	text, ok := lastAnswer(a.conv.History())
	if !ok {
		a.setNotice("No answer to save yet", true)
		return a, nil
	}
	findings := a.opts.Findings
	return a, func() tea.Msg {
		return findingSavedMsg{err: findings.Append(text)}
	}
}

func (a AppView) copyLastAnswer() (tea.Model, tea.Cmd) {
	text, ok := lastAnswer(a.conv.History())
	if !ok {
		a.setNotice("No answer to copy yet", true)
		return a, nil
	}
	copyFn := a.opts.Copy
	return a, func() tea.Msg {
		return copiedMsg{err: copyFn(text)}
	}
}

func (a AppView) exportTranscript() (tea.Model, tea.Cmd) {
	if a.opts.Transcripts == nil {
		a.setNotice("Transcript export is not available", true)
		return a, nil
	}
	transcripts, history := a.opts.Transcripts, a.conv.History()
	return a, func() tea.Msg {
		path, err := transcripts.Save(history)
		return exportedMsg{path: path, err: err}
	}
}

func (a *AppView) cycleBackend() {
	current := a.conv.Backend()
	start := 0
	for i, k := range backendOrder {
		if k == current {
			start = i
		}
	}
	for step := 1; step < len(backendOrder); step++ {
		next := backendOrder[(start+step)%len(backendOrder)]
		err := a.conv.SelectBackend(next)
		if err == nil {
			a.setNotice(fmt.Sprintf("Backend: %s", next), false)
			a.saveSelection()
			return
		}
		if errors.Is(err, agent.ErrBusy) {
			a.setNotice(err.Error(), true)
			return
		}
	}
	a.setNotice("No other backend is configured", true)
}

func (a *AppView) cycleTier() {
	tiers := a.conv.Tiers()
	if len(tiers) == 0 {
		a.setNotice("The current backend has no tiers", true)
		return
	}
	next := tiers[0].Name
	for i, t := range tiers {
		if t.Name == a.conv.Tier() {
			next = tiers[(i+1)%len(tiers)].Name
		}
	}
	if err := a.conv.SelectTier(next); err != nil {
		a.setNotice(err.Error(), true)
		return
	}
	a.setNotice(fmt.Sprintf("Tier: %s", next), false)
	a.saveSelection()
}

func (a *AppView) saveSelection() {
	if a.opts.SaveSelection == nil {
		return
	}
	if err := a.opts.SaveSelection(a.conv.Backend(), a.conv.Tier()); err != nil {
		config.DebugLog.Warnf("[AppView] Failed to save selection: %v", err)
		a.setNotice(fmt.Sprintf("Failed to save selection: %v", err), true)
	}
}

func (a *AppView) setNotice(text string, isError bool) {
	a.notice = text
	a.noticeIsError = isError
}

// lastAnswer returns the newest model answer, skipping the welcome message,
// errors and warnings.
func lastAnswer(history []model.Message) (string, bool) {
	for i := len(history) - 1; i > 0; i-- {
		m := history[i]
		if m.Role == model.RoleModel && !m.IsError && !m.IsWarning {
			return m.Text, true
		}
	}
	return "", false
}

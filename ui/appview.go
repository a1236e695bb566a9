package ui

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"logchat/agent"
	"logchat/model"
)

// FindingsWriter saves a finding for later turns.
type FindingsWriter interface {
	Append(text string) error
}

// TranscriptExporter writes the visible history somewhere durable and
// returns where.
type TranscriptExporter interface {
	Save(messages []model.Message) (string, error)
}

// AppOptions configure the chat view. Conversation and Logs are required.
type AppOptions struct {
	Conversation  *agent.Conversation
	Logs          *LogView
	Findings      FindingsWriter
	Transcripts   TranscriptExporter
	DownloadModel string

	// Copy writes to the system clipboard. Defaults to clipboard.WriteAll.
	Copy func(string) error

	// SaveSelection, when set, persists the backend and tier chosen with
	// Ctrl+B and Ctrl+T.
	SaveSelection func(backend model.BackendKind, tier string) error
}

type AppView struct {
	conv *agent.Conversation
	opts AppOptions

	// Turns run under ctx; ctrl+c cancels it
	ctx    context.Context
	cancel context.CancelFunc

	// UI Components
	viewport viewport.Model
	textarea textarea.Model
	keyInput textinput.Model
	spinner  spinner.Model

	// Window state
	width  int
	height int
	ready  bool

	// running is set while a turn command is in flight
	running  bool
	showHelp bool

	// Credential and consent prompts hidden with Esc stay hidden until the
	// pending prompt changes
	dismissed *agent.PendingPrompt
	keyErr    string

	// Transient status bar notice
	notice        string
	noticeIsError bool

	// Markdown cache keyed by message id, valid for renderedWidth
	rendered      map[string]string
	renderedWidth int
}

func NewAppView(opts AppOptions) AppView {
	if opts.Logs == nil {
		opts.Logs = NewLogView(nil)
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}

	ta := textarea.New()
	ta.Placeholder = "Ask about your logs..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Alt+Enter for newline, Enter submits
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))
	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = AssistantStyle

	ctx, cancel := context.WithCancel(context.Background())

	return AppView{
		conv:     opts.Conversation,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		viewport: viewport.New(0, 0),
		textarea: ta,
		keyInput: NewPassphraseInput("API key"),
		spinner:  sp,
		rendered: map[string]string{},
	}
}

func (a AppView) Init() tea.Cmd {
	return textarea.Blink
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading logchat..."
	}

	if a.showHelp {
		return renderHelpModal(a.width, a.height)
	}
	if progress := a.conv.Progress(); progress != "" {
		return renderProgressModal(a.spinner.View(), progress, a.width, a.height)
	}
	switch a.activePrompt() {
	case agent.ReasonCredential:
		return renderCredentialModal(a.keyInput, a.keyErr, a.width, a.height)
	case agent.ReasonConsent:
		return renderConsentModal(a.opts.DownloadModel, a.width, a.height)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		a.renderTitle(),
		"",
		a.viewport.View(),
		LogStatusStyle.Render(a.opts.Logs.StatusLine(a.width)),
		a.textarea.View(),
		a.renderStatusBar(),
	)
}

// activePrompt returns the reason of the pending prompt the user should
// answer now, or "".
func (a AppView) activePrompt() agent.PromptReason {
	if a.running {
		return ""
	}
	p := a.conv.Pending()
	if p == nil || (a.dismissed != nil && *a.dismissed == *p) {
		return ""
	}
	return p.Reason
}

func (a AppView) renderTitle() string {
	title := AssistantStyle.Render("logchat")
	backend := a.conv.Backend()
	title += TitleStyle.Render(fmt.Sprintf(" - %s", backend))
	if backend == model.KindHosted && a.conv.Tier() != "" {
		title += UserStyle.Render(fmt.Sprintf(" - %s", a.conv.Tier()))
	}
	title += DimStyle.Render(fmt.Sprintf(" | %s", a.conv.State()))
	if a.running {
		title += " " + a.spinner.View()
	}
	return title
}

func (a AppView) renderStatusBar() string {
	if a.notice != "" {
		if a.noticeIsError {
			return ErrorStyle.Render(a.notice)
		}
		return UserStyle.Render(a.notice)
	}
	return StatusStyle.Render(formatStatusKeys(
		"Enter", "Send",
		"Ctrl+S", "Save finding",
		"Ctrl+Y", "Copy",
		"Ctrl+B", "Backend",
		"Ctrl+T", "Tier",
		"F1", "Help",
		"Ctrl+C", "Quit",
	))
}

// Close cancels any running turn.
func (a AppView) Close() {
	a.cancel()
}

package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logchat/agent"
	"logchat/model"
	"logchat/provider"
	"logchat/provider/testutil"
)

// stubBackend answers every step with a fixed text once its gate opens.
type stubBackend struct {
	kind   model.BackendKind
	answer string
	ready  func() error

	mu    sync.Mutex
	steps int
}

func (b *stubBackend) Kind() model.BackendKind { return b.kind }

func (b *stubBackend) Ready() error {
	if b.ready != nil {
		return b.ready()
	}
	return nil
}

func (b *stubBackend) Step(ctx context.Context, req model.StepRequest) (*model.StepResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.steps++
	return &model.StepResult{Text: b.answer}, nil
}

func (b *stubBackend) Close() error { return nil }

type findingsRecorder struct {
	saved []string
}

func (f *findingsRecorder) Append(text string) error {
	f.saved = append(f.saved, text)
	return nil
}

type transcriptRecorder struct {
	messages []model.Message
}

func (r *transcriptRecorder) Save(messages []model.Message) (string, error) {
	r.messages = messages
	return "/tmp/transcript.json", nil
}

func newTestApp(t *testing.T, backend *stubBackend, mutate func(*agent.Options, *AppOptions)) AppView {
	t.Helper()
	convOpts := agent.Options{
		Backends: map[model.BackendKind]model.Backend{backend.kind: backend},
		Backend:  backend.kind,
	}
	appOpts := AppOptions{Logs: NewLogView(sliceCorpus(testutil.LogEntries(5))), DownloadModel: "qwen3:4b"}
	if mutate != nil {
		mutate(&convOpts, &appOpts)
	}
	conv, err := agent.NewConversation(convOpts)
	require.NoError(t, err)
	appOpts.Conversation = conv

	app := NewAppView(appOpts)
	next, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(AppView)
}

// send delivers msg and runs the resulting commands until the turn they
// started is done. Spinner ticks are dropped.
func send(t *testing.T, app AppView, msg tea.Msg) AppView {
	t.Helper()
	next, cmd := app.Update(msg)
	app = next.(AppView)
	for _, m := range collect(cmd) {
		switch m.(type) {
		case turnDoneMsg, findingSavedMsg, copiedMsg, exportedMsg:
			next, _ = app.Update(m)
			app = next.(AppView)
		}
	}
	return app
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func typeText(t *testing.T, app AppView, text string) AppView {
	t.Helper()
	return send(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func enter() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEnter} }

func TestAppSubmitShowsAnswer(t *testing.T) {
	backend := &stubBackend{kind: model.KindOnDevice, answer: "The **wifi** daemon timed out."}
	app := newTestApp(t, backend, nil)

	app = typeText(t, app, "why did wifi fail?")
	app = send(t, app, enter())

	assert.False(t, app.running)
	assert.Empty(t, app.textarea.Value())
	history := app.conv.History()
	require.Len(t, history, 3)
	assert.Equal(t, "why did wifi fail?", history[1].Text)
	assert.Equal(t, backend.answer, history[2].Text)

	view := app.View()
	assert.Contains(t, view, "why did wifi fail?")
	assert.Contains(t, view, "Assistant")
	assert.Contains(t, view, "Logs 5/5")
}

func TestAppIgnoresBlankSubmit(t *testing.T) {
	backend := &stubBackend{kind: model.KindOnDevice, answer: "unused"}
	app := newTestApp(t, backend, nil)

	app = typeText(t, app, "   ")
	app = send(t, app, enter())

	assert.Len(t, app.conv.History(), 1)
	assert.Zero(t, backend.steps)
}

func TestAppSaveCopyAndExport(t *testing.T) {
	findings := &findingsRecorder{}
	transcripts := &transcriptRecorder{}
	var copied string
	backend := &stubBackend{kind: model.KindOnDevice, answer: "Restart wifid."}
	app := newTestApp(t, backend, func(_ *agent.Options, o *AppOptions) {
		o.Findings = findings
		o.Transcripts = transcripts
		o.Copy = func(s string) error {
			copied = s
			return nil
		}
	})

	app = send(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, "No answer to save yet", app.notice)
	assert.True(t, app.noticeIsError)

	app = typeText(t, app, "what now?")
	app = send(t, app, enter())

	app = send(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, []string{"Restart wifid."}, findings.saved)
	assert.False(t, app.noticeIsError)

	app = send(t, app, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, "Restart wifid.", copied)

	app = send(t, app, tea.KeyMsg{Type: tea.KeyCtrlE})
	assert.Len(t, transcripts.messages, 3)
	assert.Equal(t, "Transcript saved to /tmp/transcript.json", app.notice)
}

func TestAppCopyFailure(t *testing.T) {
	backend := &stubBackend{kind: model.KindOnDevice, answer: "ok"}
	app := newTestApp(t, backend, func(_ *agent.Options, o *AppOptions) {
		o.Copy = func(string) error { return errors.New("no clipboard") }
	})
	app = typeText(t, app, "hi")
	app = send(t, app, enter())

	app = send(t, app, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, "Failed to copy: no clipboard", app.notice)
	assert.True(t, app.noticeIsError)
}

func TestAppCredentialPrompt(t *testing.T) {
	creds := &testutil.MockCredentials{}
	backend := &stubBackend{kind: model.KindHosted, answer: "Found it."}
	backend.ready = func() error {
		if creds.Credential() == "" {
			return provider.ErrMissingCredential
		}
		return nil
	}
	app := newTestApp(t, backend, func(o *agent.Options, _ *AppOptions) {
		o.Credentials = creds
	})

	app = typeText(t, app, "any kernel panics?")
	app = send(t, app, enter())
	require.Equal(t, agent.ReasonCredential, app.activePrompt())
	assert.Contains(t, app.View(), "API Key Required")

	app = send(t, app, enter())
	assert.Equal(t, "API key cannot be empty", app.keyErr)

	app = typeText(t, app, "secret-key")
	app = send(t, app, enter())

	assert.Equal(t, "secret-key", creds.Credential())
	assert.Nil(t, app.conv.Pending())
	history := app.conv.History()
	assert.Equal(t, "Found it.", history[len(history)-1].Text)
	assert.Equal(t, 1, backend.steps)
}

func TestAppCredentialPromptDismiss(t *testing.T) {
	backend := &stubBackend{kind: model.KindHosted, answer: "unused"}
	backend.ready = func() error { return provider.ErrMissingCredential }
	app := newTestApp(t, backend, func(o *agent.Options, _ *AppOptions) {
		o.Credentials = &testutil.MockCredentials{}
	})

	app = typeText(t, app, "hello")
	app = send(t, app, enter())
	app = send(t, app, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, agent.PromptReason(""), app.activePrompt())
	assert.NotNil(t, app.conv.Pending())
	assert.NotContains(t, app.View(), "API Key Required")
}

func TestAppConsentDecline(t *testing.T) {
	consent := &testutil.MockConsent{}
	backend := &stubBackend{kind: model.KindDownloadable, answer: "unused"}
	backend.ready = func() error {
		if !consent.Consented() {
			return provider.ErrConsentRequired
		}
		return nil
	}
	app := newTestApp(t, backend, func(o *agent.Options, _ *AppOptions) {
		o.Consent = consent
	})

	app = typeText(t, app, "summarize errors")
	app = send(t, app, enter())
	require.Equal(t, agent.ReasonConsent, app.activePrompt())
	assert.Contains(t, app.View(), "qwen3:4b")

	app = send(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})

	assert.Nil(t, app.conv.Pending())
	history := app.conv.History()
	assert.True(t, history[len(history)-1].IsWarning)
	assert.Zero(t, backend.steps)
}

func TestAppConsentGrant(t *testing.T) {
	consent := &testutil.MockConsent{}
	backend := &stubBackend{kind: model.KindDownloadable, answer: "Two errors."}
	backend.ready = func() error {
		if !consent.Consented() {
			return provider.ErrConsentRequired
		}
		return nil
	}
	app := newTestApp(t, backend, func(o *agent.Options, _ *AppOptions) {
		o.Consent = consent
	})

	app = typeText(t, app, "summarize errors")
	app = send(t, app, enter())
	app = send(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})

	assert.True(t, consent.Consented())
	history := app.conv.History()
	assert.Equal(t, "Two errors.", history[len(history)-1].Text)
}

func TestAppCycleBackendAndTier(t *testing.T) {
	backend := &stubBackend{kind: model.KindOnDevice, answer: "ok"}
	app := newTestApp(t, backend, nil)

	app = send(t, app, tea.KeyMsg{Type: tea.KeyCtrlB})
	assert.Equal(t, "No other backend is configured", app.notice)

	app = send(t, app, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, "The current backend has no tiers", app.notice)

	other := &stubBackend{kind: model.KindDownloadable}
	var saved []model.BackendKind
	app = newTestApp(t, backend, func(o *agent.Options, a *AppOptions) {
		o.Backends[other.kind] = other
		a.SaveSelection = func(kind model.BackendKind, _ string) error {
			saved = append(saved, kind)
			return nil
		}
	})
	app = send(t, app, tea.KeyMsg{Type: tea.KeyCtrlB})
	assert.Equal(t, model.KindDownloadable, app.conv.Backend())
	assert.Equal(t, []model.BackendKind{model.KindDownloadable}, saved)
	assert.True(t, strings.HasPrefix(app.View(), AssistantStyle.Render("logchat")))
}

func TestAppHelpToggle(t *testing.T) {
	app := newTestApp(t, &stubBackend{kind: model.KindOnDevice}, nil)

	app = send(t, app, tea.KeyMsg{Type: tea.KeyF1})
	assert.Contains(t, app.View(), "Keyboard Shortcuts")

	app = send(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.NotContains(t, app.View(), "Keyboard Shortcuts")
}

func TestLastAnswer(t *testing.T) {
	history := []model.Message{
		model.NewMessage(model.RoleModel, "welcome"),
		model.NewMessage(model.RoleUser, "q"),
		model.NewMessage(model.RoleModel, "answer"),
		model.NewWarningMessage("careful"),
		model.NewErrorMessage("boom"),
	}
	text, ok := lastAnswer(history)
	assert.True(t, ok)
	assert.Equal(t, "answer", text)

	_, ok = lastAnswer(history[:2])
	assert.False(t, ok)
}

// Package agent runs conversations about the log corpus: it owns the
// message history, chooses a backend, drives the bounded tool-calling loop
// and turns every failure into a conversation message.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"logchat/config"
	"logchat/model"
	"logchat/provider"
	"logchat/ratelimit"
	"logchat/tools"
)

// MaxSteps bounds the inference steps of one turn.
const MaxSteps = 10

// ErrBusy is returned when an operation is attempted while a turn runs.
var ErrBusy = errors.New("a turn is already in progress")

// PromptReason is the precondition a pending prompt waits for.
type PromptReason string

const (
	ReasonCredential PromptReason = "credential"
	ReasonConsent    PromptReason = "consent"
	ReasonDownload   PromptReason = "download"
)

// PendingPrompt is a prompt held back until its precondition is met.
type PendingPrompt struct {
	Prompt string
	Reason PromptReason
}

// Optional backend capabilities.
type (
	admitter interface {
		Admit(requested string) (ratelimit.Admission, error)
	}
	tierLister interface {
		Tiers() []ratelimit.Tier
	}
	preparer interface {
		Prepare(ctx context.Context, progress func(string)) error
	}
	readier interface {
		Ready() error
	}
)

// Options configure a Conversation. Only Backends is required.
type Options struct {
	Backends map[model.BackendKind]model.Backend
	Backend  model.BackendKind // defaults to KindHosted
	Tier     string            // defaults to the first hosted tier

	Corpus    model.Corpus
	Daemons   model.DaemonLister
	Filters   model.FilterSink
	Navigator model.Navigator
	Findings  model.FindingsReader

	Credentials model.CredentialStore
	Consent     model.ConsentStore

	// Advisor answers suggest_solution. It is skipped while it reports
	// itself not ready.
	Advisor tools.Advisor

	// OnUpdate is called after history or progress changes, outside any lock.
	OnUpdate func()
}

// Conversation is one conversation with the assistant. A single turn runs
// at a time; the read methods are safe to call from other goroutines.
type Conversation struct {
	opts    Options
	engine  *tools.Engine
	machine *StateMachine

	mu       sync.Mutex
	history  []model.Message
	busy     bool
	progress string
	pending  *PendingPrompt
	backend  model.BackendKind
	tier     string
}

// NewConversation creates a conversation that starts with WelcomeMessage.
func NewConversation(opts Options) (*Conversation, error) {
	if len(opts.Backends) == 0 {
		return nil, fmt.Errorf("at least one backend is required")
	}
	if opts.Backend == "" {
		opts.Backend = model.KindHosted
	}
	if _, ok := opts.Backends[opts.Backend]; !ok {
		return nil, fmt.Errorf("backend %q is not configured", opts.Backend)
	}

	c := &Conversation{
		opts: opts,
		engine: tools.NewEngine(tools.Deps{
			Corpus:    opts.Corpus,
			Daemons:   opts.Daemons,
			Filters:   opts.Filters,
			Navigator: opts.Navigator,
		}),
		machine: NewStateMachine(),
		history: []model.Message{model.NewMessage(model.RoleModel, WelcomeMessage)},
		backend: opts.Backend,
		tier:    opts.Tier,
	}

	if c.tier == "" {
		if tiers := c.Tiers(); len(tiers) > 0 {
			c.tier = tiers[0].Name
		}
	} else if err := c.checkTier(c.tier); err != nil {
		return nil, err
	}
	return c, nil
}

// History returns a copy of the message history.
func (c *Conversation) History() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Message, len(c.history))
	copy(out, c.history)
	return out
}

// Busy reports whether a turn is running.
func (c *Conversation) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Progress returns the current loading status, or "".
func (c *Conversation) Progress() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// Pending returns the prompt awaiting a precondition, if any.
func (c *Conversation) Pending() *PendingPrompt {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil
	}
	p := *c.pending
	return &p
}

// State returns the state machine's current state.
func (c *Conversation) State() model.ConversationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.State()
}

// Backend returns the selected backend kind.
func (c *Conversation) Backend() model.BackendKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend
}

// Tier returns the requested hosted tier.
func (c *Conversation) Tier() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tier
}

// Tiers lists the hosted tiers, if the hosted backend has any.
func (c *Conversation) Tiers() []ratelimit.Tier {
	if tl, ok := c.opts.Backends[model.KindHosted].(tierLister); ok {
		return tl.Tiers()
	}
	return nil
}

// Submit runs one turn for prompt. Provider and tool failures become
// messages; the only errors returned are ErrBusy and context errors.
// A new prompt discards any pending one. Blank prompts are ignored.
func (c *Conversation) Submit(ctx context.Context, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	c.pending = nil
	c.history = append(c.history, model.NewMessage(model.RoleUser, prompt))
	c.mu.Unlock()
	c.notify()

	defer c.finish()
	return c.runTurn(ctx, prompt)
}

// SetCredential stores the hosted API key. A prompt that was waiting for
// it is sent once.
func (c *Conversation) SetCredential(ctx context.Context, key string) error {
	if c.opts.Credentials == nil {
		return fmt.Errorf("no credential store configured")
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	if err := c.opts.Credentials.SetCredential(key); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to save API key: %w", err)
	}
	pending := c.pending
	if pending == nil || pending.Reason != ReasonCredential {
		c.mu.Unlock()
		return nil
	}
	c.pending = nil
	c.busy = true
	c.mu.Unlock()

	config.DebugLog.Infof("[Agent] Credential set, resubmitting pending prompt")
	defer c.finish()
	return c.runTurn(ctx, pending.Prompt)
}

// GrantConsent records consent, downloads and loads the local model with
// progress, then sends the prompt that was waiting for it.
func (c *Conversation) GrantConsent(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	pending := c.pending
	if pending != nil && pending.Reason == ReasonConsent {
		pending.Reason = ReasonDownload
	}
	c.mu.Unlock()
	defer c.finish()

	if c.opts.Consent != nil {
		if err := c.opts.Consent.SetConsent(true); err != nil {
			c.appendMessage(model.NewErrorMessage(fmt.Sprintf(msgConsentSaveError, err)))
			return nil
		}
	}

	if err := c.prepare(ctx, c.opts.Backends[model.KindDownloadable]); err != nil {
		return err
	}

	c.mu.Lock()
	if c.pending != pending || pending == nil || pending.Reason != ReasonDownload {
		c.mu.Unlock()
		return nil
	}
	c.pending = nil
	c.mu.Unlock()

	return c.runTurn(ctx, pending.Prompt)
}

// DeclineConsent discards a prompt waiting for consent.
func (c *Conversation) DeclineConsent() error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	pending := c.pending
	if pending != nil && pending.Reason == ReasonConsent {
		c.pending = nil
	}
	c.mu.Unlock()

	if c.opts.Consent != nil {
		if err := c.opts.Consent.SetConsent(false); err != nil {
			config.DebugLog.Warnf("[Agent] Failed to persist declined consent: %v", err)
		}
	}
	if pending != nil && pending.Reason == ReasonConsent {
		c.appendMessage(model.NewWarningMessage(msgConsentDeclined))
	}
	return nil
}

// SelectBackend switches the backend used by later turns.
func (c *Conversation) SelectBackend(kind model.BackendKind) error {
	if _, ok := c.opts.Backends[kind]; !ok {
		return fmt.Errorf("backend %q is not configured", kind)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.backend = kind
	config.DebugLog.Infof("[Agent] Selected backend %s", kind)
	return nil
}

// SelectTier changes the hosted tier requested by later turns.
func (c *Conversation) SelectTier(name string) error {
	if err := c.checkTier(name); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.tier = name
	return nil
}

func (c *Conversation) checkTier(name string) error {
	tiers := c.Tiers()
	if len(tiers) == 0 {
		return nil
	}
	for _, t := range tiers {
		if t.Name == name {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ratelimit.ErrUnknownTier, name)
}

// Close tears the conversation down, ending any on-device session.
func (c *Conversation) Close() error {
	var errs []error
	for kind, b := range c.opts.Backends {
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s backend: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}

// runTurn assumes the user message for prompt is already in history.
func (c *Conversation) runTurn(ctx context.Context, prompt string) error {
	c.mu.Lock()
	c.machine.Reset()
	kind, requested := c.backend, c.tier
	c.mu.Unlock()

	backend := c.opts.Backends[kind]
	if backend == nil {
		c.appendMessage(model.NewErrorMessage(fmt.Sprintf(msgNoBackend, kind)))
		return nil
	}

	if err := backend.Ready(); err != nil {
		ok, err := c.satisfy(ctx, backend, prompt, err)
		if !ok {
			return err
		}
	}

	var tier string
	if a, ok := backend.(admitter); ok {
		adm, err := a.Admit(requested)
		if err != nil {
			config.DebugLog.Warnf("[Agent] Admission rejected for tier %s: %v", requested, err)
			if errors.Is(err, ratelimit.ErrSaturated) {
				c.appendMessage(model.NewErrorMessage(msgBackpressure))
			} else {
				c.appendMessage(model.NewErrorMessage(msgGenericFailure))
			}
			return nil
		}
		if adm.Degraded() {
			c.appendMessage(model.NewWarningMessage(degradedNotice(requested, adm.Tier.Name)))
		}
		tier = adm.Tier.Name
	}

	c.engine.SetAdvisor(c.advisor())
	return c.loop(ctx, backend, tier)
}

// satisfy handles a backend precondition error. It returns true when the
// turn can continue.
func (c *Conversation) satisfy(ctx context.Context, backend model.Backend, prompt string, cause error) (bool, error) {
	switch {
	case errors.Is(cause, provider.ErrMissingCredential):
		c.setPending(prompt, ReasonCredential)
		c.appendMessage(model.NewWarningMessage(msgNeedCredential))
		return false, nil

	case errors.Is(cause, provider.ErrConsentRequired):
		c.setPending(prompt, ReasonConsent)
		c.appendMessage(model.NewWarningMessage(msgNeedConsent))
		return false, nil

	case errors.Is(cause, provider.ErrRuntimeNotReady):
		// Consent was given earlier; fetch the model now.
		c.setPending(prompt, ReasonDownload)
		if err := c.prepare(ctx, backend); err != nil {
			return false, err
		}
		if c.Pending() == nil {
			return false, nil
		}
		c.clearPending()
		if err := backend.Ready(); err != nil {
			c.appendMessage(model.NewErrorMessage(fmt.Sprintf(msgRuntimeNotReady, err)))
			return false, nil
		}
		return true, nil

	default:
		config.DebugLog.Errorf("[Agent] Backend not ready: %v", cause)
		c.appendMessage(model.NewErrorMessage(msgGenericFailure))
		return false, nil
	}
}

// prepare runs a backend's download step with progress. A failure is
// reported as a message and clears the pending prompt; only context errors
// are returned.
func (c *Conversation) prepare(ctx context.Context, backend model.Backend) error {
	p, ok := backend.(preparer)
	if !ok {
		return nil
	}

	err := p.Prepare(ctx, c.setProgress)
	c.setProgress("")
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	config.DebugLog.Errorf("[Agent] Prepare failed: %v", err)
	c.clearPending()
	c.appendMessage(model.NewErrorMessage(fmt.Sprintf(msgPrepareFailed, err)))
	return nil
}

// loop drives up to MaxSteps inference steps.
func (c *Conversation) loop(ctx context.Context, backend model.Backend, tier string) error {
	transcript := c.providerHistory()
	entries, daemons, findings := c.turnContext()

	for step := 1; step <= MaxSteps; step++ {
		c.mu.Lock()
		state := c.machine.State()
		c.mu.Unlock()

		result, err := backend.Step(ctx, model.StepRequest{
			System:   buildSystemPrompt(entries, daemons, findings, state),
			Messages: transcript,
			Tools:    tools.Available(state),
			Tier:     tier,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			c.reportStepError(err)
			return nil
		}

		if len(result.ToolCalls) == 0 {
			c.mu.Lock()
			c.machine.FinalAnswer()
			c.mu.Unlock()
			c.appendMessage(model.NewMessage(model.RoleModel, result.Text))
			config.DebugLog.Debugf("[Agent] Final answer after %d step(s)", step)
			return nil
		}

		if len(result.ToolCalls) > 1 {
			config.DebugLog.Debugf("[Agent] Step proposed %d tool calls, executing the first", len(result.ToolCalls))
		}
		call := result.ToolCalls[0]
		toolResult := c.execute(ctx, state, call)

		c.mu.Lock()
		c.machine.Observe(call.Name, toolResult)
		c.mu.Unlock()

		transcript = append(transcript,
			model.ChatMessage{Role: model.ChatRoleAssistant, ToolCall: &call},
			model.ChatMessage{Role: model.ChatRoleTool, ToolName: call.Name, Content: toolResult.JSON()},
		)
	}

	config.DebugLog.Warnf("[Agent] Step limit of %d reached without a final answer", MaxSteps)
	return nil
}

// execute runs call unless it is declared but not offered in state.
func (c *Conversation) execute(ctx context.Context, state model.ConversationState, call model.ToolCall) model.ToolResult {
	if _, declared := tools.Lookup(call.Name); declared && !tools.IsAvailable(state, call.Name) {
		return tools.Unavailable(call.Name, state)
	}
	return c.engine.Execute(ctx, call)
}

func (c *Conversation) reportStepError(err error) {
	var rl *provider.RateLimitError
	switch {
	case errors.As(err, &rl):
		config.DebugLog.Warnf("[Agent] Rate limited by %s: %v", rl.Provider, err)
		c.appendMessage(model.NewErrorMessage(rateLimitedNotice(rl.RetryAfter)))
	case errors.Is(err, ratelimit.ErrSaturated):
		c.appendMessage(model.NewErrorMessage(msgBackpressure))
	case errors.Is(err, provider.ErrRuntimeNotReady):
		c.appendMessage(model.NewErrorMessage(fmt.Sprintf(msgRuntimeNotReady, err)))
	default:
		config.DebugLog.Errorf("[Agent] Step failed: %v", err)
		c.appendMessage(model.NewErrorMessage(msgGenericFailure))
	}
}

// providerHistory converts the visible history into transcript entries.
// The welcome message, errors and warnings are not part of it.
func (c *Conversation) providerHistory() []model.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.ChatMessage, 0, len(c.history))
	for i, m := range c.history {
		if i == 0 || m.IsError || m.IsWarning {
			continue
		}
		role := model.ChatRoleUser
		if m.Role == model.RoleModel {
			role = model.ChatRoleAssistant
		}
		out = append(out, model.ChatMessage{Role: role, Content: m.Text})
	}
	return out
}

// turnContext gathers what the system prompt describes. It is read once per turn.
func (c *Conversation) turnContext() ([]model.LogEntry, []string, []string) {
	var entries []model.LogEntry
	if c.opts.Corpus != nil {
		entries = c.opts.Corpus.Snapshot()
	}
	var daemons []string
	if c.opts.Daemons != nil {
		daemons = c.opts.Daemons.Daemons()
	}
	var findings []string
	if c.opts.Findings != nil {
		f, err := c.opts.Findings.Findings()
		if err != nil {
			config.DebugLog.Warnf("[Agent] Failed to read findings: %v", err)
		}
		findings = f
	}
	return entries, daemons, findings
}

func (c *Conversation) advisor() tools.Advisor {
	a := c.opts.Advisor
	if a == nil {
		return nil
	}
	if r, ok := a.(readier); ok && r.Ready() != nil {
		return nil
	}
	return a
}

func (c *Conversation) appendMessage(m model.Message) {
	c.mu.Lock()
	c.history = append(c.history, m)
	c.mu.Unlock()
	c.notify()
}

func (c *Conversation) setProgress(s string) {
	c.mu.Lock()
	c.progress = s
	c.mu.Unlock()
	c.notify()
}

func (c *Conversation) setPending(prompt string, reason PromptReason) {
	c.mu.Lock()
	c.pending = &PendingPrompt{Prompt: prompt, Reason: reason}
	c.mu.Unlock()
}

func (c *Conversation) clearPending() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
}

func (c *Conversation) finish() {
	c.mu.Lock()
	c.busy = false
	c.progress = ""
	c.mu.Unlock()
	c.notify()
}

func (c *Conversation) notify() {
	if c.opts.OnUpdate != nil {
		c.opts.OnUpdate()
	}
}

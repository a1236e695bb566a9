package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"logchat/config"
	"logchat/model"
	"logchat/ollama"
)

// LocalRuntime is the model server used by the on-device and downloadable
// backends. *ollama.Client implements it.
type LocalRuntime interface {
	GetModel() string
	Ping(ctx context.Context) error
	HasModel(ctx context.Context) (bool, error)
	Pull(ctx context.Context, progress ollama.PullProgress) error
	Load(ctx context.Context, keepAlive time.Duration) error
	Unload(ctx context.Context) error
}

const unloadTimeout = 5 * time.Second

// OnDeviceBackend talks to a model already present on the machine. The
// session is opened on the first step and reused until Close. It is never
// offered tools.
type OnDeviceBackend struct {
	mu        sync.Mutex
	runtime   LocalRuntime
	chat      model.ChatClient
	keepAlive time.Duration
	open      bool
}

func NewOnDeviceBackend(runtime LocalRuntime, chat model.ChatClient, keepAlive time.Duration) *OnDeviceBackend {
	return &OnDeviceBackend{runtime: runtime, chat: chat, keepAlive: keepAlive}
}

func (b *OnDeviceBackend) Kind() model.BackendKind {
	return model.KindOnDevice
}

func (b *OnDeviceBackend) Ready() error {
	return nil
}

// Open loads the model if no session is open yet.
func (b *OnDeviceBackend) Open(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.openLocked(ctx)
}

func (b *OnDeviceBackend) openLocked(ctx context.Context) error {
	if b.open {
		return nil
	}

	if err := b.runtime.Ping(ctx); err != nil {
		return fmt.Errorf("%w: Ollama is not reachable: %v", ErrRuntimeNotReady, err)
	}
	present, err := b.runtime.HasModel(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRuntimeNotReady, err)
	}
	if !present {
		return fmt.Errorf("%w: model %s is not installed", ErrRuntimeNotReady, b.runtime.GetModel())
	}
	if err := b.runtime.Load(ctx, b.keepAlive); err != nil {
		return fmt.Errorf("%w: %v", ErrRuntimeNotReady, err)
	}

	b.open = true
	config.DebugLog.Infof("[OnDevice] Opened session on %s", b.runtime.GetModel())
	return nil
}

// Step drops any tools from req.
func (b *OnDeviceBackend) Step(ctx context.Context, req model.StepRequest) (*model.StepResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.openLocked(ctx); err != nil {
		return nil, err
	}

	req.Tools = nil
	result, err := collect(ctx, b.chat, req)
	if err != nil {
		return nil, ClassifyError("Ollama", err)
	}
	// Tool calls were not offered; a model that emits them anyway is ignored.
	result.ToolCalls = nil
	return result, nil
}

// Close unloads the model if a session is open.
func (b *OnDeviceBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return nil
	}
	b.open = false

	ctx, cancel := context.WithTimeout(context.Background(), unloadTimeout)
	defer cancel()
	if err := b.runtime.Unload(ctx); err != nil {
		config.DebugLog.Warnf("[OnDevice] Unload failed: %v", err)
		return err
	}
	config.DebugLog.Infof("[OnDevice] Closed session on %s", b.runtime.GetModel())
	return nil
}

// DownloadableBackend runs a model that is pulled on demand. The user must
// consent to the download, and Prepare must complete, before any step.
type DownloadableBackend struct {
	mu        sync.Mutex
	runtime   LocalRuntime
	chat      model.ChatClient
	consent   model.ConsentStore
	keepAlive time.Duration
	ready     bool
}

func NewDownloadableBackend(runtime LocalRuntime, chat model.ChatClient, consent model.ConsentStore, keepAlive time.Duration) *DownloadableBackend {
	return &DownloadableBackend{runtime: runtime, chat: chat, consent: consent, keepAlive: keepAlive}
}

func (b *DownloadableBackend) Kind() model.BackendKind {
	return model.KindDownloadable
}

// Ready returns ErrConsentRequired before consent and ErrRuntimeNotReady
// until Prepare has succeeded.
func (b *DownloadableBackend) Ready() error {
	if !b.consent.Consented() {
		return ErrConsentRequired
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.ready {
		return ErrRuntimeNotReady
	}
	return nil
}

// Prepare downloads the model if needed and marks the backend ready.
// progress receives human-readable status lines and may be nil.
func (b *DownloadableBackend) Prepare(ctx context.Context, progress func(string)) error {
	if !b.consent.Consented() {
		return ErrConsentRequired
	}
	if progress == nil {
		progress = func(string) {}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ready {
		return nil
	}

	progress("Checking for model...")
	if err := b.runtime.Ping(ctx); err != nil {
		return fmt.Errorf("Ollama is not reachable: %w", err)
	}
	present, err := b.runtime.HasModel(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for model %s: %w", b.runtime.GetModel(), err)
	}

	if !present {
		config.DebugLog.Infof("[Downloadable] Pulling %s", b.runtime.GetModel())
		last := -1
		err := b.runtime.Pull(ctx, func(status string, completed, total int64) {
			if total <= 0 {
				return
			}
			pct := int(completed * 100 / total)
			if pct != last {
				last = pct
				progress(FormatDownloadProgress(completed, total))
			}
		})
		if err != nil {
			return err
		}
	}

	progress("Loading model...")
	if err := b.runtime.Load(ctx, b.keepAlive); err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	b.ready = true
	progress("Model ready")
	return nil
}

// FormatDownloadProgress renders a pull progress update.
func FormatDownloadProgress(completed, total int64) string {
	if total <= 0 {
		return "Downloading model..."
	}
	return fmt.Sprintf("Downloading model: %d%%", completed*100/total)
}

// Step offers tools only when the model family is known to support them.
func (b *DownloadableBackend) Step(ctx context.Context, req model.StepRequest) (*model.StepResult, error) {
	if err := b.Ready(); err != nil {
		return nil, err
	}

	if len(req.Tools) > 0 && !ollama.ModelSupportsToolCalling(b.runtime.GetModel()) {
		config.DebugLog.Warnf("[Downloadable] %s does not support tools, sending none", b.runtime.GetModel())
		req.Tools = nil
	}

	result, err := collect(ctx, b.chat, req)
	if err != nil {
		return nil, ClassifyError("Ollama", err)
	}
	return result, nil
}

// Close unloads the model if it was prepared.
func (b *DownloadableBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.ready {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), unloadTimeout)
	defer cancel()
	if err := b.runtime.Unload(ctx); err != nil && !errors.Is(err, context.Canceled) {
		config.DebugLog.Warnf("[Downloadable] Unload failed: %v", err)
		return err
	}
	return nil
}

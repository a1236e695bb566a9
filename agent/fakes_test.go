package agent

import (
	"context"
	"sync"

	"logchat/model"
)

type stepOutcome struct {
	result *model.StepResult
	err    error
}

func answer(text string) stepOutcome {
	return stepOutcome{result: &model.StepResult{Text: text}}
}

func callTool(name string, args map[string]any) stepOutcome {
	return stepOutcome{result: &model.StepResult{ToolCalls: []model.ToolCall{{Name: name, Arguments: args}}}}
}

func failWith(err error) stepOutcome {
	return stepOutcome{err: err}
}

// scriptedBackend replays outcomes in order; the last one repeats.
type scriptedBackend struct {
	kind     model.BackendKind
	readyErr error
	block    chan struct{} // when set, Step waits for it to close

	mu       sync.Mutex
	outcomes []stepOutcome
	requests []model.StepRequest
	closed   int
	started  chan struct{}
}

func newScripted(outcomes ...stepOutcome) *scriptedBackend {
	return &scriptedBackend{kind: model.KindOnDevice, outcomes: outcomes}
}

func (b *scriptedBackend) Kind() model.BackendKind { return b.kind }

func (b *scriptedBackend) Ready() error { return b.readyErr }

func (b *scriptedBackend) Step(ctx context.Context, req model.StepRequest) (*model.StepResult, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	i := len(b.requests) - 1
	if i >= len(b.outcomes) {
		i = len(b.outcomes) - 1
	}
	out := b.outcomes[i]
	started := b.started
	b.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if b.block != nil {
		select {
		case <-b.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out.result, out.err
}

func (b *scriptedBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed++
	return nil
}

func (b *scriptedBackend) Requests() []model.StepRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.StepRequest(nil), b.requests...)
}

type sliceCorpus []model.LogEntry

func (c sliceCorpus) Snapshot() []model.LogEntry { return c }

type daemonList []string

func (d daemonList) Daemons() []string { return d }

type findingsList []string

func (f findingsList) Findings() ([]string, error) { return f, nil }

type recordingNavigator struct {
	mu  sync.Mutex
	ids []string
}

func (n *recordingNavigator) ScrollTo(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, id)
}

type advisorFunc func(ctx context.Context, prompt string) (string, error)

func (f advisorFunc) Advise(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func texts(messages []model.Message) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.Text
	}
	return out
}

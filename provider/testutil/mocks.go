package testutil

import (
	"context"
	"sync"
	"time"

	"logchat/model"
	"logchat/ollama"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// MockChatClient implements model.ChatClient for testing.
type MockChatClient struct {
	// Configurable responses
	ChatFunc          func(ctx context.Context, messages []model.ChatMessage, callback model.StreamCallback) error
	ChatWithToolsFunc func(ctx context.Context, messages []model.ChatMessage, tools []mcptypes.Tool, callback model.StreamCallback) error

	mu           sync.Mutex
	currentModel string
	models       []string // every model a request was sent to
	lastMessages []model.ChatMessage
	lastTools    []mcptypes.Tool
}

// NewMockChatClient creates a mock client that answers "Mock response".
func NewMockChatClient(modelName string) *MockChatClient {
	mock := &MockChatClient{currentModel: modelName}
	mock.ChatFunc = func(ctx context.Context, messages []model.ChatMessage, callback model.StreamCallback) error {
		return callback("Mock response", nil)
	}
	mock.ChatWithToolsFunc = func(ctx context.Context, messages []model.ChatMessage, tools []mcptypes.Tool, callback model.StreamCallback) error {
		return callback("Mock response with tools", nil)
	}
	return mock
}

// Respond makes both chat calls reply with text and tool calls.
func (m *MockChatClient) Respond(text string, calls ...model.ToolCall) *MockChatClient {
	reply := func(callback model.StreamCallback) error {
		if len(calls) > 0 {
			return callback(text, calls)
		}
		return callback(text, nil)
	}
	m.ChatFunc = func(ctx context.Context, messages []model.ChatMessage, callback model.StreamCallback) error {
		return reply(callback)
	}
	m.ChatWithToolsFunc = func(ctx context.Context, messages []model.ChatMessage, tools []mcptypes.Tool, callback model.StreamCallback) error {
		return reply(callback)
	}
	return m
}

// Fail makes both chat calls return err.
func (m *MockChatClient) Fail(err error) *MockChatClient {
	m.ChatFunc = func(ctx context.Context, messages []model.ChatMessage, callback model.StreamCallback) error {
		return err
	}
	m.ChatWithToolsFunc = func(ctx context.Context, messages []model.ChatMessage, tools []mcptypes.Tool, callback model.StreamCallback) error {
		return err
	}
	return m
}

func (m *MockChatClient) record(messages []model.ChatMessage, tools []mcptypes.Tool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models = append(m.models, m.currentModel)
	m.lastMessages = messages
	m.lastTools = tools
}

func (m *MockChatClient) Chat(ctx context.Context, messages []model.ChatMessage, callback model.StreamCallback) error {
	m.record(messages, nil)
	return m.ChatFunc(ctx, messages, callback)
}

func (m *MockChatClient) ChatWithTools(ctx context.Context, messages []model.ChatMessage, tools []mcptypes.Tool, callback model.StreamCallback) error {
	m.record(messages, tools)
	return m.ChatWithToolsFunc(ctx, messages, tools, callback)
}

func (m *MockChatClient) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentModel
}

func (m *MockChatClient) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentModel = model
}

// Models returns the model used for each request, in order.
func (m *MockChatClient) Models() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.models...)
}

// LastRequest returns the messages and tools of the most recent request.
func (m *MockChatClient) LastRequest() ([]model.ChatMessage, []mcptypes.Tool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastMessages, m.lastTools
}

// MockRuntime implements provider.LocalRuntime for testing.
type MockRuntime struct {
	Model string

	PingFunc     func(ctx context.Context) error
	HasModelFunc func(ctx context.Context) (bool, error)
	PullFunc     func(ctx context.Context, progress ollama.PullProgress) error
	LoadFunc     func(ctx context.Context, keepAlive time.Duration) error
	UnloadFunc   func(ctx context.Context) error

	mu      sync.Mutex
	loads   int
	unloads int
	pulls   int
}

// NewMockRuntime creates a runtime that already has modelName installed.
func NewMockRuntime(modelName string) *MockRuntime {
	return &MockRuntime{
		Model:        modelName,
		PingFunc:     func(ctx context.Context) error { return nil },
		HasModelFunc: func(ctx context.Context) (bool, error) { return true, nil },
		PullFunc:     func(ctx context.Context, progress ollama.PullProgress) error { return nil },
		LoadFunc:     func(ctx context.Context, keepAlive time.Duration) error { return nil },
		UnloadFunc:   func(ctx context.Context) error { return nil },
	}
}

func (r *MockRuntime) GetModel() string { return r.Model }

func (r *MockRuntime) Ping(ctx context.Context) error {
	return r.PingFunc(ctx)
}

func (r *MockRuntime) HasModel(ctx context.Context) (bool, error) {
	return r.HasModelFunc(ctx)
}

func (r *MockRuntime) Pull(ctx context.Context, progress ollama.PullProgress) error {
	r.mu.Lock()
	r.pulls++
	r.mu.Unlock()
	return r.PullFunc(ctx, progress)
}

func (r *MockRuntime) Load(ctx context.Context, keepAlive time.Duration) error {
	r.mu.Lock()
	r.loads++
	r.mu.Unlock()
	return r.LoadFunc(ctx, keepAlive)
}

func (r *MockRuntime) Unload(ctx context.Context) error {
	r.mu.Lock()
	r.unloads++
	r.mu.Unlock()
	return r.UnloadFunc(ctx)
}

// Counts returns how many times Pull, Load and Unload were called.
func (r *MockRuntime) Counts() (pulls, loads, unloads int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pulls, r.loads, r.unloads
}

// MockCredentials implements model.CredentialStore in memory.
type MockCredentials struct {
	mu  sync.Mutex
	Key string
	Err error // returned by SetCredential when set
}

func (c *MockCredentials) Credential() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Key
}

func (c *MockCredentials) SetCredential(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.Key = key
	return nil
}

// MockConsent implements model.ConsentStore in memory.
type MockConsent struct {
	mu      sync.Mutex
	Granted bool
}

func (c *MockConsent) Consented() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Granted
}

func (c *MockConsent) SetConsent(granted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Granted = granted
	return nil
}

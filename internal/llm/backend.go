// Package llm provides LLM backends for the 9P filesystem.
package llm

import "context"

// Backend defines the interface the llmfs file nodes program against. The
// Anthropic-backed Client is the only implementation shipped; the interface
// exists so llmfs and tests can swap in a mock.
type Backend interface {
	// Model returns the current model name
	Model() string
	// SetModel sets the model for subsequent requests
	SetModel(model string)
	// Temperature returns the current temperature
	Temperature() float64
	// SetTemperature sets the temperature (0.0-2.0)
	SetTemperature(temp float64) error
	// ThinkingTokens returns the current thinking token budget
	ThinkingTokens() int
	// SetThinkingTokens sets the thinking token budget
	SetThinkingTokens(tokens int)
	// Prefill returns the assistant-response prefill string
	Prefill() string
	// SetPrefill sets the assistant-response prefill string
	SetPrefill(prefill string)
	// LastTokens returns token count from last response
	LastTokens() int
	// TotalTokens returns the cumulative token count for this conversation
	TotalTokens() int
	// ContextLimit returns the model's context window size
	ContextLimit() int
	// Messages returns conversation history
	Messages() []Message
	// MessagesJSON returns conversation history as JSON
	MessagesJSON() ([]byte, error)
	// AddSystemMessage adds a system message
	AddSystemMessage(content string)
	// Reset clears conversation history
	Reset()
	// Compact summarizes the conversation to reduce token usage
	Compact(ctx context.Context) error
	// Ask sends a prompt and returns the response (blocking), mutating the
	// backend's own conversation history
	Ask(ctx context.Context, prompt string) (string, error)
	// AskWithHistory sends a prompt against an explicit history instead of
	// the backend's own, returning the response and its token count without
	// mutating shared state. Used by SessionManager for per-fid isolation.
	AskWithHistory(ctx context.Context, history []Message, prompt string) (string, int, error)
	// StartStream begins streaming a response
	StartStream(ctx context.Context, prompt string) error
	// ReadStreamChunk reads the next streaming chunk
	ReadStreamChunk() (string, bool)
	// IsStreaming returns whether a stream is in progress
	IsStreaming() bool
	// WaitStream waits for stream to complete
	WaitStream()
}

// Verify that Client implements Backend
var _ Backend = (*Client)(nil)

package core

import (
	"context"
	"encoding/json"
)

// RawClient is implemented by provider adapters.
type RawClient interface {
	Call(ctx context.Context, params CallParams) (RawResponse, error)
}

// ToolChoiceAuto lets the model decide whether to call a tool.
const ToolChoiceAuto = "auto"

type CallParams struct {
	Model       string
	Messages    []Message
	ToolDefs    []ToolDef
	ToolChoice  string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// Message is one conversational message in provider-neutral form.
// An assistant message that requested tools carries ToolCalls; the answers to
// those calls travel as ToolResults.
type Message struct {
	Role        string
	Content     string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// ToolDef describes a tool in a provider-agnostic form.
// JSONSchema is a JSON Schema object describing the tool's arguments.
type ToolDef struct {
	Name        string
	Description string
	JSONSchema  string
}

type RawResponse struct {
	Content   string
	ToolCalls []ToolCall
	Usage     Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type ToolCall struct {
	CallID string
	Name   string
	Args   json.RawMessage
}

// ToolResult is the textual output of one tool invocation.
type ToolResult struct {
	CallID  string
	Name    string
	Content string
}

package weatherfc

import (
	"context"
)

// Tool is implemented by any callable function the model can invoke.
// Parameters must return a pointer to a zero-value struct for JSON schema generation and unmarshalling.
// Execute receives that pointer filled in and returns the text handed back to the model.
type Tool interface {
	Name() string
	Description() string
	Parameters() any
	Execute(ctx context.Context, args any) (string, error)
}

// MessageRole defines who authored a message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// SystemPrompt is the instruction sent ahead of every user message.
const SystemPrompt = "You are a helpful assistant. If the user asks about the weather, " +
	"you must use the 'get_weather' function to find the weather information. " +
	"Provide the location and optionally a date string. " +
	"If the user does not ask about weather, respond normally."

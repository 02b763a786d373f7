package agui

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleSystem    = "system"
)

// Message is one conversation entry carried between runs.
type Message struct {
	ID         string     `json:"id"`
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"`
}

// ToolCall is an assistant request to run a tool.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall holds the tool name and its raw JSON arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool advertises a frontend tool the agent may call.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ContextItem is free-form context handed to the agent.
type ContextItem struct {
	Description string `json:"description"`
	Value       string `json:"value"`
}

// RunAgentInput is the POST body of a run.
type RunAgentInput struct {
	ThreadID       string         `json:"threadId"`
	RunID          string         `json:"runId"`
	State          any            `json:"state"`
	Messages       []Message      `json:"messages"`
	Tools          []Tool         `json:"tools"`
	Context        []ContextItem  `json:"context"`
	ForwardedProps map[string]any `json:"forwardedProps"`
}

// NewRunInput builds an input with a fresh run id. Nil collections are
// replaced with empty ones so they serialize as [] and {}.
func NewRunInput(threadID string, state any, messages []Message, tools []Tool) RunAgentInput {
	if threadID == "" {
		threadID = uuid.NewString()
	}
	if messages == nil {
		messages = []Message{}
	}
	if tools == nil {
		tools = []Tool{}
	}
	return RunAgentInput{
		ThreadID:       threadID,
		RunID:          uuid.NewString(),
		State:          state,
		Messages:       messages,
		Tools:          tools,
		Context:        []ContextItem{},
		ForwardedProps: map[string]any{},
	}
}

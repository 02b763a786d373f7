package agui

import (
	"strings"

	"github.com/google/uuid"
)

// Transcript accumulates the conversation so every run carries history.
type Transcript struct {
	messages []Message
	index    map[string]int
	toolIdx  map[string]int
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{index: map[string]int{}, toolIdx: map[string]int{}}
}

// Messages returns a copy of the conversation.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	for i, m := range t.messages {
		m.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
		out[i] = m
	}
	return out
}

// Len reports the number of messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// AddUser appends a user message.
func (t *Transcript) AddUser(content string) Message {
	return t.add(Message{ID: uuid.NewString(), Role: RoleUser, Content: content})
}

// AddToolResult answers a tool call.
func (t *Transcript) AddToolResult(toolCallID, content string) Message {
	return t.add(Message{ID: uuid.NewString(), Role: RoleTool, Content: content, ToolCallID: toolCallID})
}

// ToolCall looks up a streamed tool call by id.
func (t *Transcript) ToolCall(id string) (ToolCall, bool) {
	pos, ok := t.toolIdx[id]
	if !ok {
		return ToolCall{}, false
	}
	for _, call := range t.messages[pos].ToolCalls {
		if call.ID == id {
			return call, true
		}
	}
	return ToolCall{}, false
}

// Message returns a message by id.
func (t *Transcript) Message(id string) (Message, bool) {
	pos, ok := t.index[id]
	if !ok {
		return Message{}, false
	}
	return t.messages[pos], true
}

// Apply folds a streamed event into the transcript. It reports whether the
// visible conversation changed.
func (t *Transcript) Apply(evt Event) bool {
	switch evt.Type {
	case EventTextMessageStart:
		role := evt.Role
		if role == "" {
			role = RoleAssistant
		}
		t.ensure(evt.MessageID, role)
		return true
	case EventTextMessageContent:
		pos := t.ensure(evt.MessageID, RoleAssistant)
		t.messages[pos].Content += evt.Text()
		return true
	case EventToolCallStart:
		parent := evt.ParentMessageID
		if parent == "" {
			parent = evt.ToolCallID
		}
		pos := t.ensure(parent, RoleAssistant)
		t.messages[pos].ToolCalls = append(t.messages[pos].ToolCalls, ToolCall{
			ID:       evt.ToolCallID,
			Type:     "function",
			Function: FunctionCall{Name: evt.ToolCallName},
		})
		t.toolIdx[evt.ToolCallID] = pos
		return true
	case EventToolCallArgs:
		pos, ok := t.toolIdx[evt.ToolCallID]
		if !ok {
			return false
		}
		calls := t.messages[pos].ToolCalls
		for i := range calls {
			if calls[i].ID == evt.ToolCallID {
				calls[i].Function.Arguments += evt.Text()
			}
		}
		return false
	case EventToolCallResult:
		id := evt.MessageID
		if id == "" {
			id = uuid.NewString()
		}
		if _, exists := t.index[id]; exists {
			return false
		}
		t.add(Message{ID: id, Role: RoleTool, Content: evt.Content, ToolCallID: evt.ToolCallID})
		return true
	case EventMessagesSnapshot:
		t.messages = nil
		t.index = map[string]int{}
		t.toolIdx = map[string]int{}
		for _, m := range evt.Messages {
			t.add(m)
		}
		return true
	}
	return false
}

func (t *Transcript) ensure(id, role string) int {
	if id == "" {
		id = uuid.NewString()
	}
	if pos, ok := t.index[id]; ok {
		return pos
	}
	t.add(Message{ID: id, Role: role})
	return t.index[id]
}

func (t *Transcript) add(m Message) Message {
	if strings.TrimSpace(m.ID) == "" {
		m.ID = uuid.NewString()
	}
	t.index[m.ID] = len(t.messages)
	t.messages = append(t.messages, m)
	for _, call := range m.ToolCalls {
		t.toolIdx[call.ID] = len(t.messages) - 1
	}
	return m
}

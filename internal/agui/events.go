// Package agui speaks the agent side of the AG-UI protocol: a run input is
// POSTed to the agent and a stream of typed events comes back over SSE.
package agui

import (
	"encoding/json"
	"fmt"
)

// EventType names one AG-UI event kind.
type EventType string

const (
	EventRunStarted         EventType = "RUN_STARTED"
	EventRunFinished        EventType = "RUN_FINISHED"
	EventRunError           EventType = "RUN_ERROR"
	EventTextMessageStart   EventType = "TEXT_MESSAGE_START"
	EventTextMessageContent EventType = "TEXT_MESSAGE_CONTENT"
	EventTextMessageEnd     EventType = "TEXT_MESSAGE_END"
	EventToolCallStart      EventType = "TOOL_CALL_START"
	EventToolCallArgs       EventType = "TOOL_CALL_ARGS"
	EventToolCallEnd        EventType = "TOOL_CALL_END"
	EventToolCallResult     EventType = "TOOL_CALL_RESULT"
	EventStateSnapshot      EventType = "STATE_SNAPSHOT"
	EventStateDelta         EventType = "STATE_DELTA"
	EventMessagesSnapshot   EventType = "MESSAGES_SNAPSHOT"
	EventCustom             EventType = "CUSTOM"
)

// Terminal reports whether the event ends a run.
func (t EventType) Terminal() bool {
	return t == EventRunFinished || t == EventRunError
}

// Event is the union of every field the supported event kinds carry. Only
// the fields relevant to Type are populated.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp,omitempty"`

	ThreadID string `json:"threadId,omitempty"`
	RunID    string `json:"runId,omitempty"`

	MessageID string `json:"messageId,omitempty"`
	Role      string `json:"role,omitempty"`
	// Delta is a JSON string for text and tool-argument chunks and a JSON
	// Patch array for STATE_DELTA.
	Delta json.RawMessage `json:"delta,omitempty"`

	ToolCallID      string `json:"toolCallId,omitempty"`
	ToolCallName    string `json:"toolCallName,omitempty"`
	ParentMessageID string `json:"parentMessageId,omitempty"`
	Content         string `json:"content,omitempty"`

	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`

	Snapshot json.RawMessage `json:"snapshot,omitempty"`
	Messages []Message       `json:"messages,omitempty"`

	Name  string          `json:"name,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Text returns Delta decoded as a string chunk. Non-string deltas yield "".
func (e Event) Text() string {
	if len(e.Delta) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Delta, &s); err != nil {
		return ""
	}
	return s
}

// RunError is returned by Client.Run when the agent reports RUN_ERROR.
type RunError struct {
	Message string
	Code    string
}

func (e *RunError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("agui: run error (%s): %s", e.Code, e.Message)
	}
	return "agui: run error: " + e.Message
}

// HTTPError is returned when the agent answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("agui: agent returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("agui: agent returned HTTP %d: %s", e.StatusCode, e.Body)
}

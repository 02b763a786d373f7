package todo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotArray is returned when the todos field is present but not a list.
var ErrNotArray = errors.New("todo: todos must be an array")

// ValidationError describes the first problem found in a snapshot.
type ValidationError struct {
	Index  int
	ID     string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("todo: todos[%d] (%s): %s", e.Index, e.ID, e.Reason)
	}
	return fmt.Sprintf("todo: todos[%d]: %s", e.Index, e.Reason)
}

// Validate checks the structural invariants of a snapshot: ids present and
// unique, titles non-empty, statuses known.
func (s State) Validate() error {
	seen := make(map[string]struct{}, len(s.Todos))
	for i, item := range s.Todos {
		if strings.TrimSpace(item.ID) == "" {
			return &ValidationError{Index: i, Reason: "id is required"}
		}
		if _, dup := seen[item.ID]; dup {
			return &ValidationError{Index: i, ID: item.ID, Reason: "duplicate id"}
		}
		seen[item.ID] = struct{}{}
		if strings.TrimSpace(item.Title) == "" {
			return &ValidationError{Index: i, ID: item.ID, Reason: "title is required"}
		}
		if !item.Status.Valid() {
			return &ValidationError{Index: i, ID: item.ID, Reason: fmt.Sprintf("unknown status %q", item.Status)}
		}
	}
	return nil
}

type wireItem struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
}

// Decode parses a snapshot received from outside the process. A missing or
// null todos field is an empty board; a missing status defaults to todo.
// The result is validated.
func Decode(data []byte) (State, error) {
	var envelope struct {
		Todos json.RawMessage `json:"todos"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return State{}, fmt.Errorf("todo: decode state: %w", err)
	}
	raw := strings.TrimSpace(string(envelope.Todos))
	if raw == "" || raw == "null" {
		return State{Todos: []Item{}}, nil
	}
	if !strings.HasPrefix(raw, "[") {
		return State{}, ErrNotArray
	}
	var items []wireItem
	if err := json.Unmarshal(envelope.Todos, &items); err != nil {
		return State{}, fmt.Errorf("todo: decode todos: %w", err)
	}
	state := State{Todos: make([]Item, 0, len(items))}
	for _, w := range items {
		item := Item{
			ID:     strings.TrimSpace(w.ID),
			Title:  strings.TrimSpace(w.Title),
			Status: Status(strings.TrimSpace(w.Status)),
		}
		if w.Description != nil {
			item.Description = strings.TrimSpace(*w.Description)
		}
		if item.Status == "" {
			item.Status = StatusTodo
		}
		state.Todos = append(state.Todos, item)
	}
	if err := state.Validate(); err != nil {
		return State{}, err
	}
	return state, nil
}

// EncodeWire renders s the way agents see it: every item carries a
// description key, null when the item has none.
func EncodeWire(s State) ([]byte, error) {
	items := make([]wireItem, 0, len(s.Todos))
	for _, item := range s.Todos {
		w := wireItem{ID: item.ID, Title: item.Title, Status: string(item.Status)}
		if item.Description != "" {
			desc := item.Description
			w.Description = &desc
		}
		items = append(items, w)
	}
	return json.Marshal(struct {
		Todos []wireItem `json:"todos"`
	}{items})
}

// Package todo holds the board's data model and the pure copy-on-write
// operations every writer (the board, agent tools, the bridge) shares.
package todo

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status names the lane an item lives in.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses returns the lanes in display order.
func Statuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusDone}
}

// Valid reports whether s is one of the three known lanes.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Title is the lane heading.
func (s Status) Title() string {
	switch s {
	case StatusTodo:
		return "Todo"
	case StatusInProgress:
		return "In-Progress"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// Toggled flips between done and todo. In-progress items become done.
func (s Status) Toggled() Status {
	if s == StatusDone {
		return StatusTodo
	}
	return StatusDone
}

// ParseStatus accepts the wire names plus a few forgiving spellings.
func ParseStatus(raw string) (Status, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.NewReplacer("_", "-", " ", "-").Replace(value)
	switch value {
	case "todo", "to-do":
		return StatusTodo, nil
	case "in-progress", "inprogress", "doing":
		return StatusInProgress, nil
	case "done", "complete", "completed":
		return StatusDone, nil
	}
	return "", fmt.Errorf("todo: unknown status %q", raw)
}

// Item is a single card on the board. An empty Description means the item
// has no description; it is omitted on the wire.
type Item struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status"`
}

// HasDescription reports whether the item carries a description.
func (i Item) HasDescription() bool {
	return strings.TrimSpace(i.Description) != ""
}

// State is one immutable snapshot of the shared board state.
type State struct {
	Todos []Item `json:"todos"`
}

// MarshalJSON always emits todos as an array, never null.
func (s State) MarshalJSON() ([]byte, error) {
	type wire State
	if s.Todos == nil {
		s.Todos = []Item{}
	}
	return json.Marshal(wire(s))
}

// Clone returns a snapshot that shares no backing array with s.
func (s State) Clone() State {
	out := make([]Item, len(s.Todos))
	copy(out, s.Todos)
	return State{Todos: out}
}

// Len returns the number of items.
func (s State) Len() int {
	return len(s.Todos)
}

// Find returns the item with the given id.
func (s State) Find(id string) (Item, bool) {
	for _, item := range s.Todos {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// Index returns the position of id, or -1.
func (s State) Index(id string) int {
	for i, item := range s.Todos {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Equal compares two snapshots element by element.
func (s State) Equal(other State) bool {
	if len(s.Todos) != len(other.Todos) {
		return false
	}
	for i := range s.Todos {
		if s.Todos[i] != other.Todos[i] {
			return false
		}
	}
	return true
}

// Counts tallies items per lane.
func (s State) Counts() map[Status]int {
	counts := make(map[Status]int, 3)
	for _, item := range s.Todos {
		counts[item.Status]++
	}
	return counts
}

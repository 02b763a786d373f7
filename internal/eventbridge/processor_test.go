package eventbridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/kingrea/todoboard/internal/statechan"
	"github.com/kingrea/todoboard/internal/todo"
)

func toolEvent(t *testing.T, name string, value any) Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"name": "tool:" + name, "value": value})
	if err != nil {
		t.Fatal(err)
	}
	return Event{Version: EventSchemaVersion, EventID: name, Type: "CUSTOM", Agent: "my_agent", Payload: raw}
}

func newProcessor(ch statechan.Channel, forwarded *[]Event) *StateProcessor {
	seq := 0
	return NewStateProcessor(ch,
		ProcessorWithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
		ProcessorWithNext(EventProcessorFunc(func(e Event) error {
			*forwarded = append(*forwarded, e)
			return nil
		})))
}

func TestProcessorRunsAgentTools(t *testing.T) {
	ch := seeded()
	var forwarded []Event
	p := newProcessor(ch, &forwarded)

	steps := []Event{
		toolEvent(t, ToolAddTodos, map[string]any{"titles": []string{"Write docs", "Ship"}, "statuses": []string{"in-progress"}}),
		toolEvent(t, ToolUpdateTodo, map[string]any{"id": "id-2", "status": "done", "description": "today"}),
		toolEvent(t, ToolDeleteTodos, map[string]any{"id": []string{"a"}}),
	}
	for _, evt := range steps {
		if err := p.HandleEvent(evt); err != nil {
			t.Fatalf("%s: %v", evt.EventID, err)
		}
	}
	got := ch.Read()
	want := todo.State{Todos: []todo.Item{
		{ID: "id-1", Title: "Write docs", Status: todo.StatusInProgress},
		{ID: "id-2", Title: "Ship", Description: "today", Status: todo.StatusDone},
	}}
	if !got.Equal(want) {
		t.Fatalf("got %+v, want %+v", got.Todos, want.Todos)
	}
	if len(forwarded) != 3 {
		t.Fatalf("forwarded %d events", len(forwarded))
	}
}

func TestProcessorSetTodosAndSnapshot(t *testing.T) {
	ch := seeded()
	var forwarded []Event
	p := newProcessor(ch, &forwarded)
	if err := p.HandleEvent(toolEvent(t, ToolSetTodos, map[string]any{"todos": []map[string]string{{"id": "x", "title": "Only"}}})); err != nil {
		t.Fatalf("set_todos: %v", err)
	}
	if got := ch.Read(); got.Len() != 1 || got.Todos[0].Status != todo.StatusTodo {
		t.Fatalf("set_todos result %+v", got)
	}
	delta := Event{Version: EventSchemaVersion, EventID: "d", Type: "STATE_DELTA", Agent: "my_agent",
		Payload: json.RawMessage(`[{"op":"replace","path":"/todos/0/title","value":"Renamed"}]`)}
	if err := p.HandleEvent(delta); err != nil {
		t.Fatalf("delta: %v", err)
	}
	if got := ch.Read(); got.Todos[0].Title != "Renamed" {
		t.Fatalf("delta not applied: %+v", got)
	}
}

func TestProcessorRejectsInvalidToolResult(t *testing.T) {
	ch := seeded()
	var forwarded []Event
	p := newProcessor(ch, &forwarded)
	before := ch.Read()
	err := p.HandleEvent(toolEvent(t, ToolAddTodos, map[string]any{"titles": []string{"  "}}))
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
	err = p.HandleEvent(toolEvent(t, ToolUpdateTodo, map[string]any{"id": "a", "status": "blocked"}))
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload for bad status, got %v", err)
	}
	if !ch.Read().Equal(before) || len(forwarded) != 0 {
		t.Fatalf("rejected events must not change or forward")
	}
}

func TestProcessorForwardsOtherEventsUntouched(t *testing.T) {
	ch := seeded()
	var forwarded []Event
	p := newProcessor(ch, &forwarded)
	before := ch.Revision()
	if err := p.HandleEvent(Event{EventID: "1", Type: "TEXT_MESSAGE_CONTENT", Agent: "my_agent"}); err != nil {
		t.Fatal(err)
	}
	custom, _ := json.Marshal(map[string]any{"name": "progress", "value": 1})
	if err := p.HandleEvent(Event{EventID: "2", Type: "CUSTOM", Agent: "my_agent", Payload: custom}); err != nil {
		t.Fatal(err)
	}
	if ch.Revision() != before || len(forwarded) != 2 {
		t.Fatalf("revision %d->%d forwarded %d", before, ch.Revision(), len(forwarded))
	}
}

func TestProcessorAddTodosDefaultsMissingStatuses(t *testing.T) {
	ch := statechan.NewLocal(todo.State{})
	var forwarded []Event
	p := newProcessor(ch, &forwarded)
	evt := toolEvent(t, ToolAddTodos, map[string]any{"titles": []string{"First", "Second", "Third"}, "statuses": []string{"done"}})
	if err := p.HandleEvent(evt); err != nil {
		t.Fatalf("add: %v", err)
	}
	got := ch.Read()
	want := todo.State{Todos: []todo.Item{
		{ID: "id-1", Title: "First", Status: todo.StatusDone},
		{ID: "id-2", Title: "Second", Status: todo.StatusTodo},
		{ID: "id-3", Title: "Third", Status: todo.StatusTodo},
	}}
	if !got.Equal(want) {
		t.Fatalf("got %+v, want %+v", got.Todos, want.Todos)
	}
}

package eventbridge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kingrea/todoboard/internal/agui"
	"github.com/kingrea/todoboard/internal/statechan"
	"github.com/kingrea/todoboard/internal/todo"
)

// Tool events arrive as CUSTOM events named tool:<name>.
const toolEventPrefix = "tool:"

// Tool names an out-of-band agent may report.
const (
	ToolAddTodos    = "add_todos"
	ToolUpdateTodo  = "update_todo"
	ToolDeleteTodos = "delete_todos"
	ToolSetTodos    = "set_todos"
)

// StateProcessor applies state-bearing events to the shared channel before
// handing every event on to the next processor (usually the Router).
type StateProcessor struct {
	ch     statechan.Channel
	next   EventProcessor
	logger Logger
	newID  func() string
}

// ProcessorOption customizes a StateProcessor.
type ProcessorOption func(*StateProcessor)

// ProcessorWithNext forwards events after they were applied.
func ProcessorWithNext(next EventProcessor) ProcessorOption {
	return func(p *StateProcessor) {
		if next != nil {
			p.next = next
		}
	}
}

// ProcessorWithLogger records applied changes.
func ProcessorWithLogger(logger Logger) ProcessorOption {
	return func(p *StateProcessor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// ProcessorWithIDGenerator replaces uuid.NewString for add_todos.
func ProcessorWithIDGenerator(fn func() string) ProcessorOption {
	return func(p *StateProcessor) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// NewStateProcessor writes through ch.
func NewStateProcessor(ch statechan.Channel, opts ...ProcessorOption) *StateProcessor {
	p := &StateProcessor{
		ch:     ch,
		next:   EventProcessorFunc(nil),
		logger: nopLogger{},
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// HandleEvent applies the event, then forwards it. Events that fail to
// apply are not forwarded and return an error wrapping ErrInvalidPayload.
func (p *StateProcessor) HandleEvent(evt Event) error {
	if err := p.apply(evt); err != nil {
		return err
	}
	return p.next.HandleEvent(evt)
}

func (p *StateProcessor) apply(evt Event) error {
	switch agui.EventType(evt.Type) {
	case agui.EventStateSnapshot, agui.EventStateDelta:
		current := p.ch.Read()
		wire := agui.Event{Type: agui.EventType(evt.Type)}
		if wire.Type == agui.EventStateSnapshot {
			wire.Snapshot = evt.Payload
		} else {
			wire.Delta = evt.Payload
		}
		next, changed, err := agui.ApplyState(current, wire)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if changed {
			p.ch.Write(next)
			p.logger.Printf("eventbridge: %s from %s applied (%d todos)", evt.Type, evt.Agent, next.Len())
		}
		return nil
	case agui.EventCustom:
		var custom struct {
			Name  string          `json:"name"`
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(evt.Payload, &custom); err != nil {
			return fmt.Errorf("%w: custom event: %v", ErrInvalidPayload, err)
		}
		tool, ok := strings.CutPrefix(strings.TrimSpace(custom.Name), toolEventPrefix)
		if !ok {
			return nil
		}
		next, err := p.runTool(p.ch.Read(), tool, custom.Value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, tool, err)
		}
		if err := next.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, tool, err)
		}
		p.ch.Write(next)
		p.logger.Printf("eventbridge: tool %s from %s applied (%d todos)", tool, evt.Agent, next.Len())
		return nil
	}
	return nil
}

func (p *StateProcessor) runTool(current todo.State, tool string, raw json.RawMessage) (todo.State, error) {
	switch tool {
	case ToolAddTodos:
		var args struct {
			Titles       []string  `json:"titles"`
			Descriptions []*string `json:"descriptions"`
			Statuses     []string  `json:"statuses"`
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			return current, err
		}
		items := make([]todo.Item, 0, len(args.Titles))
		for i, title := range args.Titles {
			item := todo.Item{ID: p.newID(), Title: strings.TrimSpace(title), Status: todo.StatusTodo}
			if i < len(args.Descriptions) && args.Descriptions[i] != nil {
				item.Description = strings.TrimSpace(*args.Descriptions[i])
			}
			if i < len(args.Statuses) {
				status, err := todo.ParseStatus(args.Statuses[i])
				if err != nil {
					return current, err
				}
				item.Status = status
			}
			items = append(items, item)
		}
		return todo.Append(current, items...), nil
	case ToolUpdateTodo:
		var args struct {
			ID          string  `json:"id"`
			Title       *string `json:"title"`
			Description *string `json:"description"`
			Status      *string `json:"status"`
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			return current, err
		}
		patch := todo.ItemPatch{Title: args.Title, Description: args.Description}
		if args.Status != nil {
			status, err := todo.ParseStatus(*args.Status)
			if err != nil {
				return current, err
			}
			patch.Status = &status
		}
		return todo.Patch(current, args.ID, patch), nil
	case ToolDeleteTodos:
		var args struct {
			ID []string `json:"id"`
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			return current, err
		}
		return todo.Delete(current, args.ID...), nil
	case ToolSetTodos:
		return todo.Decode(raw)
	default:
		return current, fmt.Errorf("unknown tool %q", tool)
	}
}

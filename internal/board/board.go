// Package board turns user gestures on the Kanban board into whole-state
// rewrites of the shared todo list.
//
// Every mutating operation performs exactly one read-modify-write cycle
// against the injected statechan.Channel. Nothing is retried, queued, or
// batched; the next Read may still be stale until the other side pushes an
// update.
package board

import (
	"github.com/kingrea/todoboard/internal/statechan"
	"github.com/kingrea/todoboard/internal/todo"
)

// Recorder receives a line per mutation. logbook.Logbook satisfies it.
type Recorder interface {
	Info(format string, args ...any)
}

type nopRecorder struct{}

func (nopRecorder) Info(string, ...any) {}

// Option customizes Board construction.
type Option func(*Board)

// WithRecorder reports mutations to r.
func WithRecorder(r Recorder) Option {
	return func(b *Board) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithIDGenerator swaps the id source for new items.
func WithIDGenerator(fn func() string) Option {
	return func(b *Board) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// Column is one lane ready for rendering.
type Column struct {
	Status todo.Status
	Title  string
	Items  []todo.Item
}

// Empty reports whether the lane should show its placeholder.
func (c Column) Empty() bool {
	return len(c.Items) == 0
}

// EmptyPlaceholder is rendered in lanes without items.
const EmptyPlaceholder = "No tasks yet"

// Board owns the transient drag state and the three drop zones.
type Board struct {
	ch       statechan.Channel
	newID    func() string
	recorder Recorder

	draggedID string
	zones     map[todo.Status]*DropZone
}

// New builds a board over the given channel.
func New(ch statechan.Channel, opts ...Option) *Board {
	b := &Board{
		ch:       ch,
		newID:    todo.GenerateID,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.zones = make(map[todo.Status]*DropZone, 3)
	for _, status := range todo.Statuses() {
		b.zones[status] = NewDropZone(status, b.HandleDrop)
	}
	return b
}

// State returns the latest snapshot from the channel.
func (b *Board) State() todo.State {
	return b.ch.Read()
}

// Columns partitions the current snapshot into the three lanes.
func (b *Board) Columns() []Column {
	state := b.ch.Read()
	cols := make([]Column, 0, 3)
	for _, status := range todo.Statuses() {
		cols = append(cols, Column{
			Status: status,
			Title:  status.Title(),
			Items:  todo.Filter(state, status),
		})
	}
	return cols
}

// UpdateTodo replaces an item's title and description.
func (b *Board) UpdateTodo(id, title, description string) {
	state := b.ch.Read()
	next := todo.UpdateText(state, id, title, description)
	b.ch.Write(next)
	if item, ok := next.Find(id); ok {
		b.recorder.Info("Edited %q", item.Title)
	}
}

// UpdateTodoStatus moves an item to another lane.
func (b *Board) UpdateTodoStatus(id string, status todo.Status) {
	state := b.ch.Read()
	b.ch.Write(todo.SetStatus(state, id, status))
	if item, ok := state.Find(id); ok && item.Status != status {
		b.recorder.Info("Moved %q to %s", item.Title, status.Title())
	}
}

// DeleteTodo removes an item.
func (b *Board) DeleteTodo(id string) {
	state := b.ch.Read()
	b.ch.Write(todo.Delete(state, id))
	if item, ok := state.Find(id); ok {
		b.recorder.Info("Deleted %q", item.Title)
	}
}

// AddNewTodo appends a placeholder item to a lane and returns its id.
func (b *Board) AddNewTodo(status todo.Status) string {
	item := todo.Item{ID: b.newID(), Title: todo.NewItemTitle, Status: status}
	state := b.ch.Read()
	b.ch.Write(todo.Append(state, item))
	b.recorder.Info("Added a task to %s", status.Title())
	return item.ID
}

// MarkAllDone moves every item to done in a single write.
func (b *Board) MarkAllDone() {
	state := b.ch.Read()
	b.ch.Write(todo.MarkAllDone(state))
	b.recorder.Info("Marked all %d tasks as complete", state.Len())
}

// HandleDrop moves the dragged item to status. Without an active drag it
// does nothing.
func (b *Board) HandleDrop(status todo.Status) {
	if b.draggedID == "" {
		return
	}
	b.UpdateTodoStatus(b.draggedID, status)
}

// DragStart records the item being dragged.
func (b *Board) DragStart(id string) {
	b.draggedID = id
}

// DragEnd clears the drag state and every zone's hover flag, whether or not
// a drop landed.
func (b *Board) DragEnd() {
	b.draggedID = ""
	for _, zone := range b.zones {
		zone.DragLeave()
	}
}

// DraggedID returns the item being dragged, if any.
func (b *Board) DraggedID() (string, bool) {
	return b.draggedID, b.draggedID != ""
}

// IsDragging reports whether id is the item being dragged.
func (b *Board) IsDragging(id string) bool {
	return id != "" && b.draggedID == id
}

// Zone returns the drop zone of a lane.
func (b *Board) Zone(status todo.Status) *DropZone {
	return b.zones[status]
}

// Hover moves the pointer into one lane, leaving all others. An empty
// status leaves every lane.
func (b *Board) Hover(status todo.Status) {
	if b.draggedID == "" {
		return
	}
	for s, zone := range b.zones {
		if s == status {
			zone.DragEnter()
		} else {
			zone.DragLeave()
		}
	}
}

// HoveredZone returns the lane currently under the drag, if any.
func (b *Board) HoveredZone() (todo.Status, bool) {
	for _, status := range todo.Statuses() {
		if b.zones[status].Over() {
			return status, true
		}
	}
	return "", false
}

// DropHovered delivers the drop to the hovered lane, if any. The caller
// still ends the drag afterwards, dropped or not.
func (b *Board) DropHovered() bool {
	status, ok := b.HoveredZone()
	if !ok || b.draggedID == "" {
		return false
	}
	b.zones[status].Drop()
	return true
}

// Callbacks returns the callback set handed to the card for id.
func (b *Board) Callbacks(id string) Callbacks {
	return Callbacks{
		OnUpdate:       b.UpdateTodo,
		OnDelete:       b.DeleteTodo,
		OnStatusChange: b.UpdateTodoStatus,
		OnDragStart:    func() { b.DragStart(id) },
		OnDragEnd:      b.DragEnd,
	}
}

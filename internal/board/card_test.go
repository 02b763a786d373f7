package board

import (
	"testing"

	"github.com/kingrea/todoboard/internal/todo"
)

type callLog struct {
	updates  [][3]string
	statuses []todo.Status
	deletes  []string
	starts   int
	ends     int
}

func (l *callLog) callbacks() Callbacks {
	return Callbacks{
		OnUpdate: func(id, title, description string) {
			l.updates = append(l.updates, [3]string{id, title, description})
		},
		OnDelete:       func(id string) { l.deletes = append(l.deletes, id) },
		OnStatusChange: func(_ string, s todo.Status) { l.statuses = append(l.statuses, s) },
		OnDragStart:    func() { l.starts++ },
		OnDragEnd:      func() { l.ends++ },
	}
}

func TestTitleCommitTrimsAndSkipsUnchanged(t *testing.T) {
	log := &callLog{}
	card := NewCard(todo.Item{ID: "a", Title: "Write", Description: "notes", Status: todo.StatusTodo}, log.callbacks())

	card.FocusTitle()
	card.BlurTitle("  Write  ")
	if len(log.updates) != 0 {
		t.Fatalf("unchanged title should not commit: %v", log.updates)
	}

	card.FocusTitle()
	card.BlurTitle("  Rewrite ")
	if len(log.updates) != 1 || log.updates[0] != [3]string{"a", "Rewrite", "notes"} {
		t.Fatalf("unexpected updates %v", log.updates)
	}
	if card.EditingTitle() {
		t.Fatalf("blur should leave edit mode")
	}
}

func TestTitleCommitBlankFallsBack(t *testing.T) {
	log := &callLog{}
	card := NewCard(todo.Item{ID: "a", Title: "Write", Status: todo.StatusTodo}, log.callbacks())
	card.FocusTitle()
	card.BlurTitle("   ")
	if len(log.updates) != 0 {
		t.Fatalf("blank title must never be committed: %v", log.updates)
	}
}

func TestDescriptionCommitBlankClears(t *testing.T) {
	log := &callLog{}
	card := NewCard(todo.Item{ID: "a", Title: "Write", Description: "notes", Status: todo.StatusTodo}, log.callbacks())
	card.FocusDescription()
	card.BlurDescription("  ")
	if len(log.updates) != 1 || log.updates[0] != [3]string{"a", "Write", ""} {
		t.Fatalf("unexpected updates %v", log.updates)
	}
}

func TestDescriptionBlankWhenAlreadyAbsentDoesNotCommit(t *testing.T) {
	log := &callLog{}
	card := NewCard(todo.Item{ID: "a", Title: "Write", Status: todo.StatusTodo}, log.callbacks())
	card.FocusDescription()
	card.BlurDescription("")
	if len(log.updates) != 0 {
		t.Fatalf("absent and empty descriptions are equal: %v", log.updates)
	}
}

func TestEscapeRevertsWithoutCommit(t *testing.T) {
	log := &callLog{}
	card := NewCard(todo.Item{ID: "a", Title: "Write", Status: todo.StatusTodo}, log.callbacks())
	card.FocusTitle()
	if got := card.Escape(); got != "Write" {
		t.Fatalf("escape restored %q", got)
	}
	card.BlurTitle("something else")
	if len(log.updates) != 0 {
		t.Fatalf("blur after escape must not commit: %v", log.updates)
	}
}

func TestToggleBypassesInProgress(t *testing.T) {
	log := &callLog{}
	NewCard(todo.Item{ID: "a", Title: "x", Status: todo.StatusDone}, log.callbacks()).ToggleComplete()
	NewCard(todo.Item{ID: "b", Title: "y", Status: todo.StatusInProgress}, log.callbacks()).ToggleComplete()
	NewCard(todo.Item{ID: "c", Title: "z", Status: todo.StatusTodo}, log.callbacks()).ToggleComplete()
	want := []todo.Status{todo.StatusTodo, todo.StatusDone, todo.StatusDone}
	for i := range want {
		if log.statuses[i] != want[i] {
			t.Fatalf("toggle %d = %s, want %s", i, log.statuses[i], want[i])
		}
	}
}

func TestDragDisabledWhileEditing(t *testing.T) {
	log := &callLog{}
	card := NewCard(todo.Item{ID: "a", Title: "x", Status: todo.StatusTodo}, log.callbacks())
	card.FocusDescription()
	if card.StartDrag() {
		t.Fatalf("drag must be disabled while editing")
	}
	card.BlurDescription("")
	if !card.StartDrag() {
		t.Fatalf("drag should start once editing ends")
	}
	card.EndDrag()
	card.EndDrag()
	if log.starts != 1 || log.ends != 1 {
		t.Fatalf("starts=%d ends=%d", log.starts, log.ends)
	}
}

func TestDeleteCallsUnconditionally(t *testing.T) {
	log := &callLog{}
	NewCard(todo.Item{ID: "a", Title: "x", Status: todo.StatusTodo}, log.callbacks()).Delete()
	if len(log.deletes) != 1 || log.deletes[0] != "a" {
		t.Fatalf("deletes = %v", log.deletes)
	}
}

func TestDropZoneDropsOnceAndClearsHover(t *testing.T) {
	var drops []todo.Status
	zone := NewDropZone(todo.StatusDone, func(s todo.Status) { drops = append(drops, s) })
	zone.DragEnter()
	if !zone.Over() {
		t.Fatalf("expected hover")
	}
	zone.Drop()
	if zone.Over() {
		t.Fatalf("hover flag not cleared")
	}
	if len(drops) != 1 || drops[0] != todo.StatusDone {
		t.Fatalf("drops = %v", drops)
	}
}

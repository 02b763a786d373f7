package board

import "github.com/kingrea/todoboard/internal/todo"

// DropZone is one lane as a drop target. The hover flag only drives
// rendering; any active drag may drop on any lane.
type DropZone struct {
	status todo.Status
	over   bool
	onDrop func(todo.Status)
}

// NewDropZone builds a zone that reports drops to onDrop.
func NewDropZone(status todo.Status, onDrop func(todo.Status)) *DropZone {
	return &DropZone{status: status, onDrop: onDrop}
}

// Status is the lane this zone accepts drops for.
func (z *DropZone) Status() todo.Status { return z.status }

// Over reports whether a drag is hovering over the zone.
func (z *DropZone) Over() bool { return z.over }

// DragEnter marks the zone as hovered.
func (z *DropZone) DragEnter() { z.over = true }

// DragLeave clears the hover flag.
func (z *DropZone) DragLeave() { z.over = false }

// Drop reports the drop once and clears the hover flag.
func (z *DropZone) Drop() {
	z.over = false
	if z.onDrop != nil {
		z.onDrop(z.status)
	}
}

package board

import "strings"

// TextRegion is the edit-mode state machine of one inline editable field,
// independent of the widget that holds the buffer.
type TextRegion struct {
	committed string
	editing   bool
}

// Begin enters edit mode and returns the buffer to show.
func (r *TextRegion) Begin(committed string) string {
	r.committed = committed
	r.editing = true
	return committed
}

// Editing reports whether the region is in edit mode.
func (r *TextRegion) Editing() bool { return r.editing }

// Commit leaves edit mode and returns the trimmed buffer.
func (r *TextRegion) Commit(buffer string) string {
	r.editing = false
	return strings.TrimSpace(buffer)
}

// Revert leaves edit mode and returns the last committed value.
func (r *TextRegion) Revert() string {
	r.editing = false
	return r.committed
}

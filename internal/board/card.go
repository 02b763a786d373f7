package board

import "github.com/kingrea/todoboard/internal/todo"

// Callbacks is the surface a card calls back into.
type Callbacks struct {
	OnUpdate       func(id, title, description string)
	OnDelete       func(id string)
	OnStatusChange func(id string, status todo.Status)
	OnDragStart    func()
	OnDragEnd      func()
}

// Card is the interaction state of one rendered item.
type Card struct {
	item        todo.Item
	cb          Callbacks
	title       TextRegion
	description TextRegion
	dragging    bool
}

// NewCard binds an item to its callbacks.
func NewCard(item todo.Item, cb Callbacks) *Card {
	return &Card{item: item, cb: cb}
}

// Item returns the item as last synced.
func (c *Card) Item() todo.Item {
	return c.item
}

// Sync replaces the item with a newer snapshot's copy. Edit buffers are left
// alone; commits compare against the synced value.
func (c *Card) Sync(item todo.Item, cb Callbacks) {
	c.item = item
	c.cb = cb
}

// EditingTitle reports whether the title region is in edit mode.
func (c *Card) EditingTitle() bool { return c.title.Editing() }

// EditingDescription reports whether the description region is in edit mode.
func (c *Card) EditingDescription() bool { return c.description.Editing() }

// Editing reports whether either region is being edited.
func (c *Card) Editing() bool {
	return c.title.Editing() || c.description.Editing()
}

// Draggable is false while any text is being edited.
func (c *Card) Draggable() bool {
	return !c.Editing()
}

// Dragging reports whether this card started the current drag.
func (c *Card) Dragging() bool {
	return c.dragging
}

// FocusTitle enters title edit mode and returns the initial buffer.
func (c *Card) FocusTitle() string {
	return c.title.Begin(c.item.Title)
}

// FocusDescription enters description edit mode.
func (c *Card) FocusDescription() string {
	return c.description.Begin(c.item.Description)
}

// BlurTitle commits the title buffer. A blank buffer keeps the old title.
func (c *Card) BlurTitle(buffer string) {
	if !c.title.Editing() {
		return
	}
	next := c.title.Commit(buffer)
	if next == "" {
		next = c.item.Title
	}
	if next != c.item.Title && c.cb.OnUpdate != nil {
		c.cb.OnUpdate(c.item.ID, next, c.item.Description)
	}
}

// BlurDescription commits the description buffer. A blank buffer clears the
// description.
func (c *Card) BlurDescription(buffer string) {
	if !c.description.Editing() {
		return
	}
	next := c.description.Commit(buffer)
	if next != c.item.Description && c.cb.OnUpdate != nil {
		c.cb.OnUpdate(c.item.ID, c.item.Title, next)
	}
}

// Escape abandons whichever edit is open and returns the restored buffer.
func (c *Card) Escape() string {
	switch {
	case c.title.Editing():
		return c.title.Revert()
	case c.description.Editing():
		return c.description.Revert()
	}
	return ""
}

// ToggleComplete flips between done and todo.
func (c *Card) ToggleComplete() {
	if c.cb.OnStatusChange != nil {
		c.cb.OnStatusChange(c.item.ID, c.item.Status.Toggled())
	}
}

// Delete removes the card without confirmation.
func (c *Card) Delete() {
	if c.cb.OnDelete != nil {
		c.cb.OnDelete(c.item.ID)
	}
}

// StartDrag begins a drag unless text is being edited.
func (c *Card) StartDrag() bool {
	if !c.Draggable() {
		return false
	}
	c.dragging = true
	if c.cb.OnDragStart != nil {
		c.cb.OnDragStart()
	}
	return true
}

// EndDrag finishes the drag this card started.
func (c *Card) EndDrag() {
	if !c.dragging {
		return
	}
	c.dragging = false
	if c.cb.OnDragEnd != nil {
		c.cb.OnDragEnd()
	}
}

package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/todoboard/internal/todo"
)

// Zone id prefixes. The suffix is an item id or a lane status.
const (
	zoneCard   = "card:"
	zoneTitle  = "title:"
	zoneDesc   = "desc:"
	zoneCheck  = "check:"
	zoneDelete = "del:"
	zoneAdd    = "add:"
	zoneLane   = "lane:"
	zoneChat   = "chat"
)

type targetKind int

const (
	targetNone targetKind = iota
	targetCard
	targetTitle
	targetDescription
	targetCheck
	targetDelete
	targetAdd
	targetChat
)

// pointerTarget is what sits under the mouse: the innermost control, and
// the lane it belongs to (if any).
type pointerTarget struct {
	kind   targetKind
	id     string
	lane   todo.Status
	inLane bool
}

func (a *App) resolveTarget(msg tea.MouseMsg) pointerTarget {
	var t pointerTarget
	for _, status := range todo.Statuses() {
		if a.zones.Get(zoneLane + string(status)).InBounds(msg) {
			t.lane, t.inLane = status, true
			break
		}
	}
	if a.zones.Get(zoneChat).InBounds(msg) {
		t.kind = targetChat
		return t
	}
	if t.inLane {
		if a.zones.Get(zoneAdd + string(t.lane)).InBounds(msg) {
			t.kind = targetAdd
			return t
		}
	}
	for id := range a.cards {
		switch {
		case a.zones.Get(zoneCheck + id).InBounds(msg):
			t.kind, t.id = targetCheck, id
		case a.zones.Get(zoneDelete + id).InBounds(msg):
			t.kind, t.id = targetDelete, id
		case a.zones.Get(zoneTitle + id).InBounds(msg):
			t.kind, t.id = targetTitle, id
		case a.zones.Get(zoneDesc + id).InBounds(msg):
			t.kind, t.id = targetDescription, id
		case a.zones.Get(zoneCard + id).InBounds(msg):
			t.kind, t.id = targetCard, id
		default:
			continue
		}
		return t
	}
	return t
}

func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if a.confirm != nil {
		return nil
	}
	if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
		if a.focus == focusChat || a.zones.Get(zoneChat).InBounds(msg) {
			return a.chat.forward(msg)
		}
		return nil
	}
	return a.pointer(msg.Action, msg.Button, a.resolveTarget(msg))
}

// pointer applies one mouse action to a resolved target. A press on a card
// body starts a drag; motion hovers the lane under the pointer; the release
// drops on the hovered lane and always ends the drag.
func (a *App) pointer(action tea.MouseAction, button tea.MouseButton, t pointerTarget) tea.Cmd {
	switch action {
	case tea.MouseActionMotion:
		if a.pointerDrag {
			if t.inLane {
				a.board.Hover(t.lane)
			} else {
				a.board.Hover("")
			}
		}
		return nil

	case tea.MouseActionRelease:
		if a.pointerDrag {
			a.board.DropHovered()
			a.endDrag()
		}
		return nil

	case tea.MouseActionPress:
		if button != tea.MouseButtonLeft {
			return nil
		}
	default:
		return nil
	}

	if t.kind == targetChat {
		if a.focus != focusChat {
			a.focusChat()
		}
		return nil
	}
	if a.focus == focusChat {
		a.focusBoard()
	}
	if a.editing != editNone && !a.pressInsideEditor(t) {
		a.commitEditor()
	}
	if a.grabbing {
		a.endDrag()
	}

	card := a.cards[t.id]
	switch t.kind {
	case targetCheck:
		if card != nil {
			card.ToggleComplete()
			a.syncCards()
			a.selectID(t.id)
		}
	case targetDelete:
		if card != nil {
			card.Delete()
			a.syncCards()
		}
	case targetTitle:
		if card != nil && a.editing != editTitle {
			return a.openEditor(card, editTitle)
		}
	case targetDescription:
		if card != nil && a.editing != editDescription {
			return a.openEditor(card, editDescription)
		}
	case targetCard:
		if card != nil {
			a.selectID(t.id)
			if card.StartDrag() {
				a.pointerDrag = true
			}
		}
	case targetAdd:
		return a.addTodo(t.lane)
	case targetNone:
		if t.inLane {
			for i, col := range a.cols {
				if col.Status == t.lane {
					a.laneIdx = i
					a.clampCursor()
				}
			}
		}
	}
	return nil
}

func (a *App) pressInsideEditor(t pointerTarget) bool {
	if t.id != a.editID {
		return false
	}
	return (a.editing == editTitle && t.kind == targetTitle) ||
		(a.editing == editDescription && t.kind == targetDescription)
}

package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/todoboard/internal/board"
	"github.com/kingrea/todoboard/internal/todo"
)

func (a *App) handleBoardKey(msg tea.KeyMsg) tea.Cmd {
	if a.grabbing {
		return a.handleGrabKey(msg)
	}
	switch {
	case key.Matches(msg, a.keys.Quit):
		a.Close()
		return tea.Quit
	case key.Matches(msg, a.keys.Left):
		a.moveLane(-1)
	case key.Matches(msg, a.keys.Right):
		a.moveLane(1)
	case key.Matches(msg, a.keys.Up):
		a.moveCard(-1)
	case key.Matches(msg, a.keys.Down):
		a.moveCard(1)
	case key.Matches(msg, a.keys.EditTitle):
		if card, ok := a.selected(); ok {
			return a.openEditor(card, editTitle)
		}
	case key.Matches(msg, a.keys.EditDescription):
		if card, ok := a.selected(); ok {
			return a.openEditor(card, editDescription)
		}
	case key.Matches(msg, a.keys.Toggle):
		if card, ok := a.selected(); ok {
			card.ToggleComplete()
			a.syncCards()
			a.selectID(card.Item().ID)
		}
	case key.Matches(msg, a.keys.Delete):
		if card, ok := a.selected(); ok {
			card.Delete()
			a.syncCards()
		}
	case key.Matches(msg, a.keys.Add):
		return a.addTodo(a.currentLane())
	case key.Matches(msg, a.keys.Grab):
		a.grab()
	case key.Matches(msg, a.keys.FullSend):
		a.openConfirm(confirmLocal, "")
	case key.Matches(msg, a.keys.FocusChat):
		a.focusChat()
	case key.Matches(msg, a.keys.ToggleChat):
		a.toggleChat()
	}
	return nil
}

func (a *App) moveLane(delta int) {
	a.laneIdx += delta
	if a.laneIdx < 0 {
		a.laneIdx = 0
	}
	if a.laneIdx >= len(a.cols) {
		a.laneIdx = len(a.cols) - 1
	}
	a.clampCursor()
}

func (a *App) moveCard(delta int) {
	a.cardIdx += delta
	a.clampCursor()
}

func (a *App) addTodo(status todo.Status) tea.Cmd {
	id := a.board.AddNewTodo(status)
	a.syncCards()
	a.selectID(id)
	if card, ok := a.cards[id]; ok {
		return a.openEditor(card, editTitle)
	}
	return nil
}

// grab starts a keyboard drag of the selected card, hovering its own lane.
func (a *App) grab() {
	card, ok := a.selected()
	if !ok || !card.StartDrag() {
		return
	}
	a.grabbing = true
	a.board.Hover(a.currentLane())
	a.setStatus(fmt.Sprintf("Moving %q: pick a lane, enter to drop", card.Item().Title))
}

func (a *App) handleGrabKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Left):
		a.moveLane(-1)
		a.board.Hover(a.currentLane())
	case key.Matches(msg, a.keys.Right):
		a.moveLane(1)
		a.board.Hover(a.currentLane())
	case key.Matches(msg, a.keys.Drop):
		a.board.DropHovered()
		a.endDrag()
		a.statusMsg = ""
	case key.Matches(msg, a.keys.Cancel), key.Matches(msg, a.keys.FocusChat):
		a.endDrag()
		a.setStatus("Move cancelled")
	case key.Matches(msg, a.keys.Quit):
		a.endDrag()
		a.Close()
		return tea.Quit
	}
	return nil
}

// endDrag finishes whatever drag is active, dropped or not, and re-syncs.
func (a *App) endDrag() {
	id, ok := a.board.DraggedID()
	a.grabbing = false
	a.pointerDrag = false
	if !ok {
		return
	}
	if card, exists := a.cards[id]; exists && card.Dragging() {
		card.EndDrag()
	} else {
		a.board.DragEnd()
	}
	a.syncCards()
	a.selectID(id)
}

func (a *App) openEditor(card *board.Card, field editField) tea.Cmd {
	if a.editing != editNone {
		a.commitEditor()
	}
	a.editID = card.Item().ID
	a.editing = field
	a.selectID(a.editID)
	switch field {
	case editTitle:
		a.titleInput.SetValue(card.FocusTitle())
		a.titleInput.CursorEnd()
		a.descInput.Blur()
		return a.titleInput.Focus()
	case editDescription:
		a.descInput.SetValue(card.FocusDescription())
		a.descInput.CursorEnd()
		a.titleInput.Blur()
		return a.descInput.Focus()
	}
	return nil
}

// commitEditor ends edit mode, committing the buffer through the card.
func (a *App) commitEditor() {
	card, ok := a.cards[a.editID]
	field := a.editing
	a.closeEditor()
	if !ok {
		return
	}
	switch field {
	case editTitle:
		card.BlurTitle(a.titleInput.Value())
	case editDescription:
		card.BlurDescription(a.descInput.Value())
	}
	a.syncCards()
	a.selectID(card.Item().ID)
}

func (a *App) revertEditor() {
	if card, ok := a.cards[a.editID]; ok {
		card.Escape()
	}
	a.closeEditor()
}

func (a *App) closeEditor() {
	a.editing = editNone
	a.editID = ""
	a.titleInput.Blur()
	a.descInput.Blur()
}

func (a *App) handleEditorKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter", "tab":
		a.commitEditor()
		return nil
	case "esc":
		a.revertEditor()
		return nil
	}
	return a.forwardToEditor(msg)
}

func (a *App) forwardToEditor(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.editing {
	case editTitle:
		a.titleInput, cmd = a.titleInput.Update(msg)
	case editDescription:
		a.descInput, cmd = a.descInput.Update(msg)
	}
	return cmd
}

func (a *App) focusChat() {
	if a.editing != editNone {
		a.commitEditor()
	}
	if a.grabbing || a.pointerDrag {
		a.endDrag()
	}
	a.showChat = true
	a.focus = focusChat
	a.chat.focus()
}

func (a *App) focusBoard() {
	a.focus = focusBoard
	a.chat.blur()
}

func (a *App) toggleChat() {
	a.showChat = !a.showChat
	if !a.showChat {
		a.focusBoard()
	}
}

package tui

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/todoboard/internal/agui"
)

type confirmKind int

const (
	// confirmLocal comes from the F key; nothing waits for the answer.
	confirmLocal confirmKind = iota
	// confirmTool answers the agent's full_send call.
	confirmTool
)

type confirmModal struct {
	kind       confirmKind
	toolCallID string
	count      int
}

func (a *App) openConfirm(kind confirmKind, toolCallID string) {
	a.confirm = &confirmModal{kind: kind, toolCallID: toolCallID, count: a.ch.Read().Len()}
}

func (a *App) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y", "enter":
		return a.resolveConfirm(true)
	case "n", "N", "esc":
		return a.resolveConfirm(false)
	}
	return nil
}

// resolveConfirm closes the modal. A confirmed full send marks every todo
// done in one write.
func (a *App) resolveConfirm(accepted bool) tea.Cmd {
	modal := a.confirm
	a.confirm = nil
	if modal == nil {
		return nil
	}
	if accepted {
		a.board.MarkAllDone()
		a.syncCards()
	} else {
		a.logInfo("Full send cancelled")
	}
	if modal.kind != confirmTool {
		return nil
	}
	answer := "no"
	if accepted {
		answer = "yes"
	}
	c := a.chat
	c.transcript.AddToolResult(modal.toolCallID, answer)
	if len(c.pending) > 0 && c.pending[0].ID == modal.toolCallID {
		c.pending = c.pending[1:]
	}
	c.answered = true
	return a.processPendingTools()
}

func (a *App) confirmView() string {
	modal := a.confirm
	body := a.theme.panelTitle.Render("Full send?") + "\n\n" +
		"Mark all " + strconv.Itoa(modal.count) + " todos as done?\n\n" +
		a.theme.muted.Render("y/enter confirm · n/esc cancel")
	if modal.kind == confirmTool {
		body = a.theme.chatTool.Render("⚙ "+agui.ToolFullSend) + "\n" + body
	}
	return a.theme.modal.Render(body)
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/kingrea/todoboard/internal/agui"
	"github.com/kingrea/todoboard/internal/board"
	"github.com/kingrea/todoboard/internal/todo"
)

const (
	activityLines = 4
	descPreview   = 3
	minLaneWidth  = 18
)

func (a *App) chatWidth() int {
	if !a.showChat {
		return 0
	}
	w := a.width / 3
	if w < 28 {
		w = 28
	}
	if w > 60 {
		w = 60
	}
	return w
}

func (a *App) boardWidth() int {
	w := a.width - a.chatWidth()
	if w < minLaneWidth*3 {
		w = minLaneWidth * 3
	}
	return w
}

// View renders the whole screen.
func (a *App) View() string {
	if a.width == 0 {
		return "Loading board..."
	}
	header := a.renderHeader()
	footer := a.renderFooter()
	activity := a.renderActivity()
	bodyHeight := a.height - lipgloss.Height(header) - lipgloss.Height(footer) - lipgloss.Height(activity)
	if bodyHeight < 6 {
		bodyHeight = 6
	}

	var body string
	if a.confirm != nil {
		body = lipgloss.Place(a.width, bodyHeight, lipgloss.Center, lipgloss.Center, a.confirmView())
	} else {
		lanes := a.renderLanes(bodyHeight)
		if a.showChat {
			body = lipgloss.JoinHorizontal(lipgloss.Top, lanes, a.renderChat(bodyHeight))
		} else {
			body = lanes
		}
	}
	return a.zones.Scan(lipgloss.JoinVertical(lipgloss.Left, header, body, activity, footer))
}

func (a *App) renderHeader() string {
	state := a.ch.Read()
	counts := state.Counts()
	title := a.theme.header.Render("todoboard")
	stats := a.theme.muted.Render(fmt.Sprintf("  %d tasks · %d done", state.Len(), counts[todo.StatusDone]))
	return title + stats
}

func (a *App) renderLanes(height int) string {
	laneWidth := a.boardWidth()/len(a.cols) - 2
	if laneWidth < minLaneWidth {
		laneWidth = minLaneWidth
	}
	hovered, hovering := a.board.HoveredZone()
	rendered := make([]string, 0, len(a.cols))
	for i, col := range a.cols {
		style := a.theme.lane
		if hovering && hovered == col.Status {
			style = a.theme.laneHover
		}
		content := a.renderLane(i, col, laneWidth-4)
		box := style.Width(laneWidth).Height(height - 2).Render(content)
		rendered = append(rendered, a.zones.Mark(zoneLane+string(col.Status), box))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (a *App) renderLane(idx int, col board.Column, width int) string {
	var b strings.Builder
	title := fmt.Sprintf("%s (%d)", col.Title, len(col.Items))
	b.WriteString(a.theme.laneTitle.Render(title))
	b.WriteString("\n\n")
	if col.Empty() {
		b.WriteString(a.theme.placeholder.Render(board.EmptyPlaceholder))
		b.WriteString("\n\n")
	}
	for ci, item := range col.Items {
		card := a.cards[item.ID]
		if card == nil {
			continue
		}
		selected := a.focus == focusBoard && idx == a.laneIdx && ci == a.cardIdx
		b.WriteString(a.renderCard(card, width, selected))
		b.WriteString("\n")
	}
	b.WriteString(a.zones.Mark(zoneAdd+string(col.Status), a.theme.muted.Render("+ Add Task")))
	return b.String()
}

func (a *App) renderCard(card *board.Card, width int, selected bool) string {
	item := card.Item()
	inner := width - 4
	if inner < 8 {
		inner = 8
	}

	check := "[ ]"
	if item.Status == todo.StatusDone {
		check = "[x]"
	}
	check = a.zones.Mark(zoneCheck+item.ID, check)
	del := a.zones.Mark(zoneDelete+item.ID, a.theme.danger.Render("✕"))

	var title string
	if a.editing == editTitle && a.editID == item.ID {
		a.titleInput.Width = inner - 6
		title = a.titleInput.View()
	} else {
		title = ansi.Truncate(item.Title, inner-6, "…")
		if item.Status == todo.StatusDone {
			title = a.theme.doneTitle.Render(title)
		}
	}
	title = a.zones.Mark(zoneTitle+item.ID, title)
	head := check + " " + title
	gap := inner - lipgloss.Width(head) - 1
	if gap < 1 {
		gap = 1
	}
	head += strings.Repeat(" ", gap) + del

	var desc string
	switch {
	case a.editing == editDescription && a.editID == item.ID:
		a.descInput.SetWidth(inner)
		desc = a.descInput.View()
	case item.HasDescription():
		desc = previewLines(renderMarkdown(item.Description, inner), descPreview, inner)
	default:
		desc = a.theme.placeholder.Render("Add a description...")
	}
	desc = a.zones.Mark(zoneDesc+item.ID, desc)

	style := a.theme.card
	switch {
	case card.Dragging():
		style = a.theme.cardDrag
	case selected:
		style = a.theme.cardActive
	}
	return a.zones.Mark(zoneCard+item.ID, style.Width(width).Render(head+"\n"+desc))
}

// previewLines keeps the first n non-empty lines, each cut to width.
func previewLines(text string, n, width int) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(ansi.Strip(line)) == "" {
			continue
		}
		out = append(out, ansi.Truncate(line, width, "…"))
		if len(out) == n {
			break
		}
	}
	return strings.Join(out, "\n")
}

func (a *App) renderChat(height int) string {
	width := a.chatWidth()
	c := a.chat
	title := a.theme.panelTitle.Render("Chat · " + c.agentName)
	if c.running {
		title += a.theme.muted.Render("  thinking…")
	}
	inputView := c.input.View()
	hint := a.theme.muted.Render("ctrl+n/ctrl+p suggestions")
	c.setSize(width, height-lipgloss.Height(title)-lipgloss.Height(inputView)-lipgloss.Height(hint)-4)
	c.viewport.SetContent(a.renderTranscript(width - 4))
	c.viewport.GotoBottom()
	content := lipgloss.JoinVertical(lipgloss.Left, title, c.viewport.View(), inputView, hint)
	style := a.theme.panel
	if a.focus == focusChat {
		style = style.BorderForeground(a.theme.accent)
	}
	return a.zones.Mark(zoneChat, style.Width(width-2).Height(height-2).Render(content))
}

func (a *App) renderTranscript(width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	c := a.chat
	lines := []string{wrap.Render(a.theme.chatAgent.Render(chatGreeting)), ""}
	notes := c.notes
	flush := func(upto int) {
		for len(notes) > 0 && notes[0].after <= upto {
			lines = append(lines, wrap.Render(a.theme.danger.Render(notes[0].text)), "")
			notes = notes[1:]
		}
	}
	for i, msg := range c.transcript.Messages() {
		flush(i)
		switch msg.Role {
		case agui.RoleUser:
			lines = append(lines, wrap.Render(a.theme.chatUser.Render("You: ")+msg.Content), "")
		case agui.RoleAssistant:
			if msg.Content != "" {
				lines = append(lines, wrap.Render(a.theme.chatAgent.Render(msg.Content)), "")
			}
			for _, call := range msg.ToolCalls {
				lines = append(lines, a.theme.chatTool.Render("⚙ "+call.Function.Name))
			}
		case agui.RoleTool:
			lines = append(lines, a.theme.muted.Render("  ↳ "+ansi.Truncate(msg.Content, width-4, "…")), "")
		}
	}
	flush(c.transcript.Len())
	return strings.Join(lines, "\n")
}

func (a *App) renderActivity() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(activityLines)
	title := a.theme.panelTitle.Render(fmt.Sprintf("Activity (%d)", total))
	if len(lines) == 0 {
		return title + "\n" + a.theme.muted.Render("Nothing yet")
	}
	width := a.width - 2
	for i, line := range lines {
		lines[i] = a.theme.muted.Render(ansi.Truncate(line, width, "…"))
	}
	return title + "\n" + strings.Join(lines, "\n")
}

func (a *App) renderFooter() string {
	var helpView string
	switch {
	case a.grabbing:
		helpView = a.help.ShortHelpView(a.keys.grabHelp())
	case a.editing != editNone:
		helpView = a.theme.muted.Render("enter save · alt+enter newline · esc revert")
	case a.focus == focusChat:
		helpView = a.theme.muted.Render("enter send · tab/esc board · ctrl+b hide")
	default:
		helpView = a.help.ShortHelpView(a.keys.ShortHelp())
	}
	if a.statusMsg == "" {
		return helpView
	}
	return a.theme.header.Render(a.statusMsg) + "\n" + helpView
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/kingrea/todoboard/internal/agui"
)

const chatGreeting = "Hi! I can help you manage your todos."

var chatSuggestions = []string{
	"Add a todo to build a website.",
	"Set the theme to a nice purple.",
	"Move the first todo to in-progress.",
	"Please full send it!",
	"Delete all completed todos.",
	"What todos do I have?",
}

// chatNote is an out-of-band line (errors, tool answers) shown after the
// message it followed.
type chatNote struct {
	after int
	text  string
}

type chatPanel struct {
	client     *agui.Client
	agentName  string
	threadID   string
	transcript *agui.Transcript
	notes      []chatNote

	input      textinput.Model
	viewport   viewport.Model
	suggestion int

	running  bool
	runID    string
	cancel   context.CancelFunc
	events   chan tea.Msg
	pending  []agui.ToolCall
	answered bool
}

func newChatPanel(client *agui.Client, agentName string) *chatPanel {
	in := textinput.New()
	in.Placeholder = "Ask the agent..."
	in.Prompt = "> "
	in.CharLimit = 2000
	return &chatPanel{
		client:     client,
		agentName:  agentName,
		threadID:   uuid.NewString(),
		transcript: agui.NewTranscript(),
		input:      in,
		viewport:   viewport.New(30, 10),
		suggestion: -1,
	}
}

func (c *chatPanel) setSize(width, height int) {
	c.viewport.Width = max(10, width-4)
	c.viewport.Height = max(3, height)
	c.input.Width = max(10, width-6)
}

func (c *chatPanel) focus() tea.Cmd {
	return c.input.Focus()
}

func (c *chatPanel) blur() {
	c.input.Blur()
}

func (c *chatPanel) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if _, ok := msg.(tea.MouseMsg); ok {
		c.viewport, cmd = c.viewport.Update(msg)
		return cmd
	}
	c.input, cmd = c.input.Update(msg)
	return cmd
}

// cycleSuggestion fills the input with the next (or previous) prompt.
func (c *chatPanel) cycleSuggestion(delta int) {
	n := len(chatSuggestions)
	c.suggestion = ((c.suggestion+delta)%n + n) % n
	c.input.SetValue(chatSuggestions[c.suggestion])
	c.input.CursorEnd()
}

func (c *chatPanel) note(text string) {
	c.notes = append(c.notes, chatNote{after: c.transcript.Len(), text: text})
}

func (c *chatPanel) cancelRun() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// waitForAgent pulls one message of the run's stream.
func waitForAgent(events <-chan tea.Msg) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func (a *App) handleChatKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "tab":
		a.focusBoard()
		return nil
	case "ctrl+b":
		a.toggleChat()
		return nil
	case "ctrl+n":
		a.chat.cycleSuggestion(1)
		return nil
	case "ctrl+p":
		a.chat.cycleSuggestion(-1)
		return nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		a.chat.viewport, cmd = a.chat.viewport.Update(msg)
		return cmd
	case "enter":
		return a.submitChat()
	}
	return a.chat.forward(msg)
}

func (a *App) submitChat() tea.Cmd {
	text := strings.TrimSpace(a.chat.input.Value())
	if text == "" {
		return nil
	}
	if a.chat.client == nil {
		a.chat.note("No agent configured. Set agent.url in .todoboard/config.yaml.")
		return nil
	}
	if a.chat.running || len(a.chat.pending) > 0 {
		a.setStatus("The agent is still working")
		return nil
	}
	a.chat.input.Reset()
	a.chat.suggestion = -1
	a.chat.transcript.AddUser(text)
	a.logInfo("Asked %s: %s", a.chat.agentName, text)
	return a.startRun()
}

// startRun streams one agent run with the current snapshot and history.
// Events are forwarded over a channel and pulled one per command.
func (a *App) startRun() tea.Cmd {
	c := a.chat
	if c.client == nil {
		return nil
	}
	input := agui.NewRunInput(c.threadID, a.ch.Read(), c.transcript.Messages(), agui.FrontendTools())
	ctx, cancel := context.WithCancel(a.ctx)
	c.cancelRun()
	c.cancel = cancel
	c.running = true
	c.runID = input.RunID
	events := make(chan tea.Msg, 64)
	c.events = events
	client := c.client
	runID := input.RunID
	a.logger.Printf("agent run %s started (%d messages)", runID, len(input.Messages))

	go func() {
		defer close(events)
		err := client.Run(ctx, input, func(evt agui.Event) error {
			select {
			case events <- agentEventMsg{runID: runID, event: evt}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		select {
		case events <- agentRunDoneMsg{runID: runID, err: err}:
		case <-ctx.Done():
		}
	}()
	return waitForAgent(events)
}

func (a *App) handleAgentEvent(msg agentEventMsg) tea.Cmd {
	c := a.chat
	if msg.runID != c.runID {
		return nil
	}
	evt := msg.event
	c.transcript.Apply(evt)
	switch evt.Type {
	case agui.EventStateSnapshot, agui.EventStateDelta:
		next, changed, err := agui.ApplyState(a.ch.Read(), evt)
		if err != nil {
			a.logWarn("Ignored agent state update: %v", err)
			a.logger.Printf("agent state event rejected: %v", err)
			break
		}
		if changed {
			a.ch.Write(next)
			a.syncCards()
		}
	case agui.EventToolCallEnd:
		if call, ok := c.transcript.ToolCall(evt.ToolCallID); ok && agui.IsFrontendTool(call.Function.Name) {
			c.pending = append(c.pending, call)
		}
	}
	return waitForAgent(c.events)
}

func (a *App) handleRunDone(msg agentRunDoneMsg) tea.Cmd {
	c := a.chat
	if msg.runID != c.runID {
		return nil
	}
	c.running = false
	c.cancelRun()
	c.events = nil
	if err := msg.err; err != nil && !errors.Is(err, context.Canceled) {
		c.pending = nil
		c.note("Error: " + describeRunError(err))
		a.logError("Agent run failed: %v", err)
		a.logger.Printf("agent run %s failed: %v", msg.runID, err)
		return nil
	}
	a.logger.Printf("agent run %s finished", msg.runID)
	return a.processPendingTools()
}

func describeRunError(err error) string {
	var runErr *agui.RunError
	if errors.As(err, &runErr) {
		return runErr.Message
	}
	var httpErr *agui.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprintf("agent returned HTTP %d", httpErr.StatusCode)
	}
	return err.Error()
}

// processPendingTools answers queued frontend tool calls in order. full_send
// waits for the confirm modal; once everything is answered a follow-up run
// hands the results back to the agent.
func (a *App) processPendingTools() tea.Cmd {
	c := a.chat
	for len(c.pending) > 0 {
		call := c.pending[0]
		switch call.Function.Name {
		case agui.ToolSetThemeColor:
			answer := "ok"
			color, err := agui.ThemeColorArgs(call.Function.Arguments)
			if err != nil {
				answer = "error: " + err.Error()
				a.logWarn("setThemeColor: %v", err)
			} else {
				a.applyThemeColor(color)
			}
			c.transcript.AddToolResult(call.ID, answer)
			c.pending = c.pending[1:]
			c.answered = true
		case agui.ToolFullSend:
			a.openConfirm(confirmTool, call.ID)
			return nil
		default:
			c.pending = c.pending[1:]
		}
	}
	if !c.answered {
		return nil
	}
	c.answered = false
	return a.startRun()
}

func (a *App) applyThemeColor(color string) {
	a.theme = newTheme(color)
	a.logInfo("Theme color set to %s", color)
	if a.cfg == nil {
		return
	}
	if err := a.cfg.SetThemeColor(color); err != nil {
		a.logWarn("Could not save theme color: %v", err)
	}
}

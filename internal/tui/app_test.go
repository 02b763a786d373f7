package tui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/todoboard/internal/agui"
	"github.com/kingrea/todoboard/internal/config"
	"github.com/kingrea/todoboard/internal/logbook"
	"github.com/kingrea/todoboard/internal/statechan"
	"github.com/kingrea/todoboard/internal/todo"
)

func seedState() todo.State {
	return todo.State{Todos: []todo.Item{
		{ID: "a", Title: "Alpha", Status: todo.StatusTodo},
		{ID: "b", Title: "Beta", Description: "second", Status: todo.StatusInProgress},
		{ID: "c", Title: "Gamma", Status: todo.StatusDone},
	}}
}

func newTestApp(t *testing.T, opts ...Option) (*App, *statechan.Local) {
	t.Helper()
	ch := statechan.NewLocal(seedState())
	app := NewApp(ch, opts...)
	t.Cleanup(app.Close)
	app.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return app, ch
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, app *App, msgs ...tea.Msg) {
	t.Helper()
	for _, msg := range msgs {
		app.Update(msg)
	}
}

func itemByID(t *testing.T, ch statechan.Channel, id string) todo.Item {
	t.Helper()
	item, ok := ch.Read().Find(id)
	if !ok {
		t.Fatalf("item %s missing", id)
	}
	return item
}

// drive runs commands until the chain ends, feeding each message back into
// the model.
func drive(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil; i++ {
		if i > 100 {
			t.Fatalf("command chain did not settle")
		}
		msg := cmd()
		if msg == nil {
			return
		}
		_, cmd = app.Update(msg)
	}
}

func TestEditTitleCommitsOnEnter(t *testing.T) {
	app, ch := newTestApp(t)
	press(t, app, runes("e"), runes(" two"), tea.KeyMsg{Type: tea.KeyEnter})

	if got := itemByID(t, ch, "a").Title; got != "Alpha two" {
		t.Fatalf("title = %q", got)
	}
	if app.editing != editNone {
		t.Fatalf("editor should close after commit")
	}
}

func TestEditTitleEscapeReverts(t *testing.T) {
	app, ch := newTestApp(t)
	rev := ch.Revision()
	press(t, app, runes("e"), runes("zzz"), tea.KeyMsg{Type: tea.KeyEsc})

	if got := itemByID(t, ch, "a").Title; got != "Alpha" {
		t.Fatalf("title = %q", got)
	}
	if ch.Revision() != rev {
		t.Fatalf("escape should not write")
	}
}

func TestEditDescriptionClearsWhenBlank(t *testing.T) {
	app, ch := newTestApp(t)
	press(t, app, runes("l"), runes("E"))
	if app.editing != editDescription || app.editID != "b" {
		t.Fatalf("expected description editor on b, got %v %q", app.editing, app.editID)
	}
	app.descInput.SetValue("   ")
	press(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	if item := itemByID(t, ch, "b"); item.HasDescription() {
		t.Fatalf("description should be cleared, got %q", item.Description)
	}
}

func TestToggleAndDelete(t *testing.T) {
	app, ch := newTestApp(t)
	press(t, app, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if got := itemByID(t, ch, "a").Status; got != todo.StatusDone {
		t.Fatalf("toggle: status = %s", got)
	}

	// Alpha moved to done; the cursor followed it.
	press(t, app, runes("d"))
	if _, ok := ch.Read().Find("a"); ok {
		t.Fatalf("delete did not remove a")
	}
	if ch.Read().Len() != 2 {
		t.Fatalf("len = %d", ch.Read().Len())
	}
}

func TestAddTodoOpensTitleEditor(t *testing.T) {
	app, ch := newTestApp(t)
	press(t, app, runes("l"), runes("a"))

	state := ch.Read()
	if state.Len() != 4 {
		t.Fatalf("len = %d", state.Len())
	}
	added := state.Todos[3]
	if added.Title != todo.NewItemTitle || added.Status != todo.StatusInProgress {
		t.Fatalf("unexpected new item %+v", added)
	}
	if app.editing != editTitle || app.editID != added.ID {
		t.Fatalf("new card should be in title edit mode")
	}
}

func TestKeyboardDragDropsOnTargetLane(t *testing.T) {
	app, ch := newTestApp(t)
	press(t, app, runes("m"))
	if id, ok := app.board.DraggedID(); !ok || id != "a" {
		t.Fatalf("grab did not start drag: %q %v", id, ok)
	}
	press(t, app, runes("l"), runes("l"), tea.KeyMsg{Type: tea.KeyEnter})

	if got := itemByID(t, ch, "a").Status; got != todo.StatusDone {
		t.Fatalf("status = %s", got)
	}
	if _, ok := app.board.DraggedID(); ok {
		t.Fatalf("drag not cleared after drop")
	}
	if _, ok := app.board.HoveredZone(); ok {
		t.Fatalf("hover not cleared after drop")
	}
}

func TestKeyboardDragCancelDoesNotWrite(t *testing.T) {
	app, ch := newTestApp(t)
	rev := ch.Revision()
	press(t, app, runes("m"), runes("l"), tea.KeyMsg{Type: tea.KeyEsc})

	if ch.Revision() != rev {
		t.Fatalf("cancelled drag wrote state")
	}
	if _, ok := app.board.DraggedID(); ok {
		t.Fatalf("drag not cleared after cancel")
	}
}

func TestGrabDisabledWhileEditing(t *testing.T) {
	app, _ := newTestApp(t)
	press(t, app, runes("e"))
	card := app.cards["a"]
	if card.StartDrag() {
		t.Fatalf("card should not drag while editing")
	}
}

func TestPointerDragDropsOnHoveredLane(t *testing.T) {
	app, ch := newTestApp(t)
	app.pointer(tea.MouseActionPress, tea.MouseButtonLeft, pointerTarget{kind: targetCard, id: "a", lane: todo.StatusTodo, inLane: true})
	app.pointer(tea.MouseActionMotion, tea.MouseButtonNone, pointerTarget{lane: todo.StatusInProgress, inLane: true})
	app.pointer(tea.MouseActionRelease, tea.MouseButtonLeft, pointerTarget{lane: todo.StatusInProgress, inLane: true})

	if got := itemByID(t, ch, "a").Status; got != todo.StatusInProgress {
		t.Fatalf("status = %s", got)
	}
	if _, ok := app.board.DraggedID(); ok || app.pointerDrag {
		t.Fatalf("drag not ended on release")
	}
}

func TestPointerReleaseOutsideLaneEndsDrag(t *testing.T) {
	app, ch := newTestApp(t)
	rev := ch.Revision()
	app.pointer(tea.MouseActionPress, tea.MouseButtonLeft, pointerTarget{kind: targetCard, id: "a", lane: todo.StatusTodo, inLane: true})
	app.pointer(tea.MouseActionMotion, tea.MouseButtonNone, pointerTarget{lane: todo.StatusDone, inLane: true})
	app.pointer(tea.MouseActionMotion, tea.MouseButtonNone, pointerTarget{})
	app.pointer(tea.MouseActionRelease, tea.MouseButtonLeft, pointerTarget{})

	if ch.Revision() != rev {
		t.Fatalf("release outside a lane wrote state")
	}
	if _, ok := app.board.DraggedID(); ok {
		t.Fatalf("drag not ended")
	}
	if app.cards["a"].Dragging() {
		t.Fatalf("card still dragging")
	}
}

func TestPointerClickWithoutMotionDoesNotWrite(t *testing.T) {
	app, ch := newTestApp(t)
	rev := ch.Revision()
	target := pointerTarget{kind: targetCard, id: "b", lane: todo.StatusInProgress, inLane: true}
	app.pointer(tea.MouseActionPress, tea.MouseButtonLeft, target)
	app.pointer(tea.MouseActionRelease, tea.MouseButtonLeft, target)

	if ch.Revision() != rev {
		t.Fatalf("plain click wrote state")
	}
	if card, ok := app.selected(); !ok || card.Item().ID != "b" {
		t.Fatalf("click should select b")
	}
}

func TestPointerControls(t *testing.T) {
	app, ch := newTestApp(t)
	app.pointer(tea.MouseActionPress, tea.MouseButtonLeft, pointerTarget{kind: targetCheck, id: "c", lane: todo.StatusDone, inLane: true})
	if got := itemByID(t, ch, "c").Status; got != todo.StatusTodo {
		t.Fatalf("checkbox: status = %s", got)
	}

	app.pointer(tea.MouseActionPress, tea.MouseButtonLeft, pointerTarget{kind: targetTitle, id: "b", lane: todo.StatusInProgress, inLane: true})
	if app.editing != editTitle || app.editID != "b" {
		t.Fatalf("title click should open editor")
	}
	app.titleInput.SetValue("Beta renamed")
	// Clicking elsewhere blurs and commits.
	app.pointer(tea.MouseActionPress, tea.MouseButtonLeft, pointerTarget{kind: targetDelete, id: "a", lane: todo.StatusTodo, inLane: true})
	if got := itemByID(t, ch, "b").Title; got != "Beta renamed" {
		t.Fatalf("blur did not commit: %q", got)
	}
	if _, ok := ch.Read().Find("a"); ok {
		t.Fatalf("✕ did not delete a")
	}

	app.pointer(tea.MouseActionPress, tea.MouseButtonLeft, pointerTarget{kind: targetAdd, lane: todo.StatusDone, inLane: true})
	state := ch.Read()
	if last := state.Todos[state.Len()-1]; last.Status != todo.StatusDone || last.Title != todo.NewItemTitle {
		t.Fatalf("add task click: %+v", last)
	}
}

func TestStateUpdateClosesEditorOfRemovedCard(t *testing.T) {
	app, ch := newTestApp(t)
	press(t, app, runes("e"))
	ch.Write(todo.Delete(ch.Read(), "a"))
	app.Update(stateUpdatedMsg{snap: ch.Snapshot()})

	if app.editing != editNone {
		t.Fatalf("editor should close when its card disappears")
	}
	if _, ok := app.cards["a"]; ok {
		t.Fatalf("stale card kept")
	}
	if len(app.cols[0].Items) != 0 {
		t.Fatalf("todo lane should be empty")
	}
}

func TestFullSendConfirmModal(t *testing.T) {
	app, ch := newTestApp(t)
	rev := ch.Revision()
	press(t, app, runes("F"))
	if app.confirm == nil {
		t.Fatalf("F should open the confirm modal")
	}
	press(t, app, runes("n"))
	if app.confirm != nil || ch.Revision() != rev {
		t.Fatalf("cancel should close without writing")
	}

	press(t, app, runes("F"), tea.KeyMsg{Type: tea.KeyEnter})
	for _, item := range ch.Read().Todos {
		if item.Status != todo.StatusDone {
			t.Fatalf("item %s not done", item.ID)
		}
	}
	if ch.Revision() != rev+1 {
		t.Fatalf("full send should write once, revision %d -> %d", rev, ch.Revision())
	}
}

func TestThemeToolAnswersOkAndPersists(t *testing.T) {
	dir := t.TempDir()
	if err := config.InitBoardDir(dir); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	lb, err := logbook.New(cfg.ActivityLogPath())
	if err != nil {
		t.Fatal(err)
	}
	app, _ := newTestApp(t, WithConfig(cfg), WithLogbook(lb))
	app.chat.pending = []agui.ToolCall{{
		ID:       "call-theme",
		Type:     "function",
		Function: agui.FunctionCall{Name: agui.ToolSetThemeColor, Arguments: `{"themeColor":"purple"}`},
	}}
	drive(t, app, app.processPendingTools())

	if app.theme.name != "purple" {
		t.Fatalf("theme = %q", app.theme.name)
	}
	msgs := app.chat.transcript.Messages()
	last := msgs[len(msgs)-1]
	if last.Role != agui.RoleTool || last.Content != "ok" || last.ToolCallID != "call-theme" {
		t.Fatalf("tool answer = %+v", last)
	}
	reloaded, err := config.NewConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.ThemeColor() != "purple" {
		t.Fatalf("theme not persisted: %q", reloaded.ThemeColor())
	}
	lines, _ := lb.Tail(5)
	if len(lines) == 0 || !strings.Contains(lines[len(lines)-1], "Theme color set to purple") {
		t.Fatalf("activity not recorded: %v", lines)
	}
}

type scriptedAgent struct {
	mu     sync.Mutex
	inputs []agui.RunAgentInput
	runs   [][]string
}

func (s *scriptedAgent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var input agui.RunAgentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	n := len(s.inputs)
	s.inputs = append(s.inputs, input)
	s.mu.Unlock()
	if n >= len(s.runs) {
		http.Error(w, "no more runs", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	for _, evt := range s.runs[n] {
		fmt.Fprintf(w, "data: %s\n\n", evt)
	}
}

func (s *scriptedAgent) received() []agui.RunAgentInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]agui.RunAgentInput(nil), s.inputs...)
}

func TestChatRunFullSendRoundTrip(t *testing.T) {
	agent := &scriptedAgent{runs: [][]string{
		{
			`{"type":"RUN_STARTED","threadId":"t","runId":"r1"}`,
			`{"type":"STATE_SNAPSHOT","snapshot":{"todos":[{"id":"x1","title":"Agent task","status":"todo"},{"id":"x2","title":"Other","status":"in-progress"}]}}`,
			`{"type":"TOOL_CALL_START","toolCallId":"call-1","toolCallName":"full_send"}`,
			`{"type":"TOOL_CALL_ARGS","toolCallId":"call-1","delta":"{}"}`,
			`{"type":"TOOL_CALL_END","toolCallId":"call-1"}`,
			`{"type":"RUN_FINISHED","threadId":"t","runId":"r1"}`,
		},
		{
			`{"type":"RUN_STARTED","threadId":"t","runId":"r2"}`,
			`{"type":"TEXT_MESSAGE_START","messageId":"m2","role":"assistant"}`,
			`{"type":"TEXT_MESSAGE_CONTENT","messageId":"m2","delta":"All done!"}`,
			`{"type":"TEXT_MESSAGE_END","messageId":"m2"}`,
			`{"type":"RUN_FINISHED","threadId":"t","runId":"r2"}`,
		},
	}}
	srv := httptest.NewServer(agent)
	t.Cleanup(srv.Close)

	app, ch := newTestApp(t, WithAgent(agui.NewClient(srv.URL)))
	press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	if app.focus != focusChat {
		t.Fatalf("tab should focus chat")
	}
	app.chat.input.SetValue("Please full send it!")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drive(t, app, cmd)

	if _, ok := ch.Read().Find("x1"); !ok {
		t.Fatalf("agent snapshot not applied: %+v", ch.Read())
	}
	if app.confirm == nil || app.confirm.toolCallID != "call-1" {
		t.Fatalf("full_send should open the confirm modal")
	}

	_, cmd = app.Update(runes("y"))
	drive(t, app, cmd)

	for _, item := range ch.Read().Todos {
		if item.Status != todo.StatusDone {
			t.Fatalf("item %s not done after confirm", item.ID)
		}
	}
	inputs := agent.received()
	if len(inputs) != 2 {
		t.Fatalf("expected a follow-up run, got %d runs", len(inputs))
	}
	follow := inputs[1]
	last := follow.Messages[len(follow.Messages)-1]
	if last.Role != agui.RoleTool || last.Content != "yes" || last.ToolCallID != "call-1" {
		t.Fatalf("follow-up did not carry the answer: %+v", last)
	}
	if follow.ThreadID != inputs[0].ThreadID {
		t.Fatalf("thread id changed between runs")
	}
	msgs := app.chat.transcript.Messages()
	if got := msgs[len(msgs)-1].Content; got != "All done!" {
		t.Fatalf("streamed text = %q", got)
	}
	if app.chat.running {
		t.Fatalf("run still marked as running")
	}
}

func TestChatRunErrorShownInline(t *testing.T) {
	agent := &scriptedAgent{runs: [][]string{{
		`{"type":"RUN_STARTED","threadId":"t","runId":"r1"}`,
		`{"type":"RUN_ERROR","message":"model overloaded"}`,
	}}}
	srv := httptest.NewServer(agent)
	t.Cleanup(srv.Close)

	app, ch := newTestApp(t, WithAgent(agui.NewClient(srv.URL)))
	rev := ch.Revision()
	press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	app.chat.input.SetValue("What todos do I have?")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drive(t, app, cmd)

	if len(app.chat.notes) != 1 || !strings.Contains(app.chat.notes[0].text, "model overloaded") {
		t.Fatalf("notes = %+v", app.chat.notes)
	}
	if ch.Revision() != rev {
		t.Fatalf("failed run should not touch the board")
	}
	if !strings.Contains(app.renderTranscript(60), "model overloaded") {
		t.Fatalf("error not rendered in transcript")
	}
}

func TestChatSuggestionsCycle(t *testing.T) {
	app, _ := newTestApp(t)
	press(t, app, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyCtrlN})
	if got := app.chat.input.Value(); got != chatSuggestions[0] {
		t.Fatalf("ctrl+n = %q", got)
	}
	press(t, app, tea.KeyMsg{Type: tea.KeyCtrlP})
	if got := app.chat.input.Value(); got != chatSuggestions[len(chatSuggestions)-1] {
		t.Fatalf("ctrl+p = %q", got)
	}
}

func TestViewRendersLanes(t *testing.T) {
	app, ch := newTestApp(t)
	ch.Write(todo.State{Todos: []todo.Item{{ID: "only", Title: "Only", Status: todo.StatusDone}}})
	app.Update(stateUpdatedMsg{snap: ch.Snapshot()})
	out := app.View()
	for _, want := range []string{"Todo (0)", "In-Progress (0)", "Done (1)", "No tasks yet", "+ Add Task", chatGreeting} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

// internal/tui/app.go
//
// The board TUI. Three lanes of cards on the left, the agent chat on the
// right, the activity log underneath. Every board gesture goes through
// board.Board, which rewrites the shared state through the channel; pushed
// snapshots arrive as stateUpdatedMsg and re-sync the cards.

package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/kingrea/todoboard/internal/agui"
	"github.com/kingrea/todoboard/internal/board"
	"github.com/kingrea/todoboard/internal/config"
	"github.com/kingrea/todoboard/internal/logbook"
	"github.com/kingrea/todoboard/internal/statechan"
	"github.com/kingrea/todoboard/internal/todo"
)

// Logger matches logging.Logger's signature.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

type focusArea int

const (
	focusBoard focusArea = iota
	focusChat
)

type editField int

const (
	editNone editField = iota
	editTitle
	editDescription
)

// Option customizes App construction.
type Option func(*App)

// WithConfig supplies the project config. The theme color is read from it
// and setThemeColor persists back to it.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.cfg = cfg
	}
}

// WithLogbook records board activity and renders its tail.
func WithLogbook(lb *logbook.Logbook) Option {
	return func(a *App) {
		a.logbook = lb
	}
}

// WithLogger overrides the default no-op diagnostic logger.
func WithLogger(l Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithAgent enables the chat sidebar against client.
func WithAgent(client *agui.Client) Option {
	return func(a *App) {
		a.agent = client
	}
}

// WithContext bounds agent runs started from the chat.
func WithContext(ctx context.Context) Option {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

// WithStatus sets the initial footer line.
func WithStatus(status string) Option {
	return func(a *App) {
		a.statusMsg = status
	}
}

// App is the root bubbletea model.
type App struct {
	ctx     context.Context
	ch      statechan.Channel
	sub     *statechan.Subscription
	board   *board.Board
	cfg     *config.Config
	logbook *logbook.Logbook
	logger  Logger
	agent   *agui.Client
	zones   *zone.Manager

	cards map[string]*board.Card
	cols  []board.Column

	focus   focusArea
	laneIdx int
	cardIdx int

	editing     editField
	editID      string
	titleInput  textinput.Model
	descInput   textarea.Model
	grabbing    bool
	pointerDrag bool

	chat     *chatPanel
	showChat bool
	confirm  *confirmModal

	theme     theme
	keys      keyMap
	help      help.Model
	statusMsg string
	width     int
	height    int
	closed    bool
}

// NewApp builds the TUI over ch. A statechan.Watchable channel also pushes
// external updates into the board.
func NewApp(ch statechan.Channel, opts ...Option) *App {
	a := &App{
		ctx:      context.Background(),
		ch:       ch,
		logger:   nopLogger{},
		cards:    map[string]*board.Card{},
		keys:     defaultKeyMap(),
		help:     help.New(),
		zones:    zone.New(),
		showChat: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	var boardOpts []board.Option
	if a.logbook != nil {
		boardOpts = append(boardOpts, board.WithRecorder(a.logbook))
	}
	a.board = board.New(ch, boardOpts...)
	color := config.DefaultThemeColor
	if a.cfg != nil && a.cfg.ThemeColor() != "" {
		color = a.cfg.ThemeColor()
	}
	a.theme = newTheme(color)
	a.titleInput = newTitleInput()
	a.descInput = newDescriptionInput()
	a.chat = newChatPanel(a.agent, a.agentName())
	if w, ok := ch.(statechan.Watchable); ok {
		a.sub = w.Subscribe()
	}
	a.syncCards()
	return a
}

func newTitleInput() textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 200
	ti.Placeholder = todo.NewItemTitle
	return ti
}

func newDescriptionInput() textarea.Model {
	ta := textarea.New()
	ta.Prompt = ""
	ta.ShowLineNumbers = false
	ta.Placeholder = "Add a description..."
	ta.SetHeight(4)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter")
	return ta
}

func (a *App) agentName() string {
	if a.cfg != nil {
		return a.cfg.Project.Agent.Name
	}
	return config.DefaultAgentName
}

// Close releases the channel subscription and mouse zones.
func (a *App) Close() {
	if a.closed {
		return
	}
	a.closed = true
	if a.sub != nil {
		a.sub.Close()
	}
	a.chat.cancelRun()
	a.zones.Close()
}

// Init starts listening for pushed snapshots.
func (a *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.waitForState())
}

func (a *App) waitForState() tea.Cmd {
	if a.sub == nil {
		return nil
	}
	updates := a.sub.Updates()
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return nil
		}
		return stateUpdatedMsg{snap: snap}
	}
}

// syncCards rebuilds the lane view from the channel and keeps one Card per
// item, so edit state survives snapshots that do not remove the item.
func (a *App) syncCards() {
	a.cols = a.board.Columns()
	seen := make(map[string]struct{}, len(a.cards))
	for _, col := range a.cols {
		for _, item := range col.Items {
			seen[item.ID] = struct{}{}
			cb := a.board.Callbacks(item.ID)
			if card, ok := a.cards[item.ID]; ok {
				card.Sync(item, cb)
			} else {
				a.cards[item.ID] = board.NewCard(item, cb)
			}
		}
	}
	for id, card := range a.cards {
		if _, ok := seen[id]; ok {
			continue
		}
		if id == a.editID {
			a.closeEditor()
		}
		if card.Dragging() {
			card.EndDrag()
			a.grabbing = false
			a.pointerDrag = false
		}
		delete(a.cards, id)
	}
	if id, ok := a.board.DraggedID(); ok {
		if _, exists := a.cards[id]; !exists {
			a.board.DragEnd()
			a.grabbing = false
			a.pointerDrag = false
		}
	}
	a.clampCursor()
}

func (a *App) clampCursor() {
	if a.laneIdx < 0 {
		a.laneIdx = 0
	}
	if a.laneIdx >= len(a.cols) {
		a.laneIdx = len(a.cols) - 1
	}
	if a.laneIdx < 0 {
		return
	}
	n := len(a.cols[a.laneIdx].Items)
	if a.cardIdx >= n {
		a.cardIdx = n - 1
	}
	if a.cardIdx < 0 {
		a.cardIdx = 0
	}
}

// selected returns the card under the cursor.
func (a *App) selected() (*board.Card, bool) {
	if a.laneIdx < 0 || a.laneIdx >= len(a.cols) {
		return nil, false
	}
	items := a.cols[a.laneIdx].Items
	if a.cardIdx < 0 || a.cardIdx >= len(items) {
		return nil, false
	}
	card, ok := a.cards[items[a.cardIdx].ID]
	return card, ok
}

func (a *App) currentLane() todo.Status {
	if a.laneIdx < 0 || a.laneIdx >= len(a.cols) {
		return todo.StatusTodo
	}
	return a.cols[a.laneIdx].Status
}

// selectID moves the cursor onto the item with id.
func (a *App) selectID(id string) {
	for li, col := range a.cols {
		for ci, item := range col.Items {
			if item.ID == id {
				a.laneIdx, a.cardIdx = li, ci
				return
			}
		}
	}
}

// Update handles one message.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.chat.setSize(a.chatWidth(), max(6, a.height-12))
		return a, nil

	case stateUpdatedMsg:
		a.syncCards()
		return a, a.waitForState()

	case agentEventMsg:
		return a, a.handleAgentEvent(msg)

	case agentRunDoneMsg:
		return a, a.handleRunDone(msg)

	case tea.MouseMsg:
		return a, a.handleMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.Close()
			return a, tea.Quit
		}
		if a.confirm != nil {
			return a, a.handleConfirmKey(msg)
		}
		if a.editing != editNone {
			return a, a.handleEditorKey(msg)
		}
		if a.focus == focusChat {
			return a, a.handleChatKey(msg)
		}
		return a, a.handleBoardKey(msg)
	}

	if a.editing != editNone {
		return a, a.forwardToEditor(msg)
	}
	if a.focus == focusChat {
		return a, a.chat.forward(msg)
	}
	return a, nil
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

func (a *App) setStatus(format string) {
	a.statusMsg = strings.TrimSpace(format)
}

package tui

import (
	"github.com/kingrea/todoboard/internal/agui"
	"github.com/kingrea/todoboard/internal/statechan"
)

// stateUpdatedMsg carries a snapshot pushed by the channel.
type stateUpdatedMsg struct {
	snap statechan.Snapshot
}

// agentEventMsg is one streamed AG-UI event of the active run.
type agentEventMsg struct {
	runID string
	event agui.Event
}

// agentRunDoneMsg ends a run's stream.
type agentRunDoneMsg struct {
	runID string
	err   error
}

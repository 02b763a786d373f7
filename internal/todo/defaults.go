package todo

// DefaultState is the board shown before any agent or store supplies one.
func DefaultState() State {
	return State{Todos: []Item{
		{
			ID:          GenerateID(),
			Title:       "Explore the todo agent",
			Description: "Ask the assistant to add, move, or finish tasks for you.",
			Status:      StatusDone,
		},
		{
			ID:          GenerateID(),
			Title:       "Build a todo app",
			Description: "Create an AI-powered todo application",
			Status:      StatusInProgress,
		},
	}}
}

package todo

import "strings"

// NewItemTitle is the placeholder title given to items added from a lane.
const NewItemTitle = "New task"

// UpdateText replaces the title and description of the item with the given
// id. A blank title keeps the previous one; a blank description clears it.
func UpdateText(s State, id, title, description string) State {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	return mapItems(s, id, func(item Item) Item {
		if title != "" {
			item.Title = title
		}
		item.Description = description
		return item
	})
}

// SetStatus moves the item with the given id to another lane.
func SetStatus(s State, id string, status Status) State {
	return mapItems(s, id, func(item Item) Item {
		item.Status = status
		return item
	})
}

// Patch applies only the non-nil fields, the way the agent's update tool
// does. An empty Title pointer value is ignored.
func Patch(s State, id string, p ItemPatch) State {
	return mapItems(s, id, func(item Item) Item {
		if p.Title != nil {
			if title := strings.TrimSpace(*p.Title); title != "" {
				item.Title = title
			}
		}
		if p.Description != nil {
			item.Description = strings.TrimSpace(*p.Description)
		}
		if p.Status != nil {
			item.Status = *p.Status
		}
		return item
	})
}

// ItemPatch carries optional field replacements for Patch.
type ItemPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
}

// Delete removes every item with one of the given ids. Relative order of the
// remaining items is preserved.
func Delete(s State, ids ...string) State {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	out := make([]Item, 0, len(s.Todos))
	for _, item := range s.Todos {
		if _, ok := drop[item.ID]; ok {
			continue
		}
		out = append(out, item)
	}
	return State{Todos: out}
}

// Append adds items to the end of the list.
func Append(s State, items ...Item) State {
	out := make([]Item, 0, len(s.Todos)+len(items))
	out = append(out, s.Todos...)
	out = append(out, items...)
	return State{Todos: out}
}

// Filter returns the items in one lane, in list order.
func Filter(s State, status Status) []Item {
	var out []Item
	for _, item := range s.Todos {
		if item.Status == status {
			out = append(out, item)
		}
	}
	return out
}

// MarkAllDone moves every item to the done lane.
func MarkAllDone(s State) State {
	out := make([]Item, len(s.Todos))
	for i, item := range s.Todos {
		item.Status = StatusDone
		out[i] = item
	}
	return State{Todos: out}
}

func mapItems(s State, id string, fn func(Item) Item) State {
	out := make([]Item, len(s.Todos))
	for i, item := range s.Todos {
		if item.ID == id {
			item = fn(item)
		}
		out[i] = item
	}
	return State{Todos: out}
}

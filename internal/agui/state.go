package agui

import (
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/kingrea/todoboard/internal/todo"
)

// ApplyState folds a state event into current. Snapshots replace the whole
// state; deltas are RFC 6902 patches against current. Either way the result
// is validated, and on error current is left as the caller's value. Other
// event kinds report changed=false.
func ApplyState(current todo.State, evt Event) (todo.State, bool, error) {
	switch evt.Type {
	case EventStateSnapshot:
		next, err := todo.Decode(evt.Snapshot)
		if err != nil {
			return current, false, fmt.Errorf("agui: state snapshot: %w", err)
		}
		return next, !next.Equal(current), nil
	case EventStateDelta:
		patch, err := jsonpatch.DecodePatch(evt.Delta)
		if err != nil {
			return current, false, fmt.Errorf("agui: state delta: %w", err)
		}
		doc, err := todo.EncodeWire(current)
		if err != nil {
			return current, false, fmt.Errorf("agui: encode state: %w", err)
		}
		patched, err := patch.Apply(doc)
		if err != nil {
			return current, false, fmt.Errorf("agui: apply delta: %w", err)
		}
		next, err := todo.Decode(patched)
		if err != nil {
			return current, false, fmt.Errorf("agui: state delta: %w", err)
		}
		return next, !next.Equal(current), nil
	default:
		return current, false, nil
	}
}

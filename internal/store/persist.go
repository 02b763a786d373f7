package store

import (
	"context"
	"time"

	"github.com/kingrea/todoboard/internal/statechan"
	"github.com/kingrea/todoboard/internal/todo"
)

// Logger matches logging.Logger's signature.
type Logger interface {
	Printf(format string, args ...any)
}

const flushTimeout = 2 * time.Second

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Persist saves every snapshot src publishes until ctx ends, pruning the
// history to keep entries after each save. Snapshots equal to the last
// saved one are skipped. Save failures are logged and do not stop the loop.
// When ctx ends the newest state is saved once more under a fresh deadline,
// so a write published just before shutdown is not lost.
func Persist(ctx context.Context, src statechan.Watchable, st *Store, keep int, logger Logger) error {
	if logger == nil {
		logger = nopLogger{}
	}
	sub := src.Subscribe()
	defer sub.Close()

	var last todo.State
	saved := false
	if state, _, found, err := st.Latest(ctx); err == nil && found {
		last, saved = state, true
	}
	for {
		select {
		case <-ctx.Done():
			select {
			case <-sub.Updates():
			default:
			}
			state := src.Read()
			if saved && state.Equal(last) {
				return nil
			}
			flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			defer cancel()
			if _, err := st.Save(flushCtx, state); err != nil {
				logger.Printf("store: final save: %v", err)
			}
			return nil
		case snap, ok := <-sub.Updates():
			if !ok {
				return nil
			}
			state := snap.State()
			if saved && state.Equal(last) {
				continue
			}
			rev, err := st.Save(ctx, state)
			if err != nil {
				logger.Printf("store: %v", err)
				continue
			}
			last, saved = state, true
			if n, err := st.Prune(ctx, keep); err != nil {
				logger.Printf("store: %v", err)
			} else if n > 0 {
				logger.Printf("store: saved revision %d, pruned %d", rev, n)
			}
		}
	}
}

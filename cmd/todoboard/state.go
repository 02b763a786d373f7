package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingrea/todoboard/internal/config"
	"github.com/kingrea/todoboard/internal/eventbridge"
	"github.com/kingrea/todoboard/internal/statechan"
	"github.com/kingrea/todoboard/internal/store"
	"github.com/kingrea/todoboard/internal/todo"
)

const stateRequestTimeout = 10 * time.Second

func newStateCmd(flags *rootFlags) *cobra.Command {
	var bridgeURL, setFile string
	var history int
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print or replace the board snapshot",
		Long: strings.TrimSpace(`
Prints the current {revision, todos} snapshot as JSON. The running bridge is
asked first; when none answers, the latest snapshot in the local store is
used instead. --set replaces the board from a JSON file of the same shape.
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := flags.projectDir()
			if err != nil {
				return err
			}
			cfg, err := config.NewConfig(dir)
			if err != nil {
				return err
			}
			base := strings.TrimRight(strings.TrimSpace(bridgeURL), "/")
			if base == "" {
				base = eventbridge.SettingsFromConfig(cfg).URL()
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := cmd.OutOrStdout()
			switch {
			case history > 0:
				return printHistory(ctx, out, cfg, history)
			case setFile != "":
				return replaceState(ctx, out, cfg, base, setFile)
			default:
				return printState(ctx, out, cfg, base)
			}
		},
	}
	cmd.Flags().StringVar(&bridgeURL, "bridge", "", "bridge base URL (default: from config)")
	cmd.Flags().StringVar(&setFile, "set", "", "replace the board from a JSON file ({\"todos\": [...]})")
	cmd.Flags().IntVar(&history, "history", 0, "print the last N stored snapshots instead")
	return cmd
}

func printState(ctx context.Context, out io.Writer, cfg *config.Config, base string) error {
	snap, err := fetchState(ctx, base)
	if err == nil {
		return writeJSON(out, snap)
	}
	var httpErr *bridgeError
	if errors.As(err, &httpErr) || !cfg.StoreEnabled() {
		return err
	}
	st, serr := store.Open(ctx, cfg.StorePath())
	if serr != nil {
		return fmt.Errorf("bridge unreachable (%v) and store unavailable: %w", err, serr)
	}
	defer st.Close()
	state, rev, found, serr := st.Latest(ctx)
	if serr != nil {
		return serr
	}
	if !found {
		state = todo.State{Todos: []todo.Item{}}
	}
	return writeJSON(out, statechan.NewSnapshot(rev, state))
}

func replaceState(ctx context.Context, out io.Writer, cfg *config.Config, base, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	state, err := todo.Decode(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	body, err := json.Marshal(statechan.NewSnapshot(0, state))
	if err != nil {
		return err
	}
	resp, err := putState(ctx, base, body)
	if err == nil {
		return writeJSON(out, resp)
	}
	var httpErr *bridgeError
	if errors.As(err, &httpErr) || !cfg.StoreEnabled() {
		return err
	}
	st, serr := store.Open(ctx, cfg.StorePath())
	if serr != nil {
		return fmt.Errorf("bridge unreachable (%v) and store unavailable: %w", err, serr)
	}
	defer st.Close()
	rev, serr := st.Save(ctx, state)
	if serr != nil {
		return serr
	}
	return writeJSON(out, map[string]any{"status": "stored", "revision": rev})
}

func printHistory(ctx context.Context, out io.Writer, cfg *config.Config, limit int) error {
	st, err := store.Open(ctx, cfg.StorePath())
	if err != nil {
		return err
	}
	defer st.Close()
	entries, err := st.History(ctx, limit)
	if err != nil {
		return err
	}
	type row struct {
		Revision int64      `json:"revision"`
		SavedAt  time.Time  `json:"saved_at"`
		Count    int        `json:"count"`
		State    todo.State `json:"state"`
	}
	rows := make([]row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, row{Revision: e.Revision, SavedAt: e.SavedAt, Count: e.Count, State: e.State})
	}
	return writeJSON(out, rows)
}

// bridgeError is a non-2xx answer from a reachable bridge. Unlike a
// connection failure it does not fall back to the store.
type bridgeError struct {
	status int
	body   string
}

func (e *bridgeError) Error() string {
	return fmt.Sprintf("bridge returned HTTP %d: %s", e.status, strings.TrimSpace(e.body))
}

func fetchState(ctx context.Context, base string) (statechan.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, stateRequestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+eventbridge.StatePath, nil)
	if err != nil {
		return statechan.Snapshot{}, err
	}
	body, err := doBridge(req)
	if err != nil {
		return statechan.Snapshot{}, err
	}
	return statechan.DecodeSnapshot(body)
}

func putState(ctx context.Context, base string, payload []byte) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, stateRequestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, base+eventbridge.StatePath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	body, err := doBridge(req)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func doBridge(req *http.Request) ([]byte, error) {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, eventbridge.DefaultMaxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &bridgeError{status: resp.StatusCode, body: string(body)}
	}
	return body, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

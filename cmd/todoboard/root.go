package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/todoboard/internal/agui"
	"github.com/kingrea/todoboard/internal/tui"
)

type rootFlags struct {
	dir      string
	connect  string
	agentURL string
	noBridge bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:          "todoboard",
		Short:        "Todo board synced with an AG-UI agent",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Open the board for the current directory
  todoboard

  # Join a board hosted by another todoboard process
  todoboard --connect ws://127.0.0.1:8765/state/stream

  # Headless bridge for agents and replicas
  todoboard serve
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), flags)
		},
	}
	cmd.PersistentFlags().StringVar(&flags.dir, "dir", "", "project directory (default: current directory)")
	cmd.Flags().StringVar(&flags.connect, "connect", "", "websocket URL of a bridge to replicate instead of a local board")
	cmd.Flags().StringVar(&flags.agentURL, "agent-url", "", "AG-UI agent endpoint (overrides agent.url)")
	cmd.Flags().BoolVar(&flags.noBridge, "no-bridge", false, "do not start the state bridge")

	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newStateCmd(flags))
	return cmd
}

func (f *rootFlags) projectDir() (string, error) {
	if dir := strings.TrimSpace(f.dir); dir != "" {
		return dir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return cwd, nil
}

func runTUI(parent context.Context, flags *rootFlags) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM)
	defer stop()

	dir, err := flags.projectDir()
	if err != nil {
		return err
	}
	rt, err := startRuntime(ctx, runtimeOptions{
		dir:         dir,
		connect:     flags.connect,
		startBridge: !flags.noBridge,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	agentURL := strings.TrimSpace(flags.agentURL)
	if agentURL == "" {
		agentURL = rt.cfg.AgentURL()
	}
	client := agui.NewClient(agentURL, agui.WithLogger(rt.logger))

	app := tui.NewApp(rt.channel,
		tui.WithConfig(rt.cfg),
		tui.WithLogbook(rt.logbook),
		tui.WithLogger(rt.logger),
		tui.WithAgent(client),
		tui.WithContext(ctx),
		tui.WithStatus(rt.status()),
	)
	defer app.Close()

	p := tea.NewProgram(app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

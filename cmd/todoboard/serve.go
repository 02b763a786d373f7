package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the state bridge and snapshot store without the TUI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			dir, err := flags.projectDir()
			if err != nil {
				return err
			}
			rt, err := startRuntime(ctx, runtimeOptions{
				dir:           dir,
				startBridge:   true,
				requireBridge: true,
			})
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "todoboard bridge listening on %s\n", rt.bridge.BaseURL())
			fmt.Fprintf(out, "  state:  %s/state\n", rt.bridge.BaseURL())
			fmt.Fprintf(out, "  stream: %s\n", rt.settings.StreamURL())
			if rt.store != nil {
				fmt.Fprintf(out, "  store:  %s\n", rt.store.Path())
			}
			<-ctx.Done()
			fmt.Fprintln(out, "shutting down")
			return nil
		},
	}
}

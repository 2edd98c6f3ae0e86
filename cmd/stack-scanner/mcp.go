package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/stack-scanner/internal/mcp"
	"github.com/ironsheep/stack-scanner/internal/observability"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the scanner as MCP tools over stdin/stdout",
		Long: `Run an MCP (Model Context Protocol) server on stdin/stdout so agent
clients can scan photos, preview the batch and save it. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Stdout carries the protocol.
			a, err := newApp(ctx, opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			mcp.ServerVersion = Version
			a.log.Debug().Str("version", Version).Str("commit", GitCommit).Msg("mcp server starting")

			srv := mcp.New(a.svc, a.engine, observability.Component(a.log, "mcp"))
			return srv.Run(ctx, os.Stdin, os.Stdout)
		},
	}
}

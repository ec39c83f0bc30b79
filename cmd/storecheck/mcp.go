package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve storecheck tools over MCP stdio",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c, st, logger, err := setup(cmd, os.Stderr, false)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Start(ctx); err != nil {
		return err
	}

	srv := mcp.NewServer(&mcp.Implementation{Name: "storecheck", Version: "1.0.0"}, nil)
	c.RegisterMCP(srv, st)

	logger.Info("mcp: serving on stdio")
	return srv.Run(ctx, &mcp.StdioTransport{})
}

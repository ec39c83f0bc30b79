package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [url...]",
	Short: "Check pages once and exit non-zero if any fails",
	Long:  "Check the given URLs (or the config's pages) one at a time. Each result is written as a JSON line to stdout unless sinks are configured. Exit status is 1 when any page fails.",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c, _, _, err := setup(cmd, os.Stdout, true)
	if err != nil {
		return err
	}
	defer c.Close()

	urls := args
	if len(urls) == 0 {
		urls = c.Config().Pages
	}
	if len(urls) == 0 {
		return errors.New("no pages to check: pass URLs or set pages in the config")
	}

	if err := c.Start(ctx); err != nil {
		return err
	}
	_, sum := c.CheckAll(ctx, urls)
	if sum.Failed > 0 {
		return errPagesFailed
	}
	return nil
}

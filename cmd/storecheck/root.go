package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/storecheck/storecheck"
)

var errPagesFailed = errors.New("one or more pages failed")

var rootCmd = &cobra.Command{
	Use:           "storecheck",
	Short:         "Check storefront product pages for production readiness",
	Long:          "storecheck loads product pages in Chrome, verifies the elements a buyer needs, audits image loading and classifies console and network errors into one pass/fail verdict per page.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "YAML configuration file")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("platform", "", "Force a selector profile (auto, shopify, bigcommerce, generic)")
	pf.String("remote", "", "WebSocket URL of an external Chrome")
	pf.Bool("headful", false, "Run Chrome headful under Xvfb")
	pf.Int("max-critical", -1, "Override tolerance.max_critical_errors")
	pf.Int("max-warnings", -1, "Override tolerance.max_warnings")
	pf.String("store", "", "SQLite result history path")

	rootCmd.AddCommand(runCmd, serveCmd, mcpCmd, profilesCmd)
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unsupported log level: %s (use debug, info, warn or error)", level)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger, nil
}

// loadConfig reads --config (or defaults) and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*storecheck.Config, error) {
	f := cmd.Flags()
	path, _ := f.GetString("config")

	var cfg *storecheck.Config
	if path != "" {
		var err error
		if cfg, err = storecheck.LoadConfigFile(path); err != nil {
			return nil, err
		}
	} else {
		cfg = storecheck.DefaultConfig()
	}

	if v, _ := f.GetString("platform"); v != "" {
		cfg.Platform = v
	}
	if v, _ := f.GetString("remote"); v != "" {
		cfg.Browser.Remote = v
	}
	if v, _ := f.GetBool("headful"); v {
		cfg.Browser.Mode = "headful"
	}
	if v, _ := f.GetInt("max-critical"); v >= 0 {
		cfg.Tolerance.MaxCriticalErrors = &v
	}
	if v, _ := f.GetInt("max-warnings"); v >= 0 {
		cfg.Tolerance.MaxWarnings = &v
	}
	if v, _ := f.GetString("store"); v != "" {
		cfg.Store.Path = v
	}
	return cfg, cfg.Validate()
}

// openStore opens the history when configured; nil otherwise.
func openStore(cfg *storecheck.Config) (*storecheck.Store, error) {
	if cfg.Store.Path == "" {
		return nil, nil
	}
	st, err := storecheck.OpenStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// setup builds the logger, config, sinks and checker shared by commands.
// Stdout sinks write to out; with defaultOut a stdout sink is added when
// the config names none. Results always go to the store when one is
// configured.
func setup(cmd *cobra.Command, out io.Writer, defaultOut bool) (*storecheck.Checker, *storecheck.Store, *slog.Logger, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	sinks, err := storecheck.SinksFromConfig(cfg, out, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	if defaultOut && len(sinks) == 0 {
		sinks = append(sinks, storecheck.NewStdoutSink(out))
	}
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if st != nil {
		sinks = append(sinks, st)
	}
	c, err := storecheck.New(cfg, logger, storecheck.WithSinks(sinks...))
	if err != nil {
		if st != nil {
			st.Close()
		}
		return nil, nil, nil, err
	}
	return c, st, logger, nil
}

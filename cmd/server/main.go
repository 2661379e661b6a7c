package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"plaingov/internal/platform/config"
)

// cfg starts from the environment; flags that were set explicitly win.
var cfg config.Server

var flags struct {
	transport    string
	addr         string
	fetchTimeout time.Duration
	fetchRetries uint64
	userAgent    string
	logLevel     string
	logFormat    string
	catalog      string
}

var rootCmd = &cobra.Command{
	Use:   "plaingov",
	Short: "MCP server answering questions about government programs from official sources",
	Long: `plaingov serves a fixed set of tools over the Model Context Protocol.

Every answer is built from the program's official page, fetched at call time,
and ends with a source attribution. Eligibility checks are conservative rule
evaluations over facts the caller supplies.

Run without a subcommand to serve over stdio.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.FromEnv()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyFlags(cmd, &loaded)
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg = loaded
		return nil
	},
	RunE: runServe,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.transport, "transport", config.TransportStdio, "transport to serve: stdio or http")
	pf.StringVar(&flags.addr, "addr", ":8080", "listen address for the http transport")
	pf.DurationVar(&flags.fetchTimeout, "fetch-timeout", 15*time.Second, "per-attempt timeout for official source fetches")
	pf.Uint64Var(&flags.fetchRetries, "fetch-retries", 0, "extra attempts on transient fetch failures (max 5)")
	pf.StringVar(&flags.userAgent, "user-agent", "", "User-Agent sent to official sources")
	pf.StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "text", "log format: text or json")
	pf.StringVar(&flags.catalog, "catalog", "", "YAML program catalog replacing the built-in one")

	rootCmd.AddCommand(serveCmd, programsCmd, probeCmd, tokenCmd)
}

func applyFlags(cmd *cobra.Command, c *config.Server) {
	f := cmd.Flags()
	if f.Changed("transport") {
		c.Transport = flags.transport
	}
	if f.Changed("addr") {
		c.Addr = flags.addr
	}
	if f.Changed("fetch-timeout") {
		c.FetchTimeout = flags.fetchTimeout
	}
	if f.Changed("fetch-retries") {
		c.FetchRetries = flags.fetchRetries
	}
	if f.Changed("user-agent") {
		c.UserAgent = flags.userAgent
	}
	if f.Changed("log-level") {
		c.LogLevel = flags.logLevel
	}
	if f.Changed("log-format") {
		c.LogFormat = flags.logFormat
	}
	if f.Changed("catalog") {
		c.CatalogPath = flags.catalog
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

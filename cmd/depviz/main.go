// Package main provides the depviz CLI entry point.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/depviz/internal/client"
	"github.com/matsen/depviz/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	verbose     bool
	serverFlag  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors hides cobra's own errors, such as missing arguments
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "depviz",
	Short: "Explore artifact dependency graphs",
	Long: `depviz explores the dependency graph of uploaded build descriptors.

Core features:
  - Upload descriptors to a depviz server
  - Whole-graph and rooted queries with depth, direction and collapse
  - Filterable dependency table with CSV export
  - Interactive exploration with layouts and node navigation
  - A built-in server backed by SQLite

All commands output JSON by default for agent integration.

Environment Variables:
  DEPVIZ_SERVER  Server URL (overrides server_url)
  DEPVIZ_DB      Store path for 'depviz serve' (overrides db_path)`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Load .env file if present (for DEPVIZ_SERVER and DEPVIZ_DB)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests to stderr")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Server URL (default from config)")
	rootCmd.Version = Version
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// newLogger returns a stderr logger. Only warnings are shown unless
// --verbose is set.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newClient builds a server client from the flags and configuration.
func newClient(cfg *config.Config) *client.Client {
	server := cfg.Server()
	if serverFlag != "" {
		server = serverFlag
	}
	return client.NewClient(
		client.WithBaseURL(server),
		client.WithRateLimit(cfg.Rate()),
		client.WithLogger(newLogger()),
	)
}

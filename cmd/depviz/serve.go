package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matsen/depviz/internal/server"
)

var (
	serveAddr   string
	serveDB     string
	serveOrigin string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the depviz data server",
	Long: `Run the depviz data server backed by a SQLite store.

The store is created on first use. Uploaded descriptors are ingested into
it and every query reads from it.

Examples:
  depviz serve
  depviz serve --addr :9090 --db ./deps.db`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "Store path (default from config)")
	serveCmd.Flags().StringVar(&serveOrigin, "allow-origin", "*", "CORS allowed origin")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	addr := serveAddr
	if addr == "" {
		addr = cfg.Listen()
	}
	db, dbPath, err := openStore(cfg, serveDB)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	defer db.Close()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	logger.Info("store opened", "path", dbPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(db, server.WithLogger(logger), server.WithAllowedOrigin(serveOrigin))
	if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		db.Close()
		os.Exit(ExitServerError)
	}
}

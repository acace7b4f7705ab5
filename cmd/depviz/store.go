package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/depviz/internal/config"
	"github.com/matsen/depviz/internal/store"
)

var storeDB string

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Dump and restore the server's local store",
	Long: `Dump and restore the SQLite store used by depviz serve.

Snapshots are JSONL files with one artifact or edge per line. Restoring
merges into the store; rows already present are kept.`,
}

var storeDumpCmd = &cobra.Command{
	Use:   "dump <file.jsonl>",
	Short: "Write the store to a JSONL snapshot",
	Args:  cobra.ExactArgs(1),
	Run:   runStoreDump,
}

var storeRestoreCmd = &cobra.Command{
	Use:   "restore <file.jsonl>",
	Short: "Merge a JSONL snapshot into the store",
	Args:  cobra.ExactArgs(1),
	Run:   runStoreRestore,
}

// RestoreResponse is the response for store restore.
type RestoreResponse struct {
	Status       string `json:"status"`
	NewArtifacts int    `json:"new_artifacts"`
	NewEdges     int    `json:"new_edges"`
}

// DumpResponse is the response for store dump.
type DumpResponse struct {
	Status string `json:"status"`
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

func init() {
	storeCmd.PersistentFlags().StringVar(&storeDB, "db", "", "Store path (default from config)")
	storeCmd.AddCommand(storeDumpCmd)
	storeCmd.AddCommand(storeRestoreCmd)
	rootCmd.AddCommand(storeCmd)
}

// openStore opens the store at path, or the configured one when path is
// empty, creating its directory.
func openStore(cfg *config.Config, path string) (*store.DB, string, error) {
	if path == "" {
		path = cfg.Database()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, path, fmt.Errorf("creating store directory: %w", err)
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, path, fmt.Errorf("opening store: %w", err)
	}
	return db, path, nil
}

func runStoreDump(cmd *cobra.Command, args []string) {
	db, _, err := openStore(mustLoadConfig(), storeDB)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	defer db.Close()

	out := args[0]
	if err := db.WriteSnapshot(context.Background(), out); err != nil {
		db.Close()
		exitWithError(ExitDataError, "writing snapshot: %v", err)
	}
	sum, err := store.ComputeJSONLHash(out)
	if err != nil {
		db.Close()
		exitWithError(ExitDataError, "hashing snapshot: %v", err)
	}

	if humanOutput {
		fmt.Printf("Wrote %s (sha256 %s)\n", out, sum[:12])
		return
	}
	outputJSON(DumpResponse{Status: "written", Path: out, SHA256: sum})
}

func runStoreRestore(cmd *cobra.Command, args []string) {
	db, _, err := openStore(mustLoadConfig(), storeDB)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	defer db.Close()

	f, err := os.Open(args[0])
	if err != nil {
		db.Close()
		exitWithError(ExitDataError, "opening snapshot: %v", err)
	}
	defer f.Close()

	res, err := db.ReadSnapshot(context.Background(), f)
	if err != nil {
		db.Close()
		exitWithError(ExitDataError, "restoring snapshot: %v", err)
	}

	if humanOutput {
		fmt.Printf("Restored %d new artifacts, %d new edges\n", res.NewArtifacts, res.NewEdges)
		return
	}
	outputJSON(RestoreResponse{Status: "restored", NewArtifacts: res.NewArtifacts, NewEdges: res.NewEdges})
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/depviz/internal/client"
	"github.com/matsen/depviz/internal/gav"
	"github.com/matsen/depviz/internal/query"
	"github.com/matsen/depviz/internal/ui"
)

// Table column widths for human output.
const (
	TableCellMaxLen = 48
)

var (
	tableArtifact      string
	tableGroup         string
	tableScopes        []string
	tableIgnoreGroup   bool
	tableIgnoreVersion bool
	tableLimit         int
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "List dependency pairs",
	Long: `List dependency pairs, filtered by artifact and group substrings.

Patterns match case-insensitively against either end of a pair. Ignoring
group or version blanks that coordinate and merges rows that become equal.

Examples:
  depviz table --artifact slf4j --human
  depviz table --group org.junit --scope test
  depviz table --ignore-version --limit 50`,
	Args: cobra.NoArgs,
	Run:  runTable,
}

func init() {
	addTableFilterFlags(tableCmd)
	tableCmd.Flags().IntVar(&tableLimit, "limit", 0, "Maximum rows (default from config)")
	rootCmd.AddCommand(tableCmd)
}

// addTableFilterFlags registers the filters shared by table and export.
func addTableFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&tableArtifact, "artifact", "", "Artifact id substring")
	cmd.Flags().StringVar(&tableGroup, "group", "", "Group id substring")
	cmd.Flags().StringSliceVar(&tableScopes, "scope", nil, "Restrict to scopes (repeatable)")
	cmd.Flags().BoolVar(&tableIgnoreGroup, "ignore-group", false, "Blank group ids and merge rows")
	cmd.Flags().BoolVar(&tableIgnoreVersion, "ignore-version", false, "Blank versions and merge rows")
}

func tableQueryFromFlags(limit int) query.TableQuery {
	return query.TableQuery{
		ArtifactPattern: tableArtifact,
		GroupPattern:    tableGroup,
		Scopes:          tableScopes,
		Collapse:        gav.Collapse{Group: tableIgnoreGroup, Version: tableIgnoreVersion},
		Limit:           limit,
	}
}

func runTable(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	limit := tableLimit
	if limit <= 0 {
		limit = cfg.Limit()
	}

	c := newClient(cfg)
	rows, err := c.FetchTable(context.Background(), tableQueryFromFlags(limit))
	exitOnError(err, "fetching dependency table")

	if !humanOutput {
		if rows == nil {
			rows = []client.Row{}
		}
		outputJSON(rows)
		return
	}
	printRowsHuman(rows, limit)
}

func printRowsHuman(rows []client.Row, limit int) {
	if len(rows) == 0 {
		fmt.Println("No dependencies match.")
		return
	}
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = []string{
			truncateString(r.FromGAV, TableCellMaxLen),
			truncateString(r.ToGAV, TableCellMaxLen),
			r.Scope,
		}
	}
	ui.Table(os.Stdout, []string{"FROM", "TO", "SCOPE"}, cells)
	if len(rows) == limit {
		fmt.Printf("\n%s showing the first %d rows; use --limit or 'depviz export' for more\n", ui.WarnIcon(), limit)
	}
}

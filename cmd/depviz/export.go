package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [dependencies|artifact|dependencyedge]",
	Short: "Export data as CSV",
	Long: `Export data as CSV.

'dependencies' (the default) exports the dependency table with the same
filters as 'depviz table' and no row limit. 'artifact' and 'dependencyedge'
export whole store tables.

Examples:
  depviz export -o deps.csv --artifact slf4j
  depviz export artifact > artifacts.csv`,
	Args: cobra.MaximumNArgs(1),
	Run:  runExport,
}

func init() {
	addTableFilterFlags(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	what := "dependencies"
	if len(args) == 1 {
		what = args[0]
	}

	var w io.Writer = os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			exitWithError(ExitError, "creating output file: %v", err)
		}
		defer f.Close()
		w = f
	}

	c := newClient(mustLoadConfig())
	ctx := context.Background()
	var n int64
	var err error
	if what == "dependencies" {
		n, err = c.ExportDependencies(ctx, tableQueryFromFlags(0), w)
	} else {
		n, err = c.ExportTable(ctx, what, w)
	}
	exitOnError(err, "exporting %s", what)

	if exportOutput == "" {
		return
	}
	if humanOutput {
		fmt.Printf("Wrote %s (%d bytes)\n", exportOutput, n)
	} else {
		outputJSON(StatusResponse{Status: "written", Path: exportOutput, Bytes: n})
	}
}

package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/depviz/internal/client"
	"github.com/matsen/depviz/internal/ui"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file-or-dir>...",
	Short: "Upload build descriptors to the server",
	Long: `Upload build descriptors to the server as one batch.

Directories are searched recursively for pom.xml and *.pom files.
Files that fail to parse are reported per file; the rest are ingested.

Examples:
  depviz upload pom.xml
  depviz upload ~/.m2/repository/org/slf4j --human`,
	Args: cobra.MinimumNArgs(1),
	Run:  runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) {
	files, err := collectDescriptors(args)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	if len(files) == 0 {
		exitWithError(ExitDataError, "no descriptors found in %s", strings.Join(args, ", "))
	}

	c := newClient(mustLoadConfig())
	outcome, err := c.Upload(context.Background(), files)
	exitOnError(err, "uploading %d files", len(files))

	if humanOutput {
		printUploadHuman(outcome)
	} else {
		outputJSON(outcome)
	}
	if !outcome.Success {
		os.Exit(ExitDataError)
	}
}

func printUploadHuman(o client.UploadOutcome) {
	if !o.Success {
		ui.Errorf(os.Stdout, "upload rejected: %s", o.Error)
		return
	}
	fmt.Printf("%s Parsed %d descriptors: %d new artifacts, %d new edges\n",
		ui.StatusIcon(true), o.Parsed, o.NewArtifacts, o.NewEdges)
	if o.Skipped > 0 {
		fmt.Printf("%s Skipped %d:\n", ui.WarnIcon(), o.Skipped)
		for _, e := range o.Errors {
			fmt.Printf("  %s\n", e)
		}
	}
}

// isDescriptor reports whether name looks like a build descriptor.
func isDescriptor(name string) bool {
	return name == "pom.xml" || strings.HasSuffix(name, ".pom")
}

// collectDescriptors reads the named files and the descriptors found under
// the named directories. Explicitly named files are taken as is.
func collectDescriptors(paths []string) ([]client.UploadFile, error) {
	var files []client.UploadFile
	add := func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		files = append(files, client.UploadFile{Name: filepath.Base(path), Content: data})
		return nil
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if err := add(p); err != nil {
				return nil, err
			}
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isDescriptor(d.Name()) {
				return nil
			}
			return add(path)
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

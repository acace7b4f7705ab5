package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matsen/depviz/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values in ~/.config/depviz/config.yml.

Usage:
  depviz config                              # Show all config
  depviz config server-url                   # Get specific value
  depviz config server-url http://deps:8080  # Set value

Keys:
  server-url      Data server base URL
  default-layout  Initial layout (dagre, cose, grid, circle, concentric, breadthfirst)
  debounce-ms     Free-text filter debounce in milliseconds
  table-limit     Default dependency table row cap
  rate-limit      Client requests per second (negative disables limiting)
  db-path         Store path used by 'depviz serve'
  listen-addr     Address used by 'depviz serve'`,
	Args: cobra.MaximumNArgs(2),
	Run:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()

	// No args: show all config
	if len(args) == 0 {
		values := cfg.Values()
		if !humanOutput {
			outputJSON(values)
			return
		}
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%-15s %s\n", k+":", values[k])
		}
		return
	}

	key := config.NormalizeKey(args[0])

	// One arg: get specific value
	if len(args) == 1 {
		v, err := cfg.Get(key)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			fmt.Println(v)
		} else {
			outputJSON(map[string]string{key: v})
		}
		return
	}

	// Two args: set value in the file, without environment overrides
	value := args[1]
	fileCfg, err := config.LoadFile(config.Path())
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if err := fileCfg.Set(key, value); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if err := fileCfg.Save(config.Path()); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
	}
}

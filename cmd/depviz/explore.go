package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var exploreCmd = &cobra.Command{
	Use:   "explore [root-id]",
	Short: "Explore the graph interactively",
	Long: `Explore the graph interactively.

Starts in the global view, or in the rooted view when a root is given.
Type 'help' at the prompt for commands. Commands can also be piped in:

  printf 'root com.acme:app:1.0\ndepth 1\nsave app.html\n' | depviz explore`,
	Args: cobra.MaximumNArgs(1),
	Run:  runExplore,
}

func init() {
	rootCmd.AddCommand(exploreCmd)
}

func runExplore(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := newSession(ctx, newClient(cfg), cfg, os.Stdout, newLogger())
	if err != nil {
		exitWithError(ExitError, "starting session: %v", err)
	}
	defer s.close()

	first := "global"
	if len(args) == 1 {
		first = "root " + args[0]
	}
	if _, err := s.exec(first); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	prompt := isTerminal(os.Stdin)
	if prompt {
		fmt.Println("Type 'help' for commands.")
	}
	if err := s.run(os.Stdin, prompt); err != nil {
		exitWithError(ExitError, "reading input: %v", err)
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

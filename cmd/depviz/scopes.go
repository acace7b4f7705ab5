package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var scopesCmd = &cobra.Command{
	Use:   "scopes",
	Short: "List known dependency scopes",
	Long: `List the dependency scopes seen in a sample of the dependency table.

Scopes that only occur beyond the sample are not listed.`,
	Args: cobra.NoArgs,
	Run:  runScopes,
}

func init() {
	rootCmd.AddCommand(scopesCmd)
}

func runScopes(cmd *cobra.Command, args []string) {
	c := newClient(mustLoadConfig())
	scopes, err := c.FetchScopeValues(context.Background())
	exitOnError(err, "fetching scopes")

	if !humanOutput {
		if scopes == nil {
			scopes = []string{}
		}
		outputJSON(scopes)
		return
	}
	for _, s := range scopes {
		fmt.Println(s)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matsen/depviz/internal/client"
	"github.com/matsen/depviz/internal/ui"
)

var artifactsLimit int

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "List stored artifacts",
	Args:  cobra.NoArgs,
	Run:   runArtifacts,
}

func init() {
	artifactsCmd.Flags().IntVar(&artifactsLimit, "limit", client.DefaultArtifactLimit, "Maximum artifacts to list")
	rootCmd.AddCommand(artifactsCmd)
}

func runArtifacts(cmd *cobra.Command, args []string) {
	c := newClient(mustLoadConfig())
	arts, err := c.Artifacts(context.Background(), artifactsLimit)
	exitOnError(err, "listing artifacts")

	if !humanOutput {
		if arts == nil {
			arts = []client.Artifact{}
		}
		outputJSON(arts)
		return
	}
	if len(arts) == 0 {
		fmt.Println("No artifacts stored.")
		return
	}
	rows := make([][]string, len(arts))
	for i, a := range arts {
		rows[i] = []string{strconv.FormatInt(a.ID, 10), a.GroupID, a.ArtifactID, a.Version}
	}
	ui.Table(os.Stdout, []string{"ID", "GROUP", "ARTIFACT", "VERSION"}, rows)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/sutra/internal/similarity"
	"github.com/matsen/sutra/internal/storage"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query layer from source data",
	Long: `Rebuild the SQLite query database from the JSONL source files and
refresh the similarity index.

Use this after pulling changes from git or if the database becomes corrupted.`,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status string                `json:"status"`
	Counts storage.RebuildCounts `json:"counts"`
	Index  similarity.BuildStats `json:"index"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	p := mustOpenProject()
	defer p.close()

	counts := mustRebuild(p.db, p.root)
	res := p.refresh(cmd)

	if humanOutput {
		fmt.Printf("Rebuilt query database with %d ideas, %d characters, %d relationships, %d events and %d appearances\n",
			counts.Ideas, counts.Characters, counts.Relationships, counts.Events, counts.Appearances)
		fmt.Printf("Similarity index: %d indexed, %d edges\n", res.Stats.Indexed, res.Stats.Edges)
	} else {
		outputJSON(RebuildResult{
			Status: "rebuilt",
			Counts: counts,
			Index:  res.Stats,
		})
	}
	return nil
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/sutra/internal/config"
	"github.com/matsen/sutra/internal/idea"
	"github.com/matsen/sutra/internal/similarity"
)

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexCheckCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the similarity index",
	Long: `Commands for the TF-IDF similarity index over ideas.

The index is a disposable cache under .sutra/cache; every idea command keeps
it current, so these commands are only needed after manual edits.`,
}

// IndexBuildResult is the response for the index build command.
type IndexBuildResult struct {
	Status    string                `json:"status"`
	Threshold float64               `json:"threshold"`
	Stats     similarity.BuildStats `json:"stats"`
	Path      string                `json:"path"`
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the similarity index from scratch",
	RunE:  runIndexBuild,
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	p := mustOpenProject()
	defer p.close()

	if err := p.eng.Reset(); err != nil {
		exitWithError(ExitError, "clearing index cache: %v", err)
	}
	res := p.refresh(cmd)

	if humanOutput {
		fmt.Printf("Indexed %d of %d ideas: %d terms, %d edges (threshold %.2f) in %s\n",
			res.Stats.Indexed, res.Stats.Documents, res.Stats.Terms, res.Stats.Edges,
			p.eng.Index().Threshold(), res.Stats.Duration)
		if res.Stats.Skipped > 0 {
			warnColor.Printf("  %d idea(s) had no indexable terms\n", res.Stats.Skipped)
		}
	} else {
		outputJSON(IndexBuildResult{
			Status:    "built",
			Threshold: p.eng.Index().Threshold(),
			Stats:     res.Stats,
			Path:      config.IndexPath(p.root),
		})
	}
	return nil
}

// IndexCheckResult is the response for the index check command.
type IndexCheckResult struct {
	Exists    bool    `json:"exists"`
	Fresh     bool    `json:"fresh"`
	Ideas     int     `json:"ideas"`
	Indexed   int     `json:"indexed"`
	Edges     int     `json:"edges"`
	Threshold float64 `json:"threshold"`
	Reason    string  `json:"reason,omitempty"`
}

var indexCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report whether the cached index matches the current ideas",
	RunE:  runIndexCheck,
}

func runIndexCheck(cmd *cobra.Command, args []string) error {
	p := mustOpenProject()
	defer p.close()

	ideas, err := p.db.ListIdeas(cmd.Context(), p.cfg.ProjectID)
	if err != nil {
		exitWithError(ExitDataError, "querying ideas: %v", err)
	}
	result := checkIndex(config.IndexPath(p.root), idea.Documents(ideas), p.gcfg.IndexThreshold)

	if humanOutput {
		if result.Fresh {
			fmt.Printf("Index is current: %d ideas, %d edges\n", result.Indexed, result.Edges)
		} else {
			warnColor.Printf("Index is stale: %s\n", result.Reason)
			fmt.Println("Run 'sutra index build' to rebuild it.")
		}
	} else {
		outputJSON(result)
	}
	return nil
}

// checkIndex compares the cache at path with docs and threshold.
func checkIndex(path string, docs []similarity.Document, threshold float64) IndexCheckResult {
	result := IndexCheckResult{Ideas: len(docs), Threshold: threshold}

	snap, err := similarity.Load(path)
	switch {
	case errors.Is(err, similarity.ErrIndexNotFound):
		result.Reason = "no index cache"
		return result
	case err != nil:
		result.Exists = true
		result.Reason = err.Error()
		return result
	}

	result.Exists = true
	result.Indexed = len(snap.Vectors)
	result.Edges = len(snap.Similarities)
	switch {
	case snap.Threshold != threshold:
		result.Reason = fmt.Sprintf("built with threshold %.2f", snap.Threshold)
	case snap.Fingerprint != similarity.Fingerprint(docs):
		result.Reason = "ideas changed since the last build"
	default:
		result.Fresh = true
	}
	return result
}

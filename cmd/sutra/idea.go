package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/sutra/internal/clipboard"
	"github.com/matsen/sutra/internal/config"
	"github.com/matsen/sutra/internal/idea"
	"github.com/matsen/sutra/internal/similarity"
	"github.com/matsen/sutra/internal/storage"
)

func init() {
	rootCmd.AddCommand(ideaCmd)

	ideaAddCmd.Flags().StringP("tags", "t", "", "Extra comma-separated tags")
	ideaAddCmd.Flags().Int64("scene", 0, "Link the idea to a scene id")
	ideaAddCmd.Flags().Bool("paste", false, "Capture the clipboard text instead of arguments")
	ideaCmd.AddCommand(ideaAddCmd)

	ideaListCmd.Flags().StringP("search", "s", "", "Full-text search over content and tags")
	ideaListCmd.Flags().IntP("limit", "l", DefaultListLimit, "Maximum number of results")
	ideaCmd.AddCommand(ideaListCmd)

	ideaCmd.AddCommand(ideaDeleteCmd)

	ideaSimilarCmd.Flags().IntP("limit", "l", 10, "Maximum number of results")
	ideaCmd.AddCommand(ideaSimilarCmd)
}

var ideaCmd = &cobra.Command{
	Use:   "idea",
	Short: "Capture and query ideas",
	Long:  `Commands for capturing ideas and exploring how they relate.`,
}

// IdeaAddResult is the response for the idea add command.
type IdeaAddResult struct {
	Status    string            `json:"status"`
	Idea      idea.Idea         `json:"idea"`
	Neighbors []similarity.Edge `json:"neighbors"`
}

var ideaAddCmd = &cobra.Command{
	Use:   "add <text>...",
	Short: "Capture an idea",
	Long: `Capture an idea. Every #word in the text becomes a tag and is removed
from the content, so "the keeper lies #plot #mara" stores the content
"the keeper lies" with tags plot and mara. Text made only of tags
stores an idea with empty content.

With --paste, the text comes from the system clipboard.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if paste, _ := cmd.Flags().GetBool("paste"); paste {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: runIdeaAdd,
}

func runIdeaAdd(cmd *cobra.Command, args []string) error {
	p := mustOpenProject()
	defer p.close()

	text := strings.Join(args, " ")
	if paste, _ := cmd.Flags().GetBool("paste"); paste {
		var err error
		if text, err = clipboard.Paste(); err != nil {
			exitWithError(ExitError, "reading clipboard: %v", err)
		}
	}

	content, tags, err := idea.ParseCapture(text)
	if err != nil {
		exitWithError(ExitDataError, "invalid idea: %v", err)
	}
	extra, _ := cmd.Flags().GetString("tags")
	tags = append(tags, parseTags(extra)...)
	scene, _ := cmd.Flags().GetInt64("scene")

	path := config.IdeasPath(p.root)
	ideas, err := storage.ReadAllIdeas(path)
	if err != nil {
		exitWithError(ExitDataError, "reading ideas: %v", err)
	}

	i := idea.Idea{
		ID:            storage.NextIdeaID(ideas),
		ProjectID:     p.cfg.ProjectID,
		Content:       content,
		Tags:          tags,
		LinkedSceneID: scene,
	}
	i.SetCreatedAt()
	if err := i.ValidateForCreate(); err != nil {
		exitWithError(ExitDataError, "invalid idea: %v", err)
	}

	if err := storage.AppendIdea(path, i); err != nil {
		exitWithError(ExitDataError, "writing idea: %v", err)
	}
	p.sync(cmd)

	neighbors := p.eng.Index().Snapshot().Neighbors(i.ID)
	if neighbors == nil {
		neighbors = []similarity.Edge{}
	}

	if humanOutput {
		fmt.Printf("Captured idea %d: %s\n", i.ID, i.Label())
		if len(i.Tags) > 0 && i.Content != "" {
			subtleColor.Printf("  %s\n", formatTags(i.Tags))
		}
		if len(neighbors) > 0 {
			fmt.Printf("  Linked to %d idea(s)\n", len(neighbors))
		}
	} else {
		outputJSON(IdeaAddResult{
			Status:    "created",
			Idea:      i,
			Neighbors: neighbors,
		})
	}
	return nil
}

// IdeaListResult is the response for the idea list command.
type IdeaListResult struct {
	Ideas []idea.Idea `json:"ideas"`
	Count int         `json:"count"`
}

var ideaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List or search ideas",
	RunE:  runIdeaList,
}

func runIdeaList(cmd *cobra.Command, args []string) error {
	p := mustOpenProject()
	defer p.close()

	search, _ := cmd.Flags().GetString("search")
	limit, _ := cmd.Flags().GetInt("limit")

	var ideas []idea.Idea
	var err error
	if search != "" {
		ideas, err = p.db.SearchIdeas(cmd.Context(), p.cfg.ProjectID, search, limit)
	} else {
		ideas, err = p.db.ListIdeas(cmd.Context(), p.cfg.ProjectID)
		if limit > 0 && len(ideas) > limit {
			ideas = ideas[:limit]
		}
	}
	if err != nil {
		exitWithError(ExitDataError, "querying ideas: %v", err)
	}

	if humanOutput {
		if len(ideas) == 0 {
			fmt.Println("No ideas found")
			return nil
		}
		for _, i := range ideas {
			fmt.Printf("%4d  %s", i.ID, truncateString(i.Label(), ListContentMaxLen))
			if len(i.Tags) > 0 && i.Content != "" {
				subtleColor.Printf("  %s", formatTags(i.Tags))
			}
			fmt.Println()
		}
	} else {
		if ideas == nil {
			ideas = []idea.Idea{}
		}
		outputJSON(IdeaListResult{Ideas: ideas, Count: len(ideas)})
	}
	return nil
}

var ideaDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an idea",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdeaDelete,
}

func runIdeaDelete(cmd *cobra.Command, args []string) error {
	id := mustParseID(args[0])
	p := mustOpenProject()
	defer p.close()

	path := config.IdeasPath(p.root)
	ideas, err := storage.ReadAllIdeas(path)
	if err != nil {
		exitWithError(ExitDataError, "reading ideas: %v", err)
	}
	remaining, found := storage.DeleteIdeaFromSlice(ideas, id)
	if !found {
		exitWithError(ExitNotFound, "idea %d not found", id)
	}
	if err := storage.WriteAllIdeas(path, remaining); err != nil {
		exitWithError(ExitDataError, "writing ideas: %v", err)
	}
	p.sync(cmd)

	if humanOutput {
		fmt.Printf("Deleted idea %d\n", id)
	} else {
		outputJSON(StatusResponse{Status: "deleted"})
	}
	return nil
}

// SimilarIdea is one result of the idea similar command.
type SimilarIdea struct {
	ID      int64    `json:"id"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Score   float64  `json:"score"`

	label string
}

// IdeaSimilarResult is the response for the idea similar command.
type IdeaSimilarResult struct {
	ID      int64         `json:"id"`
	Similar []SimilarIdea `json:"similar"`
}

var ideaSimilarCmd = &cobra.Command{
	Use:   "similar <id>",
	Short: "Rank ideas by similarity to one idea",
	Long: `Rank every other indexed idea by cosine similarity to the given idea,
including pairs below the index threshold.`,
	Args: cobra.ExactArgs(1),
	RunE: runIdeaSimilar,
}

func runIdeaSimilar(cmd *cobra.Command, args []string) error {
	id := mustParseID(args[0])
	limit, _ := cmd.Flags().GetInt("limit")
	p := mustOpenProject()
	defer p.close()

	p.refresh(cmd)
	edges, err := p.eng.Index().Snapshot().FindSimilar(id, limit)
	if err != nil {
		if errors.Is(err, similarity.ErrDocumentNotIndexed) {
			exitWithError(ExitNotFound, "idea %d is not indexed", id)
		}
		exitWithError(ExitError, "finding similar ideas: %v", err)
	}

	ideas, err := p.db.ListIdeas(cmd.Context(), p.cfg.ProjectID)
	if err != nil {
		exitWithError(ExitDataError, "querying ideas: %v", err)
	}
	byID := make(map[int64]idea.Idea, len(ideas))
	for _, i := range ideas {
		byID[i.ID] = i
	}

	results := make([]SimilarIdea, 0, len(edges))
	for _, e := range edges {
		other := byID[e.IDB]
		results = append(results, SimilarIdea{
			ID:      e.IDB,
			Content: other.Content,
			Tags:    other.Tags,
			Score:   e.Score,
			label:   other.Label(),
		})
	}

	if humanOutput {
		headingColor.Printf("Similar to idea %d\n", id)
		for i, r := range results {
			fmt.Printf("%d. %s %s\n", i+1, scoreColor.Sprintf("[%.2f]", r.Score), truncateString(r.label, SimilarContentMaxLen))
		}
	} else {
		outputJSON(IdeaSimilarResult{ID: id, Similar: results})
	}
	return nil
}

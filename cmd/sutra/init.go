package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/sutra/internal/config"
)

func init() {
	initCmd.Flags().StringP("title", "t", "", "Working title of the novel")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a sutra project",
	Long: `Create a .sutra directory in dir (default: the current directory).

The project starts empty; add ideas, characters and events with the
corresponding commands.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

// InitResult is the response for the init command.
type InitResult struct {
	Status    string `json:"status"`
	Path      string `json:"path"`
	ProjectID int64  `json:"project_id"`
	Title     string `json:"title,omitempty"`
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = config.ExpandPath(args[0])
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		exitWithError(ExitError, "resolving path: %v", err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		exitWithError(ExitError, "creating %s: %v", root, err)
	}

	title, _ := cmd.Flags().GetString("title")
	if title == "" {
		title = filepath.Base(root)
	}

	cfg, err := config.Init(root, title)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized sutra project %q in %s\n", cfg.Title, config.SutraPath(root))
	} else {
		outputJSON(InitResult{
			Status:    "created",
			Path:      root,
			ProjectID: cfg.ProjectID,
			Title:     cfg.Title,
		})
	}
	return nil
}

// Package main provides the sutra CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/sutra/internal/config"
	"github.com/matsen/sutra/internal/engine"
	"github.com/matsen/sutra/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// verbose enables development logging on stderr
var verbose bool

// logger is configured in PersistentPreRunE and never nil afterwards.
var logger = zap.NewNop()

func main() {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors is set, so cobra errors are printed here
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sutra",
	Short: "Idea constellation, character web and story timeline for a novel",
	Long: `sutra keeps a novelist's loose ideas, cast and story arc in plain files.

Core features:
  - Quick idea capture with #tags and automatic similarity linking
  - Force-directed constellation of related ideas
  - Character relationship web
  - Fortune timeline of character appearances and story events

Data is stored in git-versionable JSONL with ephemeral SQLite for queries.
All commands output JSON by default; use --human for readable output.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")
	rootCmd.Version = Version
}

// setup loads .env and builds the logger before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		logger = l
	}
	return nil
}

// mustFindRepository finds and validates the project, exits on error.
// Returns the project root path.
func mustFindRepository() string {
	root, err := config.FindRepository(config.StartDir())
	if err != nil {
		if errors.Is(err, config.ErrNotRepository) {
			exitWithError(ExitConfigError, "no sutra project found\n\nRun 'sutra init' to create one, or set %s.", config.RootEnv)
		}
		exitWithError(ExitConfigError, "finding project: %v", err)
	}
	return root
}

// mustLoadConfig loads the project configuration, exits on error.
func mustLoadConfig(root string) *config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustLoadGlobalConfig loads tuning settings, exits on error.
func mustLoadGlobalConfig() *config.GlobalConfig {
	gcfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading global config: %v", err)
	}
	return gcfg
}

// mustOpenDatabase opens the SQLite query layer, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(root string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(config.DBPath(root))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// sourcePaths lists the project's JSONL files.
func sourcePaths(root string) storage.SourcePaths {
	return storage.SourcePaths{
		Ideas:         config.IdeasPath(root),
		Characters:    config.CharactersPath(root),
		Relationships: config.RelationshipsPath(root),
		Events:        config.EventsPath(root),
		Appearances:   config.AppearancesPath(root),
	}
}

// newEngine wires an engine to src with the global tuning.
func newEngine(src engine.Source, root string, gcfg *config.GlobalConfig) *engine.Engine {
	return engine.New(src,
		engine.WithLogger(logger),
		engine.WithIndexThreshold(gcfg.IndexThreshold),
		engine.WithDisplayThreshold(gcfg.DisplayThreshold),
		engine.WithCachePath(config.IndexPath(root)),
		engine.WithSeed(gcfg.Seed),
		engine.WithFrameRate(gcfg.FrameRate),
		engine.WithMaxTicks(gcfg.MaxTicks),
	)
}

// mustRebuild reloads the query layer from the JSONL sources, exits on error.
func mustRebuild(db *storage.DB, root string) storage.RebuildCounts {
	counts, err := db.RebuildAll(sourcePaths(root))
	if err != nil {
		exitWithError(ExitDataError, "rebuilding query database: %v", err)
	}
	return counts
}

// mustRefresh brings the similarity index up to date, exits on error.
func mustRefresh(cmd *cobra.Command, eng *engine.Engine, projectID int64) engine.Result {
	res, err := eng.Refresh(cmd.Context(), projectID)
	if err != nil {
		exitWithError(ExitDataError, "refreshing index: %v", err)
	}
	return res
}

// project bundles what most commands need.
type project struct {
	root string
	cfg  *config.Config
	gcfg *config.GlobalConfig
	db   *storage.DB
	eng  *engine.Engine
}

// mustOpenProject finds the project and opens its query layer and engine.
// The caller is responsible for calling close().
func mustOpenProject() *project {
	root := mustFindRepository()
	gcfg := mustLoadGlobalConfig()
	db := mustOpenDatabase(root)
	return &project{
		root: root,
		cfg:  mustLoadConfig(root),
		gcfg: gcfg,
		db:   db,
		eng:  newEngine(db, root, gcfg),
	}
}

func (p *project) close() {
	p.eng.Close()
	p.db.Close()
}

// refresh brings the index up to date without touching the query layer.
func (p *project) refresh(cmd *cobra.Command) engine.Result {
	return mustRefresh(cmd, p.eng, p.cfg.ProjectID)
}

// sync rebuilds the query layer and refreshes the index after a mutation.
func (p *project) sync(cmd *cobra.Command) engine.Result {
	mustRebuild(p.db, p.root)
	return p.refresh(cmd)
}

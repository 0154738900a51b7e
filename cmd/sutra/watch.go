package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matsen/sutra/internal/config"
	"github.com/matsen/sutra/internal/engine"
	"github.com/matsen/sutra/internal/idea"
	"github.com/matsen/sutra/internal/storage"
	"github.com/matsen/sutra/internal/watch"
)

func init() {
	watchCmd.Flags().Duration("debounce", 0, "Quiet period before refreshing (default from watch_debounce_ms)")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the query layer and similarity index current",
	Long: `Watch the project's JSONL files and, after each burst of changes,
reload the query database and refresh the similarity index. Useful while
editing the files by hand or pulling changes from git.

Each refresh prints one line of JSON (or a summary with --human). Stop
with Ctrl-C.`,
	RunE: runWatch,
}

// rebuildingSource reloads the query layer from the JSONL sources before
// listing ideas, so each refresh sees edits made outside sutra.
type rebuildingSource struct {
	*storage.DB
	paths storage.SourcePaths
}

func (s rebuildingSource) ListIdeas(ctx context.Context, projectID int64) ([]idea.Idea, error) {
	if _, err := s.RebuildAll(s.paths); err != nil {
		return nil, err
	}
	return s.DB.ListIdeas(ctx, projectID)
}

// WatchEvent is printed after every refresh.
type WatchEvent struct {
	Time      time.Time `json:"time"`
	Documents int       `json:"documents"`
	Indexed   int       `json:"indexed"`
	Edges     int       `json:"edges"`
	FromCache bool      `json:"from_cache"`
	Error     string    `json:"error,omitempty"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	cfg := mustLoadConfig(root)
	gcfg := mustLoadGlobalConfig()
	db := mustOpenDatabase(root)
	defer db.Close()

	delay, _ := cmd.Flags().GetDuration("debounce")
	if delay <= 0 {
		delay = gcfg.WatchDebounce()
	}

	eng := newEngine(rebuildingSource{DB: db, paths: sourcePaths(root)}, root, gcfg)
	defer eng.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mu sync.Mutex
	report := func(res engine.Result, err error) {
		mu.Lock()
		defer mu.Unlock()
		printWatchEvent(res, err)
	}

	report(eng.Refresh(ctx, cfg.ProjectID))

	deb := eng.Debounced(ctx, delay, cfg.ProjectID, report)
	defer deb.Stop()
	w := watch.New(config.SutraPath(root), deb.Trigger, watch.WithLogger(logger.Named("watch")))

	if humanOutput {
		subtleColor.Printf("Watching %s (debounce %s)\n", config.SutraPath(root), delay)
	}
	logger.Info("watch started", zap.String("root", root), zap.Duration("debounce", delay))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(ctx)
	})
	if err := g.Wait(); err != nil {
		exitWithError(ExitError, "watching: %v", err)
	}
	return nil
}

func printWatchEvent(res engine.Result, err error) {
	ev := WatchEvent{
		Time:      time.Now().UTC().Truncate(time.Millisecond),
		Documents: res.Stats.Documents,
		Indexed:   res.Stats.Indexed,
		Edges:     res.Stats.Edges,
		FromCache: res.FromCache,
	}
	if err != nil {
		ev.Error = err.Error()
	}

	if !humanOutput {
		outputJSONCompact(ev)
		return
	}
	stamp := subtleColor.Sprint(ev.Time.Local().Format("15:04:05"))
	if err != nil {
		fmt.Printf("%s %s\n", stamp, warnColor.Sprintf("refresh failed: %v", err))
		return
	}
	fmt.Printf("%s %d ideas, %s\n", stamp, ev.Documents, scoreColor.Sprintf("%d edges", ev.Edges))
}

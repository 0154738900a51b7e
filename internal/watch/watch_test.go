package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestIsSourceEvent(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write jsonl", fsnotify.Event{Name: "/p/.sutra/ideas.jsonl", Op: fsnotify.Write}, true},
		{"create jsonl", fsnotify.Event{Name: "/p/.sutra/events.jsonl", Op: fsnotify.Create}, true},
		{"remove jsonl", fsnotify.Event{Name: "/p/.sutra/ideas.jsonl", Op: fsnotify.Remove}, true},
		{"chmod only", fsnotify.Event{Name: "/p/.sutra/ideas.jsonl", Op: fsnotify.Chmod}, false},
		{"temp file", fsnotify.Event{Name: "/p/.sutra/ideas.jsonl.123.tmp", Op: fsnotify.Create}, false},
		{"config", fsnotify.Event{Name: "/p/.sutra/config.json", Op: fsnotify.Write}, false},
		{"database", fsnotify.Event{Name: "/p/.sutra/cache/sutra.db", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSourceEvent(tt.event))
		})
	}
}

func startWatcher(t *testing.T, dir string, calls *atomic.Int32) {
	t.Helper()
	w := New(dir, func() { calls.Add(1) }, WithLogger(zaptest.NewLogger(t)))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-errCh)
	})
	// give the watcher time to register the directory
	time.Sleep(50 * time.Millisecond)
}

func TestWatcher_ReportsJSONLWrites(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	startWatcher(t, dir, &calls)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ideas.jsonl"), []byte(`{"id": 1}`+"\n"), 0644))
	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 20*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	startWatcher(t, dir, &calls)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{}"), 0644))
	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, func() {})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcher_MissingDir(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "nope"), func() {})
	err := w.Run(context.Background())
	require.Error(t, err)
}

// Package config handles project and global configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/sutra/internal/timeline"
)

// Config represents project configuration stored in .sutra/config.json.
type Config struct {
	ProjectID int64              `json:"project_id"`
	Title     string             `json:"title"`
	Chapters  []timeline.Chapter `json:"chapters,omitempty"` // Chapter outline for timeline divisions
}

const (
	SutraDir          = ".sutra"
	ConfigFile        = "config.json"
	IdeasFile         = "ideas.jsonl"
	CharactersFile    = "characters.jsonl"
	RelationshipsFile = "relationships.jsonl"
	EventsFile        = "events.jsonl"
	AppearancesFile   = "appearances.jsonl"
	CacheDir          = "cache"
	DBFile            = "sutra.db"
	IndexFile         = "similarity.gob"

	// RootEnv overrides the directory the project search starts from.
	RootEnv = "SUTRA_ROOT"
)

// ErrNotRepository is returned when no .sutra directory is found.
var ErrNotRepository = errors.New("not in a sutra project (no .sutra directory found)")

// SutraPath returns the path to the .sutra directory from a root path.
func SutraPath(root string) string {
	return filepath.Join(root, SutraDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, SutraDir, ConfigFile)
}

// IdeasPath returns the path to ideas.jsonl from a root path.
func IdeasPath(root string) string {
	return filepath.Join(root, SutraDir, IdeasFile)
}

// CharactersPath returns the path to characters.jsonl from a root path.
func CharactersPath(root string) string {
	return filepath.Join(root, SutraDir, CharactersFile)
}

// RelationshipsPath returns the path to relationships.jsonl from a root path.
func RelationshipsPath(root string) string {
	return filepath.Join(root, SutraDir, RelationshipsFile)
}

// EventsPath returns the path to events.jsonl from a root path.
func EventsPath(root string) string {
	return filepath.Join(root, SutraDir, EventsFile)
}

// AppearancesPath returns the path to appearances.jsonl from a root path.
func AppearancesPath(root string) string {
	return filepath.Join(root, SutraDir, AppearancesFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, SutraDir, CacheDir)
}

// DBPath returns the path to sutra.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, SutraDir, CacheDir, DBFile)
}

// IndexPath returns the path to the similarity index cache from a root path.
func IndexPath(root string) string {
	return filepath.Join(root, SutraDir, CacheDir, IndexFile)
}

// IsRepository checks if the given path contains a sutra project.
func IsRepository(root string) bool {
	info, err := os.Stat(SutraPath(root))
	return err == nil && info.IsDir()
}

// StartDir returns where the project search begins: $SUTRA_ROOT if set,
// otherwise the working directory.
func StartDir() string {
	if root := os.Getenv(RootEnv); root != "" {
		return ExpandPath(root)
	}
	return "."
}

// FindRepository walks up from the given path to find a sutra project.
// Returns the project root path or ErrNotRepository.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNotRepository
		}
		abs = parent
	}
}

// Init creates the .sutra layout under root and writes a fresh config.
// It fails if a project already exists there.
func Init(root, title string) (*Config, error) {
	if IsRepository(root) {
		return nil, fmt.Errorf("project already exists at %s", root)
	}
	if err := os.MkdirAll(CachePath(root), 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", SutraDir, err)
	}
	cfg := &Config{ProjectID: 1, Title: title}
	if err := cfg.Save(root); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration from the project at the given root.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.ProjectID <= 0 {
		return nil, fmt.Errorf("parsing config: project_id must be positive")
	}

	return &cfg, nil
}

// Save writes configuration to the project at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}

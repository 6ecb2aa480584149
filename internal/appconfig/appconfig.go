// Package appconfig reads and writes the single global JSON files under
// ~/.deco: config.json and recent.json. Every read goes straight to disk (no
// in-memory cache) so an external edit to config.json takes effect on the
// next call, per spec.
package appconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/natefinch/atomic"
)

// AIConfig is the "ai" section of config.json.
type AIConfig struct {
	Provider string `json:"provider"` // "anthropic" | "openai" | "ollama"
	Model    string `json:"model"`
	Endpoint string `json:"endpoint"`
}

// WebConfig is the "web" section of config.json (reference-image search).
type WebConfig struct {
	SearchCredentialRef string `json:"searchCredentialRef,omitempty"`
	SafeSearch          bool   `json:"safeSearch"`
	ResultCount         int    `json:"resultCount"`
}

// Config is the full contents of ~/.deco/config.json.
type Config struct {
	AI             AIConfig  `json:"ai"`
	Web            WebConfig `json:"web"`
	APIPort        int       `json:"apiPort"`
	ProjectsFolder string    `json:"projectsFolder"`
	ModelsFolder   string    `json:"modelsFolder"`
}

// DefaultAPIPort is used when a freshly created config doesn't set apiPort.
const DefaultAPIPort = 7890

// Dir returns ~/.deco, creating no directories as a side effect.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".deco"), nil
}

// ConfigPath returns ~/.deco/config.json.
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads config.json, returning defaults if the file does not exist yet.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AI:      AIConfig{Provider: "anthropic"},
		Web:     WebConfig{ResultCount: 10},
		APIPort: DefaultAPIPort,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes config.json atomically, replacing it wholesale.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return atomic.WriteFile(path, bytes.NewReader(data))
}

// GetAPIPort reads config.json and returns apiPort, falling back to DefaultAPIPort.
func GetAPIPort() (int, error) {
	cfg, err := Load()
	if err != nil {
		return 0, err
	}
	if cfg.APIPort <= 0 {
		return DefaultAPIPort, nil
	}
	return cfg.APIPort, nil
}

// RecentProject is one entry of recent.json.
type RecentProject struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// MaxRecent bounds recent.json, most-recent-first.
const MaxRecent = 20

// RecentPath returns ~/.deco/recent.json.
func RecentPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "recent.json"), nil
}

// LoadRecent reads recent.json, returning an empty list if absent.
func LoadRecent() ([]RecentProject, error) {
	path, err := RecentPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read recent projects: %w", err)
	}

	var recents []RecentProject
	if err := json.Unmarshal(data, &recents); err != nil {
		return nil, fmt.Errorf("parse recent projects: %w", err)
	}
	return recents, nil
}

func saveRecent(recents []RecentProject) error {
	path, err := RecentPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := json.MarshalIndent(recents, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal recent projects: %w", err)
	}

	return atomic.WriteFile(path, bytes.NewReader(data))
}

// AddToRecent de-duplicates by path, moves/inserts the entry at the front,
// and truncates to MaxRecent.
func AddToRecent(name, path string) error {
	recents, err := LoadRecent()
	if err != nil {
		return err
	}

	filtered := recents[:0:0]
	for _, r := range recents {
		if r.Path != path {
			filtered = append(filtered, r)
		}
	}

	updated := append([]RecentProject{{Name: name, Path: path}}, filtered...)
	if len(updated) > MaxRecent {
		updated = updated[:MaxRecent]
	}

	return saveRecent(updated)
}

// RemoveFromRecent deletes the entry for path, if present.
func RemoveFromRecent(path string) error {
	recents, err := LoadRecent()
	if err != nil {
		return err
	}

	filtered := recents[:0:0]
	for _, r := range recents {
		if r.Path != path {
			filtered = append(filtered, r)
		}
	}

	return saveRecent(filtered)
}

// SortedByName returns a copy of recents sorted alphabetically; used by the
// "projects" command's human-readable table output.
func SortedByName(recents []RecentProject) []RecentProject {
	out := make([]RecentProject, len(recents))
	copy(out, recents)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Package prefs handles console user preferences persistence.
// Preferences are stored in ~/.config/padb/prefs.toml.
package prefs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences for the console.
type Prefs struct {
	Theme        string `toml:"theme"`
	SearchLimit  int    `toml:"search_limit"`
	VectorSearch bool   `toml:"vector_search"`
	PageSize     int    `toml:"page_size"`
}

const (
	defaultPrefsPath   = "~/.config/padb/prefs.toml"
	defaultTheme       = "Nightfox"
	defaultSearchLimit = 10
	defaultPageSize    = 100

	// MaxSearchLimit bounds SearchLimit.
	MaxSearchLimit = 100
	// MaxPageSize bounds PageSize.
	MaxPageSize = 1000
)

// Default returns the preferences used when nothing is stored.
func Default() Prefs {
	return Prefs{
		Theme:        defaultTheme,
		SearchLimit:  defaultSearchLimit,
		VectorSearch: true,
		PageSize:     defaultPageSize,
	}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Normalize replaces blank or out of range values with defaults.
func (p Prefs) Normalize() Prefs {
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = defaultTheme
	}
	if p.SearchLimit < 1 || p.SearchLimit > MaxSearchLimit {
		p.SearchLimit = defaultSearchLimit
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		p.PageSize = defaultPageSize
	}
	return p
}

// Load reads preferences from the given path, falling back to defaults if
// the file is missing or unreadable.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default(), nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		return Default(), nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Default(), nil // Graceful degradation
	}

	prefs := Default()
	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Default(), nil // Graceful degradation
	}
	return prefs.Normalize(), nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if p.SearchLimit < 1 || p.SearchLimit > MaxSearchLimit {
		return fmt.Errorf("search_limit must be between 1 and %d", MaxSearchLimit)
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		return fmt.Errorf("page_size must be between 1 and %d", MaxPageSize)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p.Normalize())
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

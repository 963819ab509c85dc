// Package prefs persists operator console preferences in
// ~/.config/stylefix/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// View names a console pane.
type View string

const (
	ViewFixes View = "fixes"
	ViewLogs  View = "logs"
)

// Prefs holds console preferences.
type Prefs struct {
	Theme string `toml:"theme"`
	View  View   `toml:"view"`
}

const (
	defaultPrefsPath = "~/.config/stylefix/prefs.toml"
	defaultTheme     = "Dracula"
)

// Default returns the preferences used when nothing is stored.
func Default() Prefs {
	return Prefs{Theme: defaultTheme, View: ViewFixes}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path. Any problem reading or parsing the file
// yields defaults; preferences are never worth failing startup over.
func Load(path string) Prefs {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default()
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return Default()
	}

	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return Default()
	}
	return p.normalized()
}

func (p Prefs) normalized() Prefs {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	switch p.View {
	case ViewFixes, ViewLogs:
	default:
		p.View = ViewFixes
	}
	return p
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p.normalized())
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		trimmed = defaultPrefsPath
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

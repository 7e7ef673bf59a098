// Package prefs handles regsync user preferences persistence.
// Preferences are stored in ~/.config/regsync/prefs.toml and hold the UI theme,
// the registry base URL override and the last login path that worked.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/regsync/internal/endpoints"
)

// Prefs holds user preferences for regsync.
type Prefs struct {
	Theme     string `toml:"theme"`
	BaseURL   string `toml:"base_url,omitempty"`
	LoginPath string `toml:"login_path,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/regsync/prefs.toml"
	defaultTheme     = "Nightfox"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path, falling back to defaults if missing.
// Unreadable or invalid files degrade to defaults; only path resolution fails.
func Load(path string) (Prefs, error) {
	prefs := Prefs{Theme: defaultTheme}

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Prefs{Theme: defaultTheme}, nil // Graceful degradation
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	prefs.BaseURL = strings.TrimSpace(prefs.BaseURL)
	prefs.LoginPath = strings.TrimSpace(prefs.LoginPath)

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp := resolved + ".tmp"
	if err := os.WriteFile(tmp, bytes, 0o600); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, resolved); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace prefs: %w", err)
	}

	return nil
}

// FileStore exposes the prefs file as an endpoints.Store.
// The mutex only serializes writers inside one process.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// Ensure FileStore implements endpoints.Store at compile time.
var _ endpoints.Store = (*FileStore)(nil)

// NewFileStore returns a store for the prefs file at path (empty uses the default).
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns the persisted endpoint config.
func (s *FileStore) Load() (endpoints.Config, error) {
	p, err := Load(s.path)
	if err != nil {
		return endpoints.Config{}, err
	}
	return endpoints.Config{BaseURL: p.BaseURL, CachedLoginPath: p.LoginPath}, nil
}

// SaveLoginPath stores the login path hint, keeping other preferences.
func (s *FileStore) SaveLoginPath(path string) error {
	return s.update(func(p *Prefs) { p.LoginPath = path })
}

// SaveBaseURL stores the base URL override, keeping other preferences.
func (s *FileStore) SaveBaseURL(baseURL string) error {
	return s.update(func(p *Prefs) { p.BaseURL = baseURL })
}

// SaveTheme stores the UI theme name.
func (s *FileStore) SaveTheme(name string) error {
	return s.update(func(p *Prefs) { p.Theme = name })
}

func (s *FileStore) update(fn func(*Prefs)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := Load(s.path)
	if err != nil {
		return err
	}
	fn(&p)
	return Save(s.path, p)
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

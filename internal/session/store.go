package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Credentials is what survives a restart. All three fields are written and
// cleared together.
type Credentials struct {
	AccessToken string `toml:"access_token"`
	UserEmail   string `toml:"user_email"`
	IsLoggedIn  bool   `toml:"is_logged_in"`
}

// Valid reports whether the credentials describe a usable session.
func (c Credentials) Valid() bool {
	return c.IsLoggedIn && strings.TrimSpace(c.AccessToken) != ""
}

// Store persists credentials between runs.
type Store interface {
	Load() (Credentials, error)
	Save(Credentials) error
	Clear() error
}

// DefaultCredentialsPath is where FileStore keeps credentials by default.
const DefaultCredentialsPath = "~/.config/padb/credentials.toml"

// FileStore keeps credentials in a TOML file readable only by the owner.
type FileStore struct {
	Path string
}

// NewFileStore returns a FileStore rooted at path, or the default path.
func NewFileStore(path string) *FileStore {
	if strings.TrimSpace(path) == "" {
		path = DefaultCredentialsPath
	}
	return &FileStore{Path: path}
}

// Load returns empty credentials when the file does not exist.
func (s *FileStore) Load() (Credentials, error) {
	resolved, err := expandPath(s.Path)
	if err != nil {
		return Credentials{}, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}
	var creds Credentials
	if err := toml.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials: %w", err)
	}
	return creds, nil
}

// Save writes credentials with 0600 permissions.
func (s *FileStore) Save(creds Credentials) error {
	resolved, err := expandPath(s.Path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	data, err := toml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Clear removes the credentials file. A missing file is not an error.
func (s *FileStore) Clear() error {
	resolved, err := expandPath(s.Path)
	if err != nil {
		return err
	}
	if err := os.Remove(resolved); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// MemoryStore keeps credentials in memory. Tests use it, as does the CLI
// when persistence is disabled.
type MemoryStore struct {
	mu    sync.Mutex
	creds Credentials
	saved bool
}

// NewMemoryStore returns a store pre-loaded with creds.
func NewMemoryStore(creds Credentials) *MemoryStore {
	return &MemoryStore{creds: creds, saved: creds != Credentials{}}
}

func (m *MemoryStore) Load() (Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds, nil
}

func (m *MemoryStore) Save(creds Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds
	m.saved = true
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = Credentials{}
	m.saved = false
	return nil
}

// Present reports whether anything is stored.
func (m *MemoryStore) Present() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
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

package authflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// CachedIdentity is the persisted credential state: the last token (with
// its refresh token) and the scopes granted when it was issued. The blob
// is written as a whole after every successful token event and never on
// failure.
type CachedIdentity struct {
	Token  *oauth2.Token `json:"token"`
	Scopes []string      `json:"scopes"`
}

// TokenCache persists the identity blob between runs. Implementations may
// store it in a file, a keyring, or a database.
type TokenCache interface {
	// Load returns the cached identity, or nil when none exists yet.
	Load() (*CachedIdentity, error)

	// Save overwrites the cached identity with a fresh snapshot.
	Save(identity *CachedIdentity) error
}

// FileCache stores the identity blob as a JSON file with owner-only
// permissions, creating parent directories as needed.
type FileCache struct {
	path string
}

// NewFileCache creates a file-backed token cache at path.
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

func (c *FileCache) Load() (*CachedIdentity, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token cache: %w", err)
	}

	var identity CachedIdentity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("parse token cache: %w", err)
	}
	return &identity, nil
}

func (c *FileCache) Save(identity *CachedIdentity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode token cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("create token cache dir: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("write token cache: %w", err)
	}
	return nil
}

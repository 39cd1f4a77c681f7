package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps one JSON file per user under a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir. The directory is created on first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Save writes p for user, readable only by the owner.
func (s *FileStore) Save(_ context.Context, user string, p Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	return os.WriteFile(s.path(user), data, 0600)
}

// Load reads the preferences of user.
func (s *FileStore) Load(_ context.Context, user string) (Preferences, error) {
	data, err := os.ReadFile(s.path(user)) // #nosec G304 -- user is sanitized
	if err != nil {
		if os.IsNotExist(err) {
			return Preferences{}, ErrNotFound
		}
		return Preferences{}, fmt.Errorf("failed to read preferences: %w", err)
	}

	var p Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		return Preferences{}, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}

	return p, nil
}

func (s *FileStore) path(user string) string {
	return filepath.Join(s.dir, filepath.Base(user)+"_prefs.json")
}

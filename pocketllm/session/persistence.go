// pocketllm/session/persistence.go
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Persistence is the key/value store backing local (guest) mode. Load reports
// absence through its bool rather than an error.
type Persistence interface {
	Load(key string) (string, bool, error)
	Save(key string, value string) error
	Remove(key string) error
}

// FileStore keeps each key in its own JSON file under a base directory.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		baseDir = "./data"
	}
	if strings.HasPrefix(baseDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		baseDir = filepath.Join(home, baseDir[2:])
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (f *FileStore) Load(key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

func (f *FileStore) Save(key string, value string) error {
	return os.WriteFile(f.path(key), []byte(value), 0o644)
}

func (f *FileStore) Remove(key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.baseDir, sanitizeKey(key)+".json")
}

// sanitizeKey restricts keys to filename-safe characters so user-supplied
// ids cannot escape the base directory.
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '-'
		}
	}, key)
}

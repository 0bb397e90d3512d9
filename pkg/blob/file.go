package blob

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const defaultDir = "data"

// FileStoreOption customizes FileStore.
type FileStoreOption func(*FileStore)

func WithDir(dir string) FileStoreOption {
	return func(s *FileStore) {
		trimmed := strings.TrimSpace(dir)
		if trimmed != "" {
			s.dir = trimmed
		}
	}
}

func WithFs(fs afero.Fs) FileStoreOption {
	return func(s *FileStore) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// FileStore keeps each key as an indented JSON file under a data directory.
type FileStore struct {
	fs  afero.Fs
	dir string
}

func NewFileStore(opts ...FileStoreOption) *FileStore {
	store := &FileStore{
		fs:  afero.NewOsFs(),
		dir: defaultDir,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Load(key string, v any) (bool, error) {
	raw, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read blob %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		// A corrupt file must never surface as a decode error to callers.
		log.Warn().Err(err).Str("key", key).Msg("corrupt blob value, treating as absent")
		return false, nil
	}
	return true, nil
}

func (s *FileStore) Save(key string, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal blob %s: %w", key, err)
	}

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path(key), payload, 0o644); err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Delete(key string) error {
	if err := s.fs.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

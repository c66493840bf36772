package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cocode-io/cocode/bytecode"
	"github.com/cocode-io/cocode/errors"
	"github.com/rs/zerolog"
)

// FileStore keeps one file per artifact in a directory.
type FileStore struct {
	dir    string
	logger zerolog.Logger
}

// NewFileStore returns a store rooted at dir, creating the directory if
// needed.
func NewFileStore(dir string, logger zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Dir returns the store's directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".cbor")
}

func (s *FileStore) Put(ctx context.Context, code *bytecode.Code) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := encode(code)
	if err != nil {
		return "", err
	}
	id := code.ID()
	tmp, err := os.CreateTemp(s.dir, ".put-*")
	if err != nil {
		return "", fmt.Errorf("put %s: %w", id, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("put %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("put %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		return "", fmt.Errorf("put %s: %w", id, err)
	}
	s.logger.Debug().Str("store", "file").Str("id", id).Int("bytes", len(data)).Msg("put artifact")
	return id, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*bytecode.Code, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	s.logger.Debug().Str("store", "file").Str("id", id).Int("bytes", len(data)).Msg("get artifact")
	return decode(id, data)
}

func (s *FileStore) Close() error {
	return nil
}

package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"SentimentMonitor/internal/domain"
	"SentimentMonitor/internal/ports"
)

// FileStore keeps each source's session state in <dir>/<source>_cookies.json.
type FileStore struct {
	dir string
}

var _ ports.CredentialStore = (*FileStore)(nil)

// NewFileStore roots the store at dir; the directory is created on first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the file backing a source.
func (s *FileStore) Path(source string) string {
	return filepath.Join(s.dir, source+"_cookies.json")
}

// Load returns nil, nil when the source has never been saved.
func (s *FileStore) Load(_ context.Context, source string) ([]byte, error) {
	if err := validSource(source); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.Path(source))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials %s: %w", source, err)
	}
	return raw, nil
}

// Save writes state atomically through a temp file in the same directory.
func (s *FileStore) Save(_ context.Context, source string, state []byte) error {
	if err := validSource(source); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, source+"_*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(state); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write credentials %s: %w", source, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(source)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace credentials %s: %w", source, err)
	}
	return nil
}

func validSource(source string) error {
	if source == "" || strings.ContainsAny(source, `/\`) || strings.Contains(source, "..") {
		return fmt.Errorf("%w: source name %q", domain.ErrInvalidArgument, source)
	}
	return nil
}

package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/angelmondragon/rutaventas-backend/pkg/config"
	"github.com/angelmondragon/rutaventas-backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("object not found")

// Store keeps uploaded blobs under a root directory and exposes them under a
// public base URL.
type Store struct {
	root    string
	baseURL string
	logg    *logger.Logger
}

func NewStore(cfg config.MediaConfig, logg *logger.Logger) (*Store, error) {
	root := strings.TrimSpace(cfg.Root)
	if root == "" {
		return nil, errors.New("media root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating media root %q: %w", root, err)
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if base == "" {
		base = "/media"
	}
	return &Store{root: root, baseURL: base, logg: logg}, nil
}

// Root is the directory backing the store.
func (s *Store) Root() string {
	return s.root
}

// Save streams r to a new object under prefix and returns its key. The
// original extension of filename is kept.
func (s *Store) Save(ctx context.Context, prefix, filename string, r io.Reader) (key string, err error) {
	if r == nil {
		return "", errors.New("reader is required")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	key = path.Join(cleanPrefix(prefix), uuid.NewString()+ext)

	full := s.fullPath(key)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating object dir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("creating object %q: %w", key, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
		if err != nil {
			_ = os.Remove(full)
		}
	}()

	if _, err = io.Copy(f, r); err != nil {
		return "", fmt.Errorf("writing object %q: %w", key, err)
	}
	if s.logg != nil {
		s.logg.Debug(s.logg.WithField(ctx, "object_key", key), "media object stored")
	}
	return key, nil
}

// Open returns a reader for key.
func (s *Store) Open(key string) (io.ReadCloser, error) {
	f, err := os.Open(s.fullPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Delete removes key; a missing object is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	err := os.Remove(s.fullPath(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting object %q: %w", key, err)
	}
	return nil
}

// URL maps a key to its public URL.
func (s *Store) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.baseURL + "/" + strings.TrimLeft(path.Clean("/"+key), "/")
}

// Ping checks the media root is still a writable directory.
func (s *Store) Ping(context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("media root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("media root %q is not a directory", s.root)
	}
	return nil
}

func (s *Store) fullPath(key string) string {
	clean := path.Clean("/" + key)
	return filepath.Join(s.root, filepath.FromSlash(clean))
}

func cleanPrefix(prefix string) string {
	p := strings.Trim(path.Clean("/"+strings.TrimSpace(prefix)), "/")
	if p == "" || p == "." {
		return "uploads"
	}
	return p
}

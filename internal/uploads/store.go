// Package uploads stores design images on local disk and maps them to the
// public /uploads URL space.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/asowa/marketplace/internal/config"
)

const (
	// PublicPrefix is the URL prefix the upload directory is served under.
	PublicPrefix = "/uploads"

	designsDir = "designs"
)

var (
	ErrUnsupportedType = errors.New("only jpeg, png and webp images are allowed")
	ErrTooLarge        = errors.New("image exceeds the upload size limit")
	ErrEmpty           = errors.New("image is empty")
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/webp"}

// Store writes uploaded images under a root directory.
type Store struct {
	root     string
	maxBytes int64
}

// NewStore creates the upload directories if needed.
func NewStore(cfg config.Uploads) (*Store, error) {
	root := cfg.Dir
	if root == "" {
		root = config.DefaultUploadDir
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}

	if err := os.MkdirAll(filepath.Join(root, designsDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{root: root, maxBytes: maxBytes}, nil
}

// Root returns the directory served under PublicPrefix.
func (s *Store) Root() string {
	return s.root
}

// MaxBytes returns the per-file size limit.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// SaveDesignImage sniffs and stores an image, returning its public path
// (e.g. /uploads/designs/1700000000000-<uuid>.png).
func (s *Store) SaveDesignImage(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	// The client-declared content type is ignored.
	mime := mimetype.Detect(data)
	if !mimetype.EqualsAny(mime.String(), allowedTypes...) {
		return "", fmt.Errorf("%w: got %s", ErrUnsupportedType, mime.String())
	}

	name, err := uniqueName(mime.Extension())
	if err != nil {
		return "", err
	}

	dest := filepath.Join(s.root, designsDir, name)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return path.Join(PublicPrefix, designsDir, name), nil
}

// Remove deletes a previously saved image. Paths outside the designs
// directory and missing files are ignored.
func (s *Store) Remove(publicPath string) error {
	prefix := path.Join(PublicPrefix, designsDir) + "/"
	if !strings.HasPrefix(publicPath, prefix) {
		return nil
	}
	name := strings.TrimPrefix(publicPath, prefix)
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil
	}

	err := os.Remove(filepath.Join(s.root, designsDir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove image: %w", err)
	}
	return nil
}

// uniqueName keeps uploads sortable by time on disk.
func uniqueName(ext string) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate file name: %w", err)
	}
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), id.String(), ext), nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// ErrObjectNotFound indicates the requested asset does not exist in the source.
var ErrObjectNotFound = errors.New("storage: object not found")

// Source opens static divider assets by file name.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	String() string
}

// FSSource serves assets from an fs.FS such as a local directory or an embedded bundle.
type FSSource struct {
	fsys  fs.FS
	root  string
	label string
}

// NewDirSource constructs a source reading assets from a local directory.
func NewDirSource(root string) (*FSSource, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage: asset directory is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("storage: asset directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: asset path %s is not a directory", root)
	}
	return &FSSource{fsys: os.DirFS(root), root: root, label: "dir:" + root}, nil
}

// NewFSSource wraps an arbitrary filesystem, typically an embed.FS.
func NewFSSource(fsys fs.FS, label string) *FSSource {
	if strings.TrimSpace(label) == "" {
		label = "fs"
	}
	return &FSSource{fsys: fsys, label: label}
}

// Root returns the local directory backing the source, or an empty string for non-directory sources.
func (s *FSSource) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}

// Open returns a reader for the named asset.
func (s *FSSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if s == nil || s.fsys == nil {
		return nil, errors.New("storage: source is not initialised")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fileName, err := validateFileName(name)
	if err != nil {
		return nil, err
	}
	file, err := s.fsys.Open(fileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, fileName)
		}
		return nil, fmt.Errorf("storage: open %s: %w", fileName, err)
	}
	return file, nil
}

func (s *FSSource) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.label
}

// ReadAll opens name from src and returns its full contents.
func ReadAll(ctx context.Context, src Source, name string) ([]byte, error) {
	if src == nil {
		return nil, errors.New("storage: source is required")
	}
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}

package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DirStore keeps receipt files on local disk. The HTTP server exposes the
// directory under PublicPath.
type DirStore struct {
	root       string
	publicPath string
}

// NewDirStore creates the root directory if needed.
func NewDirStore(root, publicPath string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create receipts dir: %w", err)
	}
	return &DirStore{root: root, publicPath: "/" + strings.Trim(publicPath, "/")}, nil
}

// Root returns the directory receipts are written to.
func (s *DirStore) Root() string {
	return s.root
}

// Put writes a receipt under key and returns its URL path, escaped so that
// file names holding '#', '?' or spaces stay reachable.
func (s *DirStore) Put(_ context.Context, key, _ string, r io.Reader, _ int64) (string, error) {
	clean := path.Clean("/" + key)
	target := filepath.Join(s.root, filepath.FromSlash(clean))

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create receipt dir: %w", err)
	}
	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create receipt: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(target)
		return "", fmt.Errorf("write receipt: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("close receipt: %w", err)
	}
	return (&url.URL{Path: s.publicPath + clean}).EscapedPath(), nil
}

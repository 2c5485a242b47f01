package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Downloader receives an exported document and makes it available to the
// user under the given file name, returning where it ended up.
type Downloader interface {
	Offer(filename string, data []byte) (string, error)
}

type dirDownloader struct {
	dir string
}

// NewDirDownloader creates a Downloader that writes documents into dir.
func NewDirDownloader(dir string) Downloader {
	return &dirDownloader{dir: dir}
}

// Offer writes data to dir/filename. The file name must not contain path
// separators.
func (d *dirDownloader) Offer(filename string, data []byte) (string, error) {
	if filename == "" || strings.ContainsAny(filename, `/\`) || filename == "." || filename == ".." {
		return "", fmt.Errorf("invalid download file name %q", filename)
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}
	path := filepath.Join(d.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing download %s: %w", filename, err)
	}
	return path, nil
}

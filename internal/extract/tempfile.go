package extract

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/soochol/sharemenu/internal/share"
)

// TempFilePrefix starts the name of every file written by ToTemporaryFile.
const TempFilePrefix = "sharemenu-"

// ToTemporaryFile writes data to a freshly named file under dir (the OS
// temporary directory when dir is empty) and returns its file URL.
//
// The file is local to the extracting process. The caller must relocate it
// into a shared container or remove it.
func ToTemporaryFile(dir, ext string, data []byte) (*url.URL, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	name := TempFilePrefix + uuid.New().String()
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		name += "." + ext
	}
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, data, 0o600); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	return share.FileURL(path)
}

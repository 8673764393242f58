package share

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// FileURL returns the file:// URL for a local path. Relative paths are made
// absolute first.
func FileURL(path string) (*url.URL, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path for %q: %w", path, err)
	}
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}, nil
}

// FilePath returns the local path a file:// URL points at.
func FilePath(u *url.URL) (string, error) {
	if u.Scheme != "file" {
		return "", fmt.Errorf("not a file URL: %s", u.Redacted())
	}
	if u.Path == "" {
		return "", fmt.Errorf("file URL without path: %s", u.String())
	}
	return filepath.FromSlash(u.Path), nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/soochol/sharemenu/internal/share"
)

// GroupPrefix starts every app group container identifier.
const GroupPrefix = "group."

// DirResolver resolves container identifiers to directories under Root.
// The identifier "com.example.app" maps to Root/group.com.example.app; an
// identifier that already carries the group prefix is used as is.
type DirResolver struct {
	Root string
	// Create makes missing container directories instead of failing.
	Create bool
}

func (r DirResolver) Resolve(_ context.Context, id string) (Container, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, fmt.Errorf("%w: invalid container id %q", share.ErrContainerUnavailable, id)
	}
	if r.Root == "" {
		return nil, fmt.Errorf("%w: no container root configured", share.ErrContainerUnavailable)
	}
	if !strings.HasPrefix(id, GroupPrefix) {
		id = GroupPrefix + id
	}
	dir := filepath.Join(r.Root, id)

	st, err := os.Stat(dir)
	switch {
	case err == nil && !st.IsDir():
		return nil, fmt.Errorf("%w: %s is not a directory", share.ErrContainerUnavailable, dir)
	case errors.Is(err, fs.ErrNotExist) && r.Create:
		return NewLocalContainer(dir)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", share.ErrContainerUnavailable, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", share.ErrContainerUnavailable, err)
	}
	return &LocalContainer{baseDir: abs}, nil
}

// LocalContainer stores files on the local filesystem. Writes to the same
// name are serialized.
type LocalContainer struct {
	baseDir string
	locks   sync.Map // name -> *sync.Mutex
}

func NewLocalContainer(baseDir string) (*LocalContainer, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create container dir: %w", err)
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve container dir: %w", err)
	}
	return &LocalContainer{baseDir: abs}, nil
}

func (c *LocalContainer) Root() string { return c.baseDir }

func (c *LocalContainer) lock(name string) func() {
	v, _ := c.locks.LoadOrStore(name, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (c *LocalContainer) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(c.baseDir, name), nil
}

// Save writes reader under name. An existing file is removed first, so the
// last writer wins. The file is synced before Save returns.
func (c *LocalContainer) Save(_ context.Context, name string, reader io.Reader) (*FileInfo, error) {
	fullPath, err := c.path(name)
	if err != nil {
		return nil, err
	}
	unlock := c.lock(name)
	defer unlock()

	if _, err := os.Lstat(fullPath); err == nil {
		slog.Warn("storage: replacing existing file", "path", fullPath)
		if err := os.Remove(fullPath); err != nil {
			return nil, fmt.Errorf("remove existing file: %w", err)
		}
	}

	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	n, err := io.Copy(f, reader)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("write file: %w", err)
	}

	st, err := os.Stat(fullPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	return &FileInfo{Name: name, Size: n, Path: fullPath, CreatedAt: st.ModTime()}, nil
}

func (c *LocalContainer) Delete(_ context.Context, name string) error {
	fullPath, err := c.path(name)
	if err != nil {
		return err
	}
	unlock := c.lock(name)
	defer unlock()

	err = os.Remove(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("file %s: %w", name, ErrNotFound)
	}
	return err
}

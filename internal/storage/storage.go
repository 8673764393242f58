// Package storage resolves shared containers and moves extension-local files
// into them.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a named file does not exist in a container.
var ErrNotFound = errors.New("not found")

// FileInfo describes a file stored in a shared container.
type FileInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// Container is a directory reachable by both the extension and the consuming
// application.
type Container interface {
	// Root is the absolute directory of the container.
	Root() string
	// Save writes reader under name, replacing any existing file of that name.
	Save(ctx context.Context, name string, reader io.Reader) (*FileInfo, error)
	// Delete removes name. It returns ErrNotFound if name does not exist.
	Delete(ctx context.Context, name string) error
}

// ContainerResolver maps an opaque container identifier to a Container.
type ContainerResolver interface {
	Resolve(ctx context.Context, id string) (Container, error)
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soochol/sharemenu/internal/extract"
	"github.com/soochol/sharemenu/internal/share"
)

// Relocator copies file-backed items of a record into a shared container.
type Relocator struct {
	resolver ContainerResolver
	client   *http.Client
	tempDir  string
}

// Option configures a Relocator.
type Option func(*Relocator)

// WithTempDir names the directory the extractor writes temporary files to.
// Only files directly inside it are removed after being copied. Empty means
// the OS temporary directory.
func WithTempDir(dir string) Option {
	return func(r *Relocator) { r.tempDir = dir }
}

// WithHTTPClient sets the client used to download remote values.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Relocator) { r.client = c }
}

func NewRelocator(resolver ContainerResolver, opts ...Option) *Relocator {
	r := &Relocator{
		resolver: resolver,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// needsRelocation reports whether the item's value references content that
// must be moved into the container.
func needsRelocation(it share.Item) bool {
	return !share.IsTextMime(it.MimeType)
}

// relocation is the outcome of moving one item.
type relocation struct {
	item share.Item
	// name is the file created in the container.
	name string
	// tempSrc is the extension temp file to remove once the record is done.
	tempSrc string
}

// Relocate returns a copy of rec in which every non-text item points into the
// container identified by containerID. Item groups and roles are kept. Local
// files are copied and remote http(s) content is downloaded. If any item
// fails, the files already copied for rec are removed again and the
// extractor's temporary files are left in place.
func (r *Relocator) Relocate(ctx context.Context, rec share.Record, containerID string) (share.Record, error) {
	c, err := r.resolver.Resolve(ctx, containerID)
	if err != nil {
		return share.Record{}, err
	}

	items := make([]share.Item, len(rec.Items))
	copy(items, rec.Items)
	var saved, temps []string
	for i, it := range items {
		if !needsRelocation(it) {
			continue
		}
		if err := ctx.Err(); err != nil {
			r.rollback(ctx, c, saved)
			return share.Record{}, err
		}
		moved, err := r.relocateItem(ctx, c, it)
		if err != nil {
			r.rollback(ctx, c, saved)
			return share.Record{}, fmt.Errorf("%s %s: %w", it.ItemGroup, it.Role, err)
		}
		saved = append(saved, moved.name)
		if moved.tempSrc != "" {
			temps = append(temps, moved.tempSrc)
		}
		items[i] = moved.item
	}

	for _, src := range temps {
		if err := os.Remove(src); err != nil {
			slog.Warn("storage: failed to remove temporary file", "path", src, "err", err)
		}
	}
	if len(items) == 0 {
		slog.Warn("storage: relocated record has no items", "container", containerID)
	}
	return share.NewRecord(items), nil
}

// rollback deletes the files copied for a record that failed part way.
func (r *Relocator) rollback(ctx context.Context, c Container, names []string) {
	ctx = context.WithoutCancel(ctx)
	for _, name := range names {
		if err := c.Delete(ctx, name); err != nil && !errors.Is(err, ErrNotFound) {
			slog.Warn("storage: rollback failed", "name", name, "err", err)
		}
	}
	if len(names) > 0 {
		slog.Debug("storage: rolled back relocated files", "count", len(names))
	}
}

func (r *Relocator) relocateItem(ctx context.Context, c Container, it share.Item) (relocation, error) {
	u, err := url.Parse(it.Value)
	if err != nil || u.Scheme == "" {
		return relocation{}, fmt.Errorf("%w: value %q is not a URI", share.ErrUnrecognizedPayload, it.Value)
	}

	var (
		body    io.ReadCloser
		ext     string
		tempSrc string
	)
	switch u.Scheme {
	case "file":
		src, err := share.FilePath(u)
		if err != nil {
			return relocation{}, fmt.Errorf("%w: %v", share.ErrFileRelocationFailed, err)
		}
		st, err := os.Stat(src)
		if err != nil {
			return relocation{}, fmt.Errorf("%w: %v", share.ErrFileRelocationFailed, err)
		}
		if st.IsDir() {
			return relocation{}, fmt.Errorf("%w: %s is a directory", share.ErrFileRelocationFailed, src)
		}
		f, err := os.Open(src)
		if err != nil {
			return relocation{}, fmt.Errorf("%w: %v", share.ErrFileRelocationFailed, err)
		}
		body, ext = f, filepath.Ext(src)
		if r.isTempFile(src) {
			tempSrc = src
		}
	case "http", "https":
		body, err = r.download(ctx, u)
		if err != nil {
			return relocation{}, fmt.Errorf("%w: %v", share.ErrFileRelocationFailed, err)
		}
		ext = path.Ext(u.Path)
	default:
		return relocation{}, fmt.Errorf("%w: unsupported scheme %q", share.ErrFileRelocationFailed, u.Scheme)
	}

	name := uuid.New().String() + ext
	info, err := c.Save(ctx, name, body)
	body.Close()
	if err != nil {
		return relocation{}, fmt.Errorf("%w: %v", share.ErrFileRelocationFailed, err)
	}
	dst, err := share.FileURL(info.Path)
	if err != nil {
		c.Delete(context.WithoutCancel(ctx), name)
		return relocation{}, fmt.Errorf("%w: %v", share.ErrFileRelocationFailed, err)
	}

	slog.Debug("storage: relocated", "from", u.Redacted(), "to", info.Path)
	it.Value = dst.String()
	return relocation{item: it, name: name, tempSrc: tempSrc}, nil
}

func (r *Relocator) download(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: HTTP %d", u.Redacted(), resp.StatusCode)
	}
	return resp.Body, nil
}

// isTempFile reports whether src was written by the extractor: a prefixed
// file directly inside the configured temp dir.
func (r *Relocator) isTempFile(src string) bool {
	if !strings.HasPrefix(filepath.Base(src), extract.TempFilePrefix) {
		return false
	}
	dir := r.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	return filepath.Clean(filepath.Dir(src)) == filepath.Clean(dir)
}

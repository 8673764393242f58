// Package extract materializes attachment provider payloads into string
// encoded values tagged with a MIME type and a role.
package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/soochol/sharemenu/internal/provider"
	"github.com/soochol/sharemenu/internal/share"
	"github.com/soochol/sharemenu/internal/uti"
)

// Extractor runs the per-capability extraction routines.
type Extractor struct {
	types   *uti.Registry
	client  *http.Client
	tempDir string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTypes sets the registry used for MIME resolution.
func WithTypes(r *uti.Registry) Option {
	return func(e *Extractor) { e.types = r }
}

// WithHTTPClient sets the client used to check remote image URLs.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractor) { e.client = c }
}

// WithTempDir sets where raw image data is materialized. Empty means the OS
// temporary directory.
func WithTempDir(dir string) Option {
	return func(e *Extractor) { e.tempDir = dir }
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		types:  uti.Default(),
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract runs the extractor for capability c against p. ok is false when
// the payload was soft-skipped and contributes nothing.
func (e *Extractor) Extract(ctx context.Context, c provider.Capability, p provider.Provider) (v share.Value, ok bool, err error) {
	switch c {
	case provider.CapURL:
		v, err = e.extractURL(ctx, p, uti.TypeURL, share.RoleURL)
	case provider.CapFileURL:
		v, err = e.extractURL(ctx, p, uti.TypeFileURL, share.RoleFileURL)
	case provider.CapImage:
		v, err = e.extractImage(ctx, p)
	case provider.CapText:
		v, err = e.extractText(ctx, p)
	case provider.CapData:
		return e.extractData(ctx, p)
	case provider.CapPropertyList:
		v, err = e.extractPropertyList(ctx, p)
	default:
		return share.Value{}, false, fmt.Errorf("extract: unknown capability %v", c)
	}
	if err != nil {
		return share.Value{}, false, err
	}
	return v, true, nil
}

func (e *Extractor) extractURL(ctx context.Context, p provider.Provider, typeID string, role share.Role) (share.Value, error) {
	item, err := p.LoadItem(ctx, typeID)
	if err != nil {
		return share.Value{}, fmt.Errorf("load %s: %w", typeID, err)
	}
	u, ok := asURL(item)
	if !ok {
		return share.Value{}, fmt.Errorf("%w: URL provider did not provide a URL (got %T)", share.ErrUnrecognizedPayload, item)
	}
	return share.Value{Value: u.String(), MimeType: share.MimeURIList, Role: role}, nil
}

func (e *Extractor) extractText(ctx context.Context, p provider.Provider) (share.Value, error) {
	item, err := p.LoadItem(ctx, uti.TypeText)
	if err != nil {
		return share.Value{}, fmt.Errorf("load %s: %w", uti.TypeText, err)
	}
	s, ok := item.(string)
	if !ok {
		return share.Value{}, fmt.Errorf("%w: text provider did not provide a string (got %T)", share.ErrUnrecognizedPayload, item)
	}
	return share.Value{Value: s, MimeType: share.MimeTextPlain, Role: share.RoleText}, nil
}

// mimeTypeOf resolves the MIME type from the URL's path extension.
func (e *Extractor) mimeTypeOf(u *url.URL) string {
	return e.types.MIMEType(path.Ext(u.Path))
}

func asURL(item any) (*url.URL, bool) {
	switch v := item.(type) {
	case *url.URL:
		return v, v != nil
	case url.URL:
		return &v, true
	}
	return nil, false
}

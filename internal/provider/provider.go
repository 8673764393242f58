// Package provider describes attachment providers: opaque, typed handles to
// one representation of shared content, and the capabilities they conform to.
package provider

import (
	"context"
	"errors"
)

// Provider is an attachment provider handed over by the host.
//
// LoadItem may return any of the payload shapes the extractors understand:
// string, *url.URL, map[string]any (a dictionary), image.Image (raw pixel
// data) or []byte (an opaque blob).
type Provider interface {
	// HasItemConformingTo reports whether any registered representation
	// conforms to the type identifier.
	HasItemConformingTo(typeID string) bool
	// LoadItem materializes the representation conforming to typeID. It may
	// block on I/O and must honor ctx cancellation.
	LoadItem(ctx context.Context, typeID string) (any, error)
}

// ErrNotRegistered is returned by LoadItem when no representation conforms to
// the requested type identifier.
var ErrNotRegistered = errors.New("no representation conforms to type")

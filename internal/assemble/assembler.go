// Package assemble turns the ordered share-targets of one share invocation
// into a single grouped record.
package assemble

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/soochol/sharemenu/internal/extract"
	"github.com/soochol/sharemenu/internal/provider"
	"github.com/soochol/sharemenu/internal/share"
)

// Extractor materializes one capability of a provider. ok is false when the
// payload was skipped.
type Extractor interface {
	Extract(ctx context.Context, c provider.Capability, p provider.Provider) (v share.Value, ok bool, err error)
}

// Assembler runs extraction over every share-target and tags the results
// with their item group.
type Assembler struct {
	ex          Extractor
	parallel    bool
	loadTimeout time.Duration
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithParallel loads the attachments of one target concurrently. Results are
// still emitted in attachment order.
func WithParallel(on bool) Option {
	return func(a *Assembler) { a.parallel = on }
}

// WithLoadTimeout bounds the extraction of each attachment. Zero disables it.
func WithLoadTimeout(d time.Duration) Option {
	return func(a *Assembler) { a.loadTimeout = d }
}

// New creates an Assembler over ex.
func New(ex Extractor, opts ...Option) *Assembler {
	a := &Assembler{ex: ex}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Assemble extracts every target in order. Target n (1-based) becomes item
// group "ItemGroup n". The first hard error aborts the whole record.
func (a *Assembler) Assemble(ctx context.Context, targets []share.Target) (share.Record, error) {
	var items []share.Item
	for i, t := range targets {
		group := share.GroupName(i + 1)
		groupItems, err := a.assembleTarget(ctx, group, t)
		if err != nil {
			return share.Record{}, fmt.Errorf("%s: %w", group, err)
		}
		items = append(items, groupItems...)
	}
	slog.Debug("assemble: record built", "targets", len(targets), "items", len(items))
	return share.NewRecord(items), nil
}

func (a *Assembler) assembleTarget(ctx context.Context, group string, t share.Target) ([]share.Item, error) {
	perAttachment, err := a.extractAttachments(ctx, t.Attachments)
	if err != nil {
		return nil, err
	}

	var fromProviders int
	for _, vals := range perAttachment {
		fromProviders += len(vals)
	}
	if fromProviders == 0 {
		return nil, share.ErrNoProvidersRecognized
	}

	values := extract.RichText(t.Title, t.Content)
	for _, vals := range perAttachment {
		values = append(values, vals...)
	}

	seen := make(map[share.Role]bool, len(values))
	items := make([]share.Item, 0, len(values))
	for _, v := range values {
		if seen[v.Role] {
			slog.Warn("assemble: dropping duplicate role", "group", group, "role", v.Role)
			continue
		}
		seen[v.Role] = true
		items = append(items, v.InGroup(group))
	}
	return items, nil
}

// extractAttachments returns the values of each attachment, indexed like
// attachments.
func (a *Assembler) extractAttachments(ctx context.Context, attachments []provider.Provider) ([][]share.Value, error) {
	results := make([][]share.Value, len(attachments))

	if !a.parallel {
		for i, p := range attachments {
			vals, err := a.extractProvider(ctx, i, p)
			if err != nil {
				return nil, err
			}
			results[i] = vals
		}
		return results, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	for i, p := range attachments {
		g.Go(func() error {
			vals, err := a.extractProvider(gCtx, i, p)
			if err != nil {
				return err
			}
			results[i] = vals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// extractProvider runs one extractor per capability of p, in dispatch order.
func (a *Assembler) extractProvider(ctx context.Context, index int, p provider.Provider) ([]share.Value, error) {
	caps := provider.Classify(p)
	if caps.Empty() {
		slog.Debug("assemble: attachment has no known capability", "attachment", index)
		return nil, nil
	}

	if a.loadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.loadTimeout)
		defer cancel()
	}

	var vals []share.Value
	for _, c := range caps.List() {
		v, ok, err := a.ex.Extract(ctx, c, p)
		if err != nil {
			return nil, fmt.Errorf("attachment %d: %s: %w", index, c, err)
		}
		if !ok {
			continue
		}
		if !v.Role.Valid() {
			return nil, fmt.Errorf("attachment %d: %s: %w: role %q", index, c, share.ErrUnrecognizedPayload, v.Role)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

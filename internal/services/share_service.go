package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/soochol/sharemenu/internal/extension"
	"github.com/soochol/sharemenu/internal/share"
)

// Assembler builds a record from share-targets.
type Assembler interface {
	Assemble(ctx context.Context, targets []share.Target) (share.Record, error)
}

// Relocator moves file-backed items into a shared container.
type Relocator interface {
	Relocate(ctx context.Context, rec share.Record, containerID string) (share.Record, error)
}

// Handoff persists a finished share for the consuming application.
type Handoff interface {
	SaveRecord(ctx context.Context, rec share.Record) error
	SaveExtraData(ctx context.Context, extra map[string]any) error
	RemoveExtraData(ctx context.Context) error
}

// ShareConfig holds the per-extension settings of a ShareService.
type ShareConfig struct {
	// AppGroupID identifies both the shared container and the handoff suite.
	AppGroupID string
	// HostAppURL is opened to hand control back to the consuming application.
	HostAppURL string
	Rule       *ActivationRule
}

// ShareService drives one share extension: extraction into the shared
// container, handoff and request completion.
type ShareService struct {
	assembler Assembler
	relocator Relocator
	handoff   Handoff
	cfg       ShareConfig
}

func NewShareService(a Assembler, r Relocator, h Handoff, cfg ShareConfig) *ShareService {
	return &ShareService{assembler: a, relocator: r, handoff: h, cfg: cfg}
}

// ExtractInContainer assembles targets and relocates the result into the app
// group container.
func (s *ShareService) ExtractInContainer(ctx context.Context, targets []share.Target) (share.Record, error) {
	ok, err := s.cfg.Rule.Allows(targets)
	if err != nil {
		return share.Record{}, err
	}
	if !ok {
		return share.Record{}, fmt.Errorf("%w: %s", ErrActivationRejected, s.cfg.Rule)
	}

	rec, err := s.assembler.Assemble(ctx, targets)
	if err != nil {
		return share.Record{}, fmt.Errorf("extract: %w", err)
	}
	rec, err = s.relocator.Relocate(ctx, rec, s.cfg.AppGroupID)
	if err != nil {
		return share.Record{}, fmt.Errorf("relocate: %w", err)
	}
	return rec, nil
}

// Preview returns the record of req without storing or completing it.
func (s *ShareService) Preview(ctx context.Context, req *extension.Request) (share.Record, error) {
	return s.ExtractInContainer(ctx, req.Targets)
}

// Post stores the share of req for the consuming application, then opens the
// host app and completes the request. extraData replaces any previously
// stored extra data; nil or empty removes it. On failure the request is cancelled with
// the error.
func (s *ShareService) Post(ctx context.Context, req *extension.Request, extraData map[string]any) error {
	var err error
	if len(extraData) > 0 {
		err = s.handoff.SaveExtraData(ctx, extraData)
	} else {
		err = s.handoff.RemoveExtraData(ctx)
	}
	if err != nil {
		req.Cancel(err)
		return fmt.Errorf("store extra data: %w", err)
	}

	rec, err := s.ExtractInContainer(ctx, req.Targets)
	if err != nil {
		if rerr := s.handoff.RemoveExtraData(ctx); rerr != nil {
			slog.Warn("share: failed to remove extra data", "err", rerr)
		}
		slog.Error("share: extraction failed", "err", err)
		req.Cancel(err)
		return err
	}

	if err := s.handoff.SaveRecord(ctx, rec); err != nil {
		req.Cancel(err)
		return fmt.Errorf("store share: %w", err)
	}
	slog.Info("share: stored", "items", len(rec.Items), "groups", len(rec.Groups()))

	return s.OpenApp(req)
}

// OpenApp opens the host application and completes req.
func (s *ShareService) OpenApp(req *extension.Request) error {
	if s.cfg.HostAppURL == "" {
		err := errors.New("no host app url configured")
		req.Cancel(err)
		return err
	}
	if err := req.Open(s.cfg.HostAppURL); err != nil {
		return fmt.Errorf("open host app: %w", err)
	}
	req.Complete()
	return nil
}

// Dismiss cancels req with errMsg, or completes it when errMsg is empty.
func (s *ShareService) Dismiss(req *extension.Request, errMsg string) {
	if errMsg != "" {
		req.Cancel(errors.New(errMsg))
		return
	}
	req.Complete()
}

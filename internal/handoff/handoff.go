package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/soochol/sharemenu/internal/share"
)

// Keys of the suite entries read by the consuming application.
const (
	KeyRecord    = "ShareMenuUserDefaults"
	KeyExtraData = "ShareMenuUserDefaultsExtraData"

	fieldData     = "data"
	fieldMimeType = "mimeType"
)

// Handoff stores finished shares and the extra data attached to them.
type Handoff struct {
	store Store
}

func New(store Store) *Handoff {
	return &Handoff{store: store}
}

// SaveRecord stores rec as a JSON document tagged text/json.
func (h *Handoff) SaveRecord(ctx context.Context, rec share.Record) error {
	if err := share.ValidateResponse(share.Response{Items: rec.Items}); err != nil {
		return fmt.Errorf("handoff: %w", err)
	}
	data, err := json.Marshal(share.NewRecord(rec.Items))
	if err != nil {
		return fmt.Errorf("handoff: encode record: %w", err)
	}
	return h.store.Set(ctx, KeyRecord, map[string]any{
		fieldData:     string(data),
		fieldMimeType: share.MimeTextJSON,
	})
}

func (h *Handoff) SaveExtraData(ctx context.Context, extra map[string]any) error {
	return h.store.Set(ctx, KeyExtraData, extra)
}

func (h *Handoff) RemoveExtraData(ctx context.Context) error {
	return h.store.Remove(ctx, KeyExtraData)
}

// Load returns the stored share. It returns ErrNotFound when nothing has been
// shared since the last Clear.
func (h *Handoff) Load(ctx context.Context) (share.Response, error) {
	entry, err := h.store.Get(ctx, KeyRecord)
	if err != nil {
		return share.Response{}, err
	}
	raw, ok := entry[fieldData].(string)
	if !ok {
		return share.Response{}, fmt.Errorf("handoff: stored record has no %q string", fieldData)
	}
	var rec share.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return share.Response{}, fmt.Errorf("handoff: decode record: %w", err)
	}

	resp := share.Response{Items: share.NewRecord(rec.Items).Items}
	extra, err := h.store.Get(ctx, KeyExtraData)
	switch {
	case err == nil:
		resp.ExtraData = extra
	case !errors.Is(err, ErrNotFound):
		return share.Response{}, err
	}

	if err := share.ValidateResponse(resp); err != nil {
		return share.Response{}, fmt.Errorf("handoff: %w", err)
	}
	return resp, nil
}

// Clear removes both the record and its extra data.
func (h *Handoff) Clear(ctx context.Context) error {
	if err := h.store.Remove(ctx, KeyRecord); err != nil {
		return err
	}
	return h.store.Remove(ctx, KeyExtraData)
}

package handoff_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/soochol/sharemenu/internal/handoff"
	"github.com/soochol/sharemenu/internal/share"
)

func stores(t *testing.T) map[string]handoff.Store {
	t.Helper()
	ctx := context.Background()
	out := map[string]handoff.Store{
		"memory": handoff.NewMemoryStore("group.test"),
	}

	sq, err := handoff.NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "defaults.db"), "group.test")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	out["sqlite"] = sq

	if dsn := os.Getenv("SHAREMENU_TEST_POSTGRES_DSN"); dsn != "" {
		pg, err := handoff.NewPostgresStore(ctx, dsn, "group.test")
		if err != nil {
			t.Fatalf("NewPostgresStore: %v", err)
		}
		out["postgres"] = pg
	}

	t.Cleanup(func() {
		for _, s := range out {
			s.Close()
		}
	})
	return out
}

func TestStore_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, "missing"); !errors.Is(err, handoff.ErrNotFound) {
				t.Errorf("missing: got %v", err)
			}

			if err := s.Set(ctx, "k", map[string]any{"a": "1"}); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := s.Set(ctx, "k", map[string]any{"a": "2", "n": 3.0}); err != nil {
				t.Fatalf("Set again: %v", err)
			}

			v, err := s.Get(ctx, "k")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if want := map[string]any{"a": "2", "n": 3.0}; !reflect.DeepEqual(v, want) {
				t.Errorf("value: got %v, want %v", v, want)
			}

			for i := 0; i < 2; i++ {
				if err := s.Remove(ctx, "k"); err != nil {
					t.Fatalf("Remove %d: %v", i, err)
				}
			}
			if _, err := s.Get(ctx, "k"); !errors.Is(err, handoff.ErrNotFound) {
				t.Errorf("after remove: got %v", err)
			}
		})
	}
}

func TestSQLiteStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "defaults.db")

	s, err := handoff.NewSQLiteStore(ctx, path, "group.a")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := s.Set(ctx, "k", map[string]any{"v": "kept"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = handoff.NewSQLiteStore(ctx, path, "group.a")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	v, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v["v"] != "kept" {
		t.Errorf("value: got %v", v)
	}

	other, err := handoff.NewSQLiteStore(ctx, path, "group.b")
	if err != nil {
		t.Fatalf("open other suite: %v", err)
	}
	defer other.Close()
	if _, err := other.Get(ctx, "k"); !errors.Is(err, handoff.ErrNotFound) {
		t.Errorf("other suite: got %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := handoff.Open(ctx, "", "", "group.test")
	if err != nil {
		t.Fatalf("Open default: %v", err)
	}
	if _, ok := s.(*handoff.MemoryStore); !ok {
		t.Errorf("default driver: got %T", s)
	}

	s, err = handoff.Open(ctx, handoff.DriverSQLite, filepath.Join(t.TempDir(), "x.db"), "group.test")
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	s.Close()

	if _, err := handoff.Open(ctx, "redis", "", "group.test"); err == nil {
		t.Error("expected error for unknown driver")
	}
	if _, err := handoff.Open(ctx, handoff.DriverMemory, "", ""); err == nil {
		t.Error("expected error for empty suite")
	}
}

func TestHandoff_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := handoff.NewMemoryStore("group.test")
	h := handoff.New(store)

	if _, err := h.Load(ctx); !errors.Is(err, handoff.ErrNotFound) {
		t.Errorf("empty load: got %v", err)
	}

	rec := share.NewRecord([]share.Item{
		{Value: "hello", MimeType: "text/plain", ItemGroup: "ItemGroup 1", Role: share.RoleText},
	})
	if err := h.SaveRecord(ctx, rec); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	raw, err := store.Get(ctx, handoff.KeyRecord)
	if err != nil {
		t.Fatalf("Get record: %v", err)
	}
	if raw["mimeType"] != "text/json" {
		t.Errorf("mimeType: got %v", raw["mimeType"])
	}
	var got, want any
	json.Unmarshal([]byte(raw["data"].(string)), &got)
	json.Unmarshal([]byte(`{"items":[{"value":"hello","mimeType":"text/plain","itemGroup":"ItemGroup 1","role":"provider/text"}]}`), &want)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("data: got %s", raw["data"])
	}

	resp, err := h.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(resp.Items, rec.Items) || resp.ExtraData != nil {
		t.Errorf("loaded: %+v", resp)
	}

	if err := h.SaveExtraData(ctx, map[string]any{"note": "from ui"}); err != nil {
		t.Fatalf("SaveExtraData: %v", err)
	}
	resp, err = h.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(resp.ExtraData, map[string]any{"note": "from ui"}) {
		t.Errorf("extra data: got %v", resp.ExtraData)
	}

	if err := h.RemoveExtraData(ctx); err != nil {
		t.Fatalf("RemoveExtraData: %v", err)
	}
	resp, err = h.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if resp.ExtraData != nil {
		t.Errorf("extra data after remove: %v", resp.ExtraData)
	}

	if err := h.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := h.Load(ctx); !errors.Is(err, handoff.ErrNotFound) {
		t.Errorf("after clear: got %v", err)
	}
}

func TestHandoff_RejectsInvalidRecord(t *testing.T) {
	h := handoff.New(handoff.NewMemoryStore("group.test"))
	err := h.SaveRecord(context.Background(), share.NewRecord([]share.Item{
		{Value: "x", MimeType: "text/plain", ItemGroup: "Group 1", Role: "made/up"},
	}))
	var schemaErr *share.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Errorf("expected *share.SchemaError, got %v", err)
	}
}

package sweeper

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/soochol/sharemenu/internal/extract"
)

func touch(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	mt := time.Now().Add(-age)
	if err := os.Chtimes(path, mt, mt); err != nil {
		t.Fatal(err)
	}
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, extract.TempFilePrefix+"old.png")
	fresh := filepath.Join(dir, extract.TempFilePrefix+"new.png")
	other := filepath.Join(dir, "unrelated.png")
	touch(t, stale, 2*time.Hour)
	touch(t, fresh, time.Minute)
	touch(t, other, 2*time.Hour)

	n, err := New(dir, time.Hour).Sweep(time.Now())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 1 {
		t.Errorf("removed: got %d, want 1", n)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale file should be removed")
	}
	for _, p := range []string{fresh, other} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s should be kept: %v", filepath.Base(p), err)
		}
	}
}

func TestSweep_MissingDir(t *testing.T) {
	n, err := New(filepath.Join(t.TempDir(), "nope"), time.Hour).Sweep(time.Now())
	if err != nil || n != 0 {
		t.Errorf("got %d, %v", n, err)
	}
}

func TestParseCronExpr(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"*/5 * * * *", false},
		{"0 */10 * * * *", false},
		{"@every 15m", false},
		{"@hourly", false},
		{"not a schedule", true},
	}
	for _, tt := range tests {
		_, err := parseCronExpr(tt.expr)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseCronExpr(%q): err=%v, wantErr=%v", tt.expr, err, tt.wantErr)
		}
	}
}

func TestStartStop(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, extract.TempFilePrefix+"old.bin")
	touch(t, stale, time.Hour)

	s := New(dir, time.Minute)
	if err := s.Start("bad"); err == nil {
		t.Fatal("expected error for bad schedule")
	}
	if err := s.Start("* * * * * *"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(stale); os.IsNotExist(err) {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Error("scheduled sweep did not remove stale file")
}

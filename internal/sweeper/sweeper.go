// Package sweeper removes temporary files that extraction wrote but nothing
// relocated, on a cron schedule.
package sweeper

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/soochol/sharemenu/internal/extract"
)

// Sweeper deletes extraction temp files older than MaxAge from Dir.
type Sweeper struct {
	dir    string
	maxAge time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
}

// New returns a sweeper over dir. An empty dir means the OS temp directory.
func New(dir string, maxAge time.Duration) *Sweeper {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Sweeper{dir: dir, maxAge: maxAge}
}

// parseCronExpr tries 6-field (with seconds) then 5-field (standard) parsing.
// Descriptors such as "@every 10m" and "@hourly" are accepted by both.
func parseCronExpr(expr string) (cron.Schedule, error) {
	parser6 := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser6.Parse(expr)
	if err == nil {
		return sched, nil
	}
	parser5 := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return parser5.Parse(expr)
}

// Start schedules Sweep according to expr. Calling Start again replaces the
// schedule.
func (s *Sweeper) Start(expr string) error {
	sched, err := parseCronExpr(expr)
	if err != nil {
		return fmt.Errorf("sweeper: parse schedule %q: %w", expr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		s.cron = cron.New()
		s.cron.Start()
	} else {
		s.cron.Remove(s.entryID)
	}
	s.entryID = s.cron.Schedule(sched, cron.FuncJob(func() {
		if _, err := s.Sweep(time.Now()); err != nil {
			slog.Warn("sweeper: sweep failed", "dir", s.dir, "err", err)
		}
	}))
	slog.Info("sweeper: scheduled", "dir", s.dir, "cron", expr, "max_age", s.maxAge)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// Sweep removes stale temp files as of now and returns how many it removed.
func (s *Sweeper) Sweep(now time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", s.dir, err)
	}

	removed := 0
	var errs []error
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasPrefix(e.Name(), extract.TempFilePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < s.maxAge {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		slog.Info("sweeper: removed stale temp files", "dir", s.dir, "count", removed)
	}
	return removed, errors.Join(errs...)
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/soochol/sharemenu/internal/api"
	"github.com/soochol/sharemenu/internal/assemble"
	"github.com/soochol/sharemenu/internal/config"
	"github.com/soochol/sharemenu/internal/extension"
	"github.com/soochol/sharemenu/internal/extract"
	"github.com/soochol/sharemenu/internal/handoff"
	"github.com/soochol/sharemenu/internal/manifest"
	"github.com/soochol/sharemenu/internal/services"
	"github.com/soochol/sharemenu/internal/storage"
	"github.com/soochol/sharemenu/internal/sweeper"
)

const usage = `sharemenu v0.1.0
Usage:
  sharemenu extract <manifest.yaml>            print the share record
  sharemenu post <manifest.yaml> [extra.json]  store the share and open the host app
  sharemenu serve [manifest.yaml]              run the HTTP bridge
  sharemenu initial                            print the stored share
  sharemenu clear                              forget the stored share`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		return
	}

	cfg, err := config.LoadDefault()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}
	setupLogging(cfg.Logging)
	if err := cfg.Validate(); err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	args := os.Args[2:]
	switch os.Args[1] {
	case "extract":
		err = runExtract(ctx, cfg, args)
	case "post":
		err = runPost(ctx, cfg, args)
	case "serve":
		err = serve(ctx, cfg, args)
	case "initial":
		err = runInitial(ctx, cfg)
	case "clear":
		err = runClear(ctx, cfg)
	default:
		fmt.Println(usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error(os.Args[1]+" failed", "err", err)
		os.Exit(1)
	}
}

func setupLogging(c config.LoggingConfig) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if strings.EqualFold(c.Format, "json") {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

// app holds the wired pipeline shared by every command.
type app struct {
	shares  *services.ShareService
	handoff *handoff.Handoff
	store   handoff.Store
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	rule, err := services.CompileActivationRule(cfg.Extension.ActivationRule)
	if err != nil {
		return nil, err
	}
	store, err := handoff.Open(ctx, cfg.Handoff.Driver, cfg.Handoff.DSN, cfg.Extension.AppGroupID)
	if err != nil {
		return nil, err
	}
	h := handoff.New(store)

	ex := extract.New(extract.WithTempDir(cfg.Extraction.TempDir))
	asm := assemble.New(ex,
		assemble.WithParallel(cfg.Extraction.Parallel),
		assemble.WithLoadTimeout(cfg.Extraction.LoadTimeout),
	)
	rel := storage.NewRelocator(
		storage.DirResolver{Root: cfg.Container.Root, Create: cfg.Container.Create},
		storage.WithTempDir(cfg.Extraction.TempDir),
	)
	shares := services.NewShareService(asm, rel, h, services.ShareConfig{
		AppGroupID: cfg.Extension.AppGroupID,
		HostAppURL: cfg.Extension.HostAppURL,
		Rule:       rule,
	})
	return &app{shares: shares, handoff: h, store: store}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("closing handoff store", "err", err)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func loadRequest(args []string) (*extension.Request, error) {
	if len(args) < 1 {
		return nil, errors.New("manifest path is required")
	}
	targets, err := manifest.DecodeFile(args[0])
	if err != nil {
		return nil, err
	}
	return extension.NewRequest(targets), nil
}

func runExtract(ctx context.Context, cfg *config.Config, args []string) error {
	req, err := loadRequest(args)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.shares.Preview(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(rec)
}

func runPost(ctx context.Context, cfg *config.Config, args []string) error {
	req, err := loadRequest(args)
	if err != nil {
		return err
	}
	var extra map[string]any
	if len(args) > 1 {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read extra data: %w", err)
		}
		if err := json.Unmarshal(data, &extra); err != nil {
			return fmt.Errorf("parse extra data: %w", err)
		}
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.shares.Post(ctx, req, extra); err != nil {
		return err
	}
	out := req.Outcome()
	slog.Info("share posted", "status", out.Status, "opened", out.Opened)
	return nil
}

func runInitial(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.handoff.Load(ctx)
	if errors.Is(err, handoff.ErrNotFound) {
		slog.Info("no stored share")
		return nil
	}
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func runClear(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.handoff.Clear(ctx)
}

func serve(ctx context.Context, cfg *config.Config, args []string) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := api.NewServer(a.shares, a.handoff)
	srv.SetJWTSecret(cfg.Bridge.JWTSecret)
	srv.SetAllowedOrigins(cfg.Bridge.AllowedOrigins)
	if len(args) > 0 {
		req, err := loadRequest(args)
		if err != nil {
			return err
		}
		srv.SetRequest(req)
		srv.SetManifestDecoder(manifest.Decoder{BaseDir: filepath.Dir(args[0])})
	}

	if cfg.Sweeper.Schedule != "" {
		sw := sweeper.New(cfg.Extraction.TempDir, cfg.Sweeper.MaxAge)
		if err := sw.Start(cfg.Sweeper.Schedule); err != nil {
			return err
		}
		defer sw.Stop()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	slog.Info("starting sharemenu bridge", "addr", addr, "app_group", cfg.Extension.AppGroupID)
	return http.ListenAndServe(addr, srv.Handler())
}

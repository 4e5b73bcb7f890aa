package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/specialistvlad/cardc/internal/builder"
	"github.com/specialistvlad/cardc/internal/cardenv"
	"github.com/specialistvlad/cardc/internal/ctxlog"
	"github.com/specialistvlad/cardc/internal/realm"
	"github.com/specialistvlad/cardc/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	ctx    context.Context
	config *Config
	fs     afero.Fs

	realm    *realm.Memory
	realms   realm.Union
	registry *registry.Registry
	builder  *builder.Builder
	env      *cardenv.Env
}

// NewApp is the constructor for the main application. It loads the bundled
// base realm and the configured realm from fs and wires the builder over
// them. Startup failures panic; the entrypoint recovers them.
func NewApp(outW io.Writer, cfg *Config, fs afero.Fs) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	base, err := realm.Base(ctx)
	if err != nil {
		panic(fmt.Errorf("failed to load base realm: %w", err))
	}

	own := realm.NewMemory(cfg.RealmURL)
	dir := afero.NewIOFS(afero.NewBasePathFs(fs, cfg.RealmPath))
	if _, err := own.LoadDir(ctx, dir, "."); err != nil {
		// A realm that cannot be read is a fatal startup error.
		panic(fmt.Errorf("failed to load realm %s: %w", cfg.RealmPath, err))
	}

	realms := realm.Union{base, own}
	reg := registry.New()
	b, err := builder.New(realms, reg, cfg.CacheSize)
	if err != nil {
		panic(err)
	}
	logger.Debug("Builder configured.", "cache_size", cfg.CacheSize)

	return &App{
		outW:     outW,
		logger:   logger,
		ctx:      ctx,
		config:   cfg,
		fs:       fs,
		realm:    own,
		realms:   realms,
		registry: reg,
		builder:  b,
		env:      cardenv.New(realms, b),
	}
}

// Context returns the application context carrying its logger.
func (a *App) Context() context.Context {
	return a.ctx
}

// Registry returns the application's module registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Realm returns the realm loaded from the configured directory.
func (a *App) Realm() *realm.Memory {
	return a.realm
}

// Env returns the local CardEnv serving the application's realms.
func (a *App) Env() *cardenv.Env {
	return a.env
}

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bongo"
	"github.com/roach88/bongo/internal/config"
	"github.com/roach88/bongo/internal/logging"
	"github.com/roach88/bongo/internal/schema"
	"github.com/roach88/bongo/internal/store"
)

// env is the resolved per-invocation state shared by commands.
type env struct {
	opts   *RootOptions
	cfg    *config.Config
	logger *slog.Logger
	out    *OutputFormatter
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// setup loads configuration and builds the logger.
func setup(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	out := newFormatter(opts, cmd)

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, out.Fail("load config", err)
	}

	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return nil, out.Fail("configure logging", err)
	}

	return &env{opts: opts, cfg: cfg, logger: logger, out: out}, nil
}

// manifestPath picks the manifest: explicit argument, then --manifest,
// then BONGO_MANIFEST.
func (e *env) manifestPath(arg string) string {
	switch {
	case arg != "":
		return arg
	case e.opts.Manifest != "":
		return e.opts.Manifest
	default:
		return e.cfg.Manifest
	}
}

// open connects to the store and registers every type in the manifest at
// path (if any). The caller closes the returned registry.
func (e *env) open(ctx context.Context, path string) (*bongo.Bongo, map[string]*bongo.Collection[bongo.M], error) {
	e.out.VerboseLog("opening %s store", e.cfg.Driver)
	b, err := bongo.Open(ctx, store.Options{
		Driver:       e.cfg.Driver,
		DSN:          e.cfg.DSN,
		MaxOpenConns: e.cfg.MaxOpenConns,
		BusyTimeout:  e.cfg.BusyTimeout,
		Logger:       e.logger,
	}, bongo.WithLogger(e.logger), bongo.WithPageSize(e.cfg.PageSize))
	if err != nil {
		return nil, nil, e.out.Fail("open store", err)
	}

	if path == "" {
		return b, map[string]*bongo.Collection[bongo.M]{}, nil
	}

	decls, err := loadManifest(path)
	if err != nil {
		b.Close()
		return nil, nil, e.out.Fail("load manifest", err)
	}
	cols, err := registerAll(b, decls)
	if err != nil {
		b.Close()
		return nil, nil, e.out.Fail("register types", err)
	}
	e.out.VerboseLog("registered %d type(s) from %s", len(cols), path)
	return b, cols, nil
}

// collection looks up a registered type by name.
func (e *env) collection(cols map[string]*bongo.Collection[bongo.M], name string) (*bongo.Collection[bongo.M], error) {
	c, ok := cols[name]
	if !ok {
		return nil, e.out.Fail("lookup type", fmt.Errorf("type %q is not declared in the manifest", name))
	}
	return c, nil
}

func loadManifest(path string) ([]schema.Decl, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return schema.DecodeManifest(f)
}

func registerAll(b *bongo.Bongo, decls []schema.Decl) (map[string]*bongo.Collection[bongo.M], error) {
	cols := make(map[string]*bongo.Collection[bongo.M], len(decls))
	for _, d := range decls {
		c, err := bongo.Register[bongo.M](b, bongo.DocumentType{Name: d.Name, Prefix: d.Prefix, Schema: d.Fields})
		if err != nil {
			return nil, err
		}
		cols[d.Name] = c
	}
	return cols, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

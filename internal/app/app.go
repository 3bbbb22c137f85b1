// Package app wires the store, schemas, catalog, cache, gateway and
// dashboard into one process-lifetime object. It owns the cache: every
// surface that reads tables goes through App.Cache.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/f1metrix/internal/cache"
	"github.com/roach88/f1metrix/internal/catalog"
	"github.com/roach88/f1metrix/internal/config"
	"github.com/roach88/f1metrix/internal/dashboard"
	"github.com/roach88/f1metrix/internal/gateway"
	"github.com/roach88/f1metrix/internal/schema"
	"github.com/roach88/f1metrix/internal/store"
	"github.com/roach88/f1metrix/internal/table"
)

// ErrUnknownQuery indicates an editorial query name not in the catalog.
var ErrUnknownQuery = errors.New("unknown editorial query")

// App is the composition root.
type App struct {
	Config    *config.Config
	Store     *store.Store
	Schemas   *schema.Registry
	Catalog   *catalog.Catalog
	Cache     *cache.Cache
	Gateway   *gateway.Gateway
	Dashboard *dashboard.Service

	logger *slog.Logger
}

// Option configures New.
type Option func(*options)

type options struct {
	logger *slog.Logger
	ids    gateway.IDGenerator
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithIDGenerator overrides the ad-hoc query ID generator.
// A nil generator keeps the UUIDv7 default.
func WithIDGenerator(g gateway.IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// New opens the database and builds every component. The caller must Close
// the returned App.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	schemas, err := loadSchemas(cfg.Schema.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}
	cat, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	o.logger.Info("database opened", "path", cfg.Database.Path, "schemas", schemas.Len(), "queries", cat.Len())

	gwOpts := []gateway.Option{gateway.WithLogger(o.logger)}
	if o.ids != nil {
		gwOpts = append(gwOpts, gateway.WithIDGenerator(o.ids))
	}
	c := cache.New(st, cache.WithSchemas(schemas), cache.WithLogger(o.logger))

	return &App{
		Config:    cfg,
		Store:     st,
		Schemas:   schemas,
		Catalog:   cat,
		Cache:     c,
		Gateway:   gateway.New(st, gwOpts...),
		Dashboard: dashboard.New(c, dashboard.WithLogger(o.logger)),
		logger:    o.logger,
	}, nil
}

func loadSchemas(path string) (*schema.Registry, error) {
	if path == "" {
		return schema.Default()
	}
	return schema.Load(path)
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

// Close releases the database handle.
func (a *App) Close() error {
	return a.Store.Close()
}

// TableSummary describes one table or view in the database.
type TableSummary struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Rows        int64  `json:"rows"`
	Declared    bool   `json:"declared"`
	Description string `json:"description,omitempty"`
}

// Tables lists the database tables, marking those with a declared schema.
func (a *App) Tables(ctx context.Context) ([]TableSummary, error) {
	infos, err := a.Store.Tables(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TableSummary, 0, len(infos))
	for _, info := range infos {
		n, err := a.Store.RowCount(ctx, info.Name)
		if err != nil {
			return nil, err
		}
		s := TableSummary{Name: info.Name, Type: info.Type, Rows: n}
		if decl, ok := a.Schemas.Lookup(info.Name); ok {
			s.Declared = true
			s.Description = decl.Description
		}
		out = append(out, s)
	}
	return out, nil
}

// Editorial compiles a catalog query with values and runs it through the
// cache.
func (a *App) Editorial(ctx context.Context, name string, values map[string]string) (*catalog.Query, *table.Table, error) {
	q, ok := a.Catalog.Get(name)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownQuery, name)
	}
	req, err := q.Compile(values)
	if err != nil {
		return q, nil, err
	}
	t, err := a.Cache.Query(ctx, req)
	if err != nil {
		return q, nil, err
	}
	return q, t, nil
}

// ClearCache drops every cached result and returns how many were dropped.
func (a *App) ClearCache() int {
	n := a.Cache.Len()
	a.Cache.Clear()
	return n
}

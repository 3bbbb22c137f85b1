// Package dashboard assembles the data behind each dashboard page from
// cached tables. Pages never query the database directly.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/f1metrix/internal/schema"
	"github.com/roach88/f1metrix/internal/table"
)

const (
	// DefaultTop is the all-time ranking size when none is requested.
	DefaultTop = 25

	// MaxTop bounds the all-time ranking size.
	MaxTop = 100

	// TopPerformances is the size of the overperformance leaderboard.
	TopPerformances = 10
)

// Loader returns tables by name. *cache.Cache implements it.
type Loader interface {
	Load(ctx context.Context, name string) (*table.Table, error)
}

// Service builds page data.
type Service struct {
	tables Loader
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service reading through tables.
func New(tables Loader, opts ...Option) *Service {
	s := &Service{tables: tables, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AllTime returns the first top rows of the all-time ranking, which is
// stored ordered by the conservative lower bound. top <= 0 selects
// DefaultTop; values above MaxTop are clamped.
func (s *Service) AllTime(ctx context.Context, top int) (*table.Table, error) {
	if top <= 0 {
		top = DefaultTop
	}
	top = min(top, MaxTop)

	t, err := s.tables.Load(ctx, schema.AllTimeRanking)
	if err != nil {
		return nil, err
	}
	return t.Head(top), nil
}

// Years returns the seasons present in the yearly ranking, newest first.
func (s *Service) Years(ctx context.Context) ([]int64, error) {
	t, err := s.tables.Load(ctx, schema.YearlyRanking)
	if err != nil {
		return nil, err
	}
	return distinctYears(t, true), nil
}

// Yearly returns one season's ranking ordered by rank. year 0 selects the
// latest season. limit <= 0 returns every row.
func (s *Service) Yearly(ctx context.Context, year int64, limit int) (*table.Table, error) {
	t, err := s.tables.Load(ctx, schema.YearlyRanking)
	if err != nil {
		return nil, err
	}
	if year == 0 {
		years := distinctYears(t, true)
		if len(years) == 0 {
			return t, nil
		}
		year = years[0]
	}

	season := t.Filter(func(r table.Row) bool {
		y, ok := r.Int("year")
		return ok && y == year
	})
	ranked, err := season.SortBy("yearly_rank", false)
	if err != nil {
		return nil, fmt.Errorf("sort yearly ranking: %w", err)
	}
	if limit > 0 {
		ranked = ranked.Head(limit)
	}
	return ranked, nil
}

// distinctYears returns the non-null year values, sorted.
func distinctYears(t *table.Table, newestFirst bool) []int64 {
	var years []int64
	for _, v := range t.Distinct("year") {
		switch y := v.(type) {
		case int64:
			years = append(years, y)
		case float64:
			years = append(years, int64(y))
		}
	}
	slices.Sort(years)
	years = slices.Compact(years)
	if newestFirst {
		slices.Reverse(years)
	}
	return years
}

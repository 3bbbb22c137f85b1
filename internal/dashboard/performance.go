package dashboard

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/f1metrix/internal/schema"
	"github.com/roach88/f1metrix/internal/table"
)

// PerformanceFilter narrows the race performance explorer.
// Zero values mean no restriction.
type PerformanceFilter struct {
	// Drivers matches full display names. Empty selects every driver.
	Drivers []string

	// FromYear and ToYear bound the season range, inclusive.
	FromYear int64
	ToYear   int64
}

// PerformanceView is the data behind the race performance explorer.
type PerformanceView struct {
	// Rows are the filtered races in table order.
	Rows *table.Table `json:"rows"`

	// Top is the best TopPerformances rows by performance over expectation.
	Top *table.Table `json:"top"`

	// Drivers lists every selectable driver name, sorted.
	Drivers []string `json:"drivers"`

	// MinYear and MaxYear span the whole table.
	MinYear int64 `json:"min_year"`
	MaxYear int64 `json:"max_year"`

	// FromYear and ToYear are the applied range.
	FromYear int64 `json:"from_year"`
	ToYear   int64 `json:"to_year"`
}

// Performance filters the per-race table. A filter that matches nothing
// yields empty tables, not an error.
func (s *Service) Performance(ctx context.Context, f PerformanceFilter) (*PerformanceView, error) {
	t, err := s.tables.Load(ctx, schema.RacePerformance)
	if err != nil {
		return nil, err
	}

	view := &PerformanceView{Drivers: driverNames(t)}
	if years := distinctYears(t, false); len(years) > 0 {
		view.MinYear, view.MaxYear = years[0], years[len(years)-1]
	}
	view.FromYear, view.ToYear = view.MinYear, view.MaxYear
	if f.FromYear != 0 {
		view.FromYear = f.FromYear
	}
	if f.ToYear != 0 {
		view.ToYear = f.ToYear
	}

	want := make(map[string]bool, len(f.Drivers))
	for _, d := range f.Drivers {
		want[d] = true
	}

	view.Rows = t.Filter(func(r table.Row) bool {
		y, ok := r.Int("year")
		if !ok || y < view.FromYear || y > view.ToYear {
			return false
		}
		return len(want) == 0 || want[r.String(table.DisplayNameColumn)]
	})

	sorted, err := view.Rows.SortBy("performance_over_expectation", true)
	if err != nil {
		return nil, fmt.Errorf("sort performances: %w", err)
	}
	view.Top = sorted.Head(TopPerformances)

	s.logger.DebugContext(ctx, "performance filtered",
		"drivers", len(f.Drivers),
		"from", view.FromYear,
		"to", view.ToYear,
		"rows", view.Rows.Len())
	return view, nil
}

func driverNames(t *table.Table) []string {
	var names []string
	for _, v := range t.Distinct(table.DisplayNameColumn) {
		if s, ok := v.(string); ok {
			names = append(names, s)
		}
	}
	slices.Sort(names)
	return names
}

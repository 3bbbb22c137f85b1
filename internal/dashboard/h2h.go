package dashboard

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/f1metrix/internal/schema"
)

// fallbackShare is used when a probability string does not parse.
const fallbackShare = 0.5

// Matchup is one predicted teammate battle.
type Matchup struct {
	ConstructorID string   `json:"constructor_id"`
	Constructor   string   `json:"constructor"`
	Driver1       string   `json:"driver1"`
	Driver2       string   `json:"driver2"`
	Driver1Prob   string   `json:"driver1_prob"`
	Driver2Prob   string   `json:"driver2_prob"`
	Driver1Share  float64  `json:"driver1_share"`
	AvgGap        *float64 `json:"avg_gap"`
	GapHDI        string   `json:"gap_94_hdi"`
}

// HeadToHead returns the predicted teammate battles in table order.
func (s *Service) HeadToHead(ctx context.Context) ([]Matchup, error) {
	t, err := s.tables.Load(ctx, schema.HeadToHead)
	if err != nil {
		return nil, err
	}

	out := make([]Matchup, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		m := Matchup{
			ConstructorID: r.String("constructor_id"),
			Driver1:       r.String("driver1_name"),
			Driver2:       r.String("driver2_name"),
			Driver1Prob:   r.String("prob_d1_outperforms"),
			Driver2Prob:   r.String("prob_d2_outperforms"),
			GapHDI:        r.String("gap_94_hdi"),
		}
		m.Constructor = ConstructorName(m.ConstructorID)
		m.Driver1Share = ParseShare(m.Driver1Prob)
		if gap, ok := r.Float("avg_performance_gap"); ok {
			m.AvgGap = &gap
		}
		out = append(out, m)
	}
	return out, nil
}

// ConstructorName turns a constructor id into a display name:
// "red-bull" becomes "Red Bull".
func ConstructorName(id string) string {
	// Caser is stateful; one per call.
	return cases.Title(language.English).String(strings.ReplaceAll(id, "-", " "))
}

// ParseShare parses a percentage string such as "78.5%" into [0, 1].
// Unparseable input yields 0.5.
func ParseShare(s string) float64 {
	f, err := strconv.ParseFloat(strings.Trim(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return fallbackShare
	}
	return min(max(f/100, 0), 1)
}

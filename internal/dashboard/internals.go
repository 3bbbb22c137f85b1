package dashboard

import (
	"context"

	"github.com/roach88/f1metrix/internal/schema"
	"github.com/roach88/f1metrix/internal/table"
)

// RHatThreshold is the largest r_hat considered converged.
const RHatThreshold = 1.01

// Diagnostic flags one parameter that has not converged.
type Diagnostic struct {
	Parameter string  `json:"parameter"`
	RHat      float64 `json:"r_hat"`
	ESSBulk   float64 `json:"ess_bulk"`
}

// InternalsView is the model summary plus its convergence warnings.
type InternalsView struct {
	Summary     *table.Table `json:"summary"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Converged reports whether no parameter exceeded RHatThreshold.
func (v *InternalsView) Converged() bool {
	return len(v.Diagnostics) == 0
}

// Internals returns the raw posterior summary and flags parameters with
// r_hat above RHatThreshold.
func (s *Service) Internals(ctx context.Context) (*InternalsView, error) {
	t, err := s.tables.Load(ctx, schema.ModelSummary)
	if err != nil {
		return nil, err
	}

	view := &InternalsView{Summary: t, Diagnostics: []Diagnostic{}}
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		rhat, ok := r.Float("r_hat")
		if !ok || rhat <= RHatThreshold {
			continue
		}
		ess, _ := r.Float("ess_bulk")
		view.Diagnostics = append(view.Diagnostics, Diagnostic{
			Parameter: r.String("parameter"),
			RHat:      rhat,
			ESSBulk:   ess,
		})
	}
	if !view.Converged() {
		s.logger.WarnContext(ctx, "model summary has unconverged parameters", "count", len(view.Diagnostics))
	}
	return view, nil
}

// Package schema loads the declared shapes of the known model output tables.
//
// Schemas are written in CUE. The embedded schemas.cue covers the five tables
// the dashboard reads; a replacement document can be loaded from disk.
package schema

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/f1metrix/internal/table"
)

//go:embed schemas.cue
var defaultSchemas string

// Well-known table names.
const (
	AllTimeRanking  = "driver_all_time_u0_ranking_conservative"
	YearlyRanking   = "driver_yearly_pure_skill_rankings"
	RacePerformance = "driver_performance_over_expectation"
	HeadToHead      = "predictions_h2h_2025"
	ModelSummary    = "model_summary"
)

// Registry maps table names to their declared schema.
type Registry struct {
	schemas map[string]table.Schema
}

// Lookup returns the schema declared for a table.
func (r *Registry) Lookup(name string) (table.Schema, bool) {
	if r == nil {
		return table.Schema{}, false
	}
	s, ok := r.schemas[name]
	return s, ok
}

// Names returns the declared table names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of declared tables.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.schemas)
}

// Default returns the registry compiled from the embedded schemas.
func Default() (*Registry, error) {
	return Parse("schemas.cue", defaultSchemas)
}

// Load compiles a CUE schema document from disk.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return Parse(path, string(data))
}

// Parse compiles a CUE schema document. filename is used in error positions.
func Parse(filename, src string) (*Registry, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	reg := &Registry{schemas: make(map[string]table.Schema)}

	tablesVal := v.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return reg, nil
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		s, err := compileTable(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		reg.schemas[s.Table] = s
	}

	return reg, nil
}

// compileTable parses one table declaration.
func compileTable(name string, v cue.Value) (table.Schema, error) {
	s := table.Schema{Table: name}

	descVal := v.LookupPath(cue.ParsePath("description"))
	if descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return s, formatCUEError(err)
		}
		s.Description = desc
	}

	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return s, &CompileError{
			Field:   "table." + name + ".columns",
			Message: "columns are required",
			Pos:     v.Pos(),
		}
	}

	iter, err := colsVal.Fields(cue.Optional(true))
	if err != nil {
		return s, formatCUEError(err)
	}
	for iter.Next() {
		colType, err := extractColumnType(iter.Value())
		if err != nil {
			return s, err
		}
		s.Columns = append(s.Columns, table.SchemaColumn{
			Name:     iter.Selector().Unquoted(),
			Type:     colType,
			Optional: iter.IsOptional(),
		})
	}

	if len(s.Columns) == 0 {
		return s, &CompileError{
			Field:   "table." + name + ".columns",
			Message: "at least one column is required",
			Pos:     colsVal.Pos(),
		}
	}

	return s, nil
}

// extractColumnType maps a CUE kind to a column type.
// number is treated as float.
func extractColumnType(v cue.Value) (table.ColumnType, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return table.TypeString, nil
	case cue.IntKind:
		return table.TypeInt, nil
	case cue.FloatKind, cue.NumberKind:
		return table.TypeFloat, nil
	case cue.BoolKind:
		return table.TypeBool, nil
	default:
		return "", &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("unsupported column kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a schema error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}

package gateway

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/f1metrix/internal/store"
	"github.com/roach88/f1metrix/internal/table"
)

// retrievalKeyword is the only statement prefix the policy accepts.
const retrievalKeyword = "SELECT"

// Source executes one query in a read-only transaction.
// *store.Store implements it.
type Source interface {
	QueryReadOnly(ctx context.Context, query string) (*table.Table, error)
}

// IDGenerator generates query identifiers.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 query IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Result is a successfully executed ad-hoc query.
type Result struct {
	ID       string        `json:"id"`
	Query    string        `json:"query"`
	Table    *table.Table  `json:"table"`
	RowCount int           `json:"row_count"`
	Elapsed  time.Duration `json:"elapsed_ns"`
}

// Gateway enforces the read-only policy and executes accepted queries.
type Gateway struct {
	src    Source
	ids    IDGenerator
	logger *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithIDGenerator sets the query ID generator. Defaults to UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(gw *Gateway) { gw.ids = g }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(gw *Gateway) { gw.logger = l }
}

// New creates a Gateway over src.
func New(src Source, opts ...Option) *Gateway {
	gw := &Gateway{
		src:    src,
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(gw)
	}
	return gw
}

// CheckReadOnly applies the read-only policy and returns the trimmed text.
func CheckReadOnly(text string) (string, error) {
	q := strings.TrimSpace(text)
	if len(q) < len(retrievalKeyword) || !strings.EqualFold(q[:len(retrievalKeyword)], retrievalKeyword) {
		return q, &QueryError{
			Code:    ErrCodeNotReadOnly,
			Message: "only SELECT queries are allowed",
			Query:   q,
		}
	}
	return q, nil
}

// Run checks text against the read-only policy and executes it.
//
// The error is always a *QueryError. A failed or rejected query leaves the
// gateway and its source usable.
func (g *Gateway) Run(ctx context.Context, text string) (*Result, error) {
	id := g.ids.Generate()

	q, err := CheckReadOnly(text)
	if err != nil {
		qe := err.(*QueryError)
		qe.ID = id
		g.logger.WarnContext(ctx, "ad-hoc query rejected", "query_id", id, "code", qe.Code)
		return nil, qe
	}

	start := time.Now()
	t, err := g.src.QueryReadOnly(ctx, q)
	elapsed := time.Since(start)
	if err != nil {
		g.logger.WarnContext(ctx, "ad-hoc query failed", "query_id", id, "error", err)
		return nil, &QueryError{
			Code:    ErrCodeExecutionFailed,
			Message: store.EngineMessage(err),
			ID:      id,
			Query:   q,
			Err:     err,
		}
	}

	g.logger.InfoContext(ctx, "ad-hoc query executed",
		"query_id", id,
		"rows", t.Len(),
		"elapsed", elapsed)

	return &Result{
		ID:       id,
		Query:    q,
		Table:    t,
		RowCount: t.Len(),
		Elapsed:  elapsed,
	}, nil
}

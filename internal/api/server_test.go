package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/f1metrix/internal/app"
	"github.com/roach88/f1metrix/internal/cache"
	"github.com/roach88/f1metrix/internal/config"
	"github.com/roach88/f1metrix/internal/gateway"
	"github.com/roach88/f1metrix/internal/schema"
	"github.com/roach88/f1metrix/internal/testutil"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// envelope mirrors Response with a raw payload for typed decoding.
type envelope struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	Error     *ResponseError  `json:"error"`
	RequestID string          `json:"request_id"`
	QueryID   string          `json:"query_id"`
}

type tablePayload struct {
	Table    string  `json:"table"`
	Columns  []any   `json:"columns"`
	Rows     [][]any `json:"rows"`
	RowCount int     `json:"row_count"`
}

func newTestApp(t *testing.T, dbPath string) *app.App {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = dbPath
	a, err := app.New(cfg, app.WithIDGenerator(testutil.NewFixedIDGenerator("q-1")))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func newTestServer(t *testing.T) (*Server, *app.App) {
	t.Helper()
	a := newTestApp(t, testutil.NewResultsDB(t))
	return New(a, WithIDGenerator(testutil.NewFixedIDGenerator("req-1"))), a
}

func do(t *testing.T, s *Server, method, target string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func decodeData(t *testing.T, env envelope, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	w, env := do(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", env.Status)
	assert.Equal(t, "req-1", env.RequestID)
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "client-42")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "client-42", w.Header().Get(RequestIDHeader))
}

func TestTables(t *testing.T) {
	s, _ := newTestServer(t)

	w, env := do(t, s, http.MethodGet, "/api/tables", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tables []app.TableSummary
	decodeData(t, env, &tables)
	assert.Len(t, tables, 5)
}

func TestTable(t *testing.T) {
	s, a := newTestServer(t)

	w, env := do(t, s, http.MethodGet, "/api/tables/"+schema.AllTimeRanking+"?head=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got tablePayload
	decodeData(t, env, &got)
	assert.Equal(t, schema.AllTimeRanking, got.Table)
	assert.Equal(t, 2, got.RowCount)
	assert.Equal(t, 1, a.Cache.Len())
}

func TestTableErrors(t *testing.T) {
	s, a := newTestServer(t)

	w, env := do(t, s, http.MethodGet, "/api/tables/nonexistent_table", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "TABLE_NOT_FOUND", env.Error.Code)
	assert.Equal(t, "nonexistent_table", env.Error.Table)
	assert.Equal(t, 0, a.Cache.Len())

	w, env = do(t, s, http.MethodGet, "/api/tables/model_summary?head=ten", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidArgument, env.Error.Code)
}

func TestTableSchemaMismatch(t *testing.T) {
	path := testutil.NewResultsDB(t)
	require.NoError(t, testutil.Exec(path, "ALTER TABLE model_summary RENAME COLUMN r_hat TO rhat"))
	s := New(newTestApp(t, path))

	w, env := do(t, s, http.MethodGet, "/api/tables/"+schema.ModelSummary, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "SCHEMA_MISMATCH", env.Error.Code)
}

func TestDatabaseGone(t *testing.T) {
	s, a := newTestServer(t)
	require.NoError(t, a.Close())

	w, env := do(t, s, http.MethodGet, "/api/tables/"+schema.ModelSummary, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "CONNECTION_FAILURE", env.Error.Code)

	w, _ = do(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestQuery(t *testing.T) {
	s, a := newTestServer(t)

	tests := []struct {
		name     string
		sql      string
		status   int
		code     string
		message  string
		rowCount int
	}{
		{"lowercase select", "  select * from " + schema.AllTimeRanking, http.StatusOK, "", "", testutil.AllTimeRows},
		{"delete rejected", "DELETE FROM " + schema.AllTimeRanking, http.StatusForbidden, "NOT_READ_ONLY", "", 0},
		{"missing table", "SELECT * FROM nonexistent_table", http.StatusBadRequest, "EXECUTION_FAILED", "no such table: nonexistent_table", 0},
		{"multi-statement write", "SELECT 1; DELETE FROM model_summary", http.StatusBadRequest, "EXECUTION_FAILED", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, s, http.MethodPost, "/api/query", QueryRequest{SQL: tt.sql})
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "q-1", env.QueryID)
			if tt.code == "" {
				var res struct {
					RowCount int `json:"row_count"`
				}
				decodeData(t, env, &res)
				assert.Equal(t, tt.rowCount, res.RowCount)
				return
			}
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, env.Error.Message)
			}
		})
	}

	assert.Equal(t, 0, a.Cache.Len(), "ad-hoc results are never cached")
}

func TestQueryBadBody(t *testing.T) {
	s, _ := newTestServer(t)

	w, env := do(t, s, http.MethodPost, "/api/query", map[string]string{"query": "SELECT 1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidArgument, env.Error.Code)
}

func TestEditorial(t *testing.T) {
	s, a := newTestServer(t)

	w, env := do(t, s, http.MethodGet, "/api/editorial", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	decodeData(t, env, &list)
	assert.Len(t, list, 5)

	w, env = do(t, s, http.MethodGet, "/api/editorial/season-top-ten?year=2023&max_rank=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var run struct {
		Table tablePayload `json:"table"`
	}
	decodeData(t, env, &run)
	assert.Equal(t, 2, run.Table.RowCount)

	do(t, s, http.MethodGet, "/api/editorial/season-top-ten?year=2024", nil)
	assert.Equal(t, 2, a.Cache.Len(), "each binding is cached separately")

	w, env = do(t, s, http.MethodGet, "/api/editorial/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeUnknownQuery, env.Error.Code)

	w, env = do(t, s, http.MethodGet, "/api/editorial/season-top-ten?year=soon", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidArgument, env.Error.Code)
}

func TestRankings(t *testing.T) {
	s, _ := newTestServer(t)

	w, env := do(t, s, http.MethodGet, "/api/rankings/all-time?top=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var top tablePayload
	decodeData(t, env, &top)
	assert.Equal(t, 2, top.RowCount)

	w, env = do(t, s, http.MethodGet, "/api/rankings/yearly?year=2023", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var yearly struct {
		Years []int64      `json:"years"`
		Table tablePayload `json:"table"`
	}
	decodeData(t, env, &yearly)
	assert.Equal(t, []int64{2024, 2023}, yearly.Years)
	assert.Equal(t, 3, yearly.Table.RowCount)

	w, _ = do(t, s, http.MethodGet, "/api/rankings/yearly?year=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPerformance(t *testing.T) {
	s, _ := newTestServer(t)

	w, env := do(t, s, http.MethodGet, "/api/performance?driver=Max+Verstappen&driver=Lewis+Hamilton&from=2023", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		Rows     tablePayload `json:"rows"`
		Top      tablePayload `json:"top"`
		FromYear int64        `json:"from_year"`
		ToYear   int64        `json:"to_year"`
	}
	decodeData(t, env, &view)
	assert.Equal(t, 2, view.Rows.RowCount)
	assert.Equal(t, int64(2023), view.FromYear)
	assert.Equal(t, int64(2024), view.ToYear)
}

func TestHeadToHeadAndInternals(t *testing.T) {
	s, _ := newTestServer(t)

	w, env := do(t, s, http.MethodGet, "/api/h2h", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var matchups []map[string]any
	decodeData(t, env, &matchups)
	require.Len(t, matchups, testutil.HeadToHeadRows)
	assert.Equal(t, "Red Bull", matchups[0]["constructor"])

	w, env = do(t, s, http.MethodGet, "/api/internals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var internals struct {
		Converged   bool             `json:"converged"`
		Diagnostics []map[string]any `json:"diagnostics"`
	}
	decodeData(t, env, &internals)
	assert.False(t, internals.Converged)
	assert.Len(t, internals.Diagnostics, 1)
}

func TestCacheClear(t *testing.T) {
	s, a := newTestServer(t)

	do(t, s, http.MethodGet, "/api/h2h", nil)
	do(t, s, http.MethodGet, "/api/internals", nil)
	require.Equal(t, 2, a.Cache.Len())

	w, env := do(t, s, http.MethodPost, "/api/cache/clear", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cleared struct {
		Cleared int `json:"cleared"`
	}
	decodeData(t, env, &cleared)
	assert.Equal(t, 2, cleared.Cleared)
	assert.Equal(t, 0, a.Cache.Len())

	w, env = do(t, s, http.MethodGet, "/api/cache", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Misses  int64 `json:"misses"`
		Entries int   `json:"entries"`
	}
	decodeData(t, env, &stats)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, 0, stats.Entries)
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestDescribeContextErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"canceled load", &cache.DataLoadError{Code: cache.ErrCodeCanceled, Table: "model_summary", Err: context.Canceled}, statusClientClosedRequest},
		{"load deadline", &cache.DataLoadError{Code: cache.ErrCodeCanceled, Table: "model_summary", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"canceled ad-hoc query", &gateway.QueryError{Code: gateway.ErrCodeExecutionFailed, Message: "interrupted", Err: context.Canceled}, statusClientClosedRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, e := describe(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, CodeCanceled, e.Code)
		})
	}
}

func TestQueryNonFiniteFloat(t *testing.T) {
	s, _ := newTestServer(t)

	w, env := do(t, s, http.MethodPost, "/api/query", QueryRequest{SQL: "SELECT 1e999 AS big, -1e999 AS small, 1.5 AS plain"})
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Table tablePayload `json:"table"`
	}
	decodeData(t, env, &res)
	require.Len(t, res.Table.Rows, 1)
	assert.Equal(t, []any{nil, nil, 1.5}, res.Table.Rows[0])
}

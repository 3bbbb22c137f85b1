package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/f1metrix/internal/testutil"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, ctx context.Context, args ...string) result {
	t.Helper()
	cmd := newRootCommand(&RootOptions{IDGenerator: testutil.NewFixedIDGenerator("q-1")})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

// jsonResponse mirrors CLIResponse with a raw payload.
type jsonResponse struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Error   *CLIError       `json:"error"`
	TraceID string          `json:"trace_id"`
}

func decode(t *testing.T, r result) jsonResponse {
	t.Helper()
	var resp jsonResponse
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &resp), r.stdout)
	return resp
}

type rowCount struct {
	RowCount int `json:"row_count"`
}

func TestTablesCommand(t *testing.T) {
	db := testutil.NewResultsDB(t)

	r := execute(t, context.Background(), "tables", "--db", db)
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "model_summary")
	assert.Contains(t, r.stdout, "predictions_h2h_2025")
	assert.Contains(t, r.stdout, "✓")
}

func TestShowCommand(t *testing.T) {
	db := testutil.NewResultsDB(t)
	ctx := context.Background()

	t.Run("text", func(t *testing.T) {
		r := execute(t, ctx, "show", "model_summary", "--db", db)
		require.NoError(t, r.err)
		assert.Contains(t, r.stdout, "sigma_team")
		assert.Contains(t, r.stdout, "(3 rows)")
	})

	t.Run("json head", func(t *testing.T) {
		r := execute(t, ctx, "--format", "json", "show", "driver_all_time_u0_ranking_conservative", "-n", "2", "--db", db)
		require.NoError(t, r.err)
		var got rowCount
		require.NoError(t, json.Unmarshal(decode(t, r).Data, &got))
		assert.Equal(t, 2, got.RowCount)
	})

	t.Run("missing table", func(t *testing.T) {
		r := execute(t, ctx, "--format", "json", "show", "nonexistent_table", "--db", db)
		require.Error(t, r.err)
		assert.Equal(t, ExitFailure, GetExitCode(r.err))
		resp := decode(t, r)
		assert.Equal(t, "error", resp.Status)
		assert.Equal(t, ErrCodeTableNotFound, resp.Error.Code)
	})

	t.Run("negative head", func(t *testing.T) {
		r := execute(t, ctx, "show", "model_summary", "--head", "-1", "--db", db)
		assert.Equal(t, ExitCommandError, GetExitCode(r.err))
	})
}

func TestQueryCommand(t *testing.T) {
	db := testutil.NewResultsDB(t)
	ctx := context.Background()

	t.Run("select", func(t *testing.T) {
		r := execute(t, ctx, "--format", "json", "query", "select", "*", "from", "driver_all_time_u0_ranking_conservative", "--db", db)
		require.NoError(t, r.err)
		resp := decode(t, r)
		assert.Equal(t, "q-1", resp.TraceID)
		var got rowCount
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		assert.Equal(t, testutil.AllTimeRows, got.RowCount)
	})

	t.Run("text", func(t *testing.T) {
		r := execute(t, ctx, "query", "SELECT parameter FROM model_summary WHERE r_hat > 1.01", "--db", db)
		require.NoError(t, r.err)
		assert.Contains(t, r.stdout, "sigma_team")
		assert.Contains(t, r.stdout, "(1 row in")
	})

	t.Run("delete rejected", func(t *testing.T) {
		r := execute(t, ctx, "--format", "json", "query", "DELETE FROM model_summary", "--db", db)
		require.Error(t, r.err)
		resp := decode(t, r)
		assert.Equal(t, ErrCodeNotReadOnly, resp.Error.Code)
		assert.Equal(t, "q-1", resp.TraceID)
		assert.Equal(t, int64(testutil.SummaryRows), testutil.CountRows(t, db, "model_summary"))
	})

	t.Run("engine error verbatim", func(t *testing.T) {
		r := execute(t, ctx, "--format", "json", "query", "SELECT * FROM nonexistent_table", "--db", db)
		require.Error(t, r.err)
		resp := decode(t, r)
		assert.Equal(t, ErrCodeExecutionFailed, resp.Error.Code)
		assert.Equal(t, "no such table: nonexistent_table", resp.Error.Message)
	})
}

func TestEditorialCommands(t *testing.T) {
	db := testutil.NewResultsDB(t)
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		r := execute(t, ctx, "editorial", "list", "--db", db)
		require.NoError(t, r.err)
		assert.Contains(t, r.stdout, "season-top-ten")
		assert.Contains(t, r.stdout, "convergence-check")
	})

	t.Run("run with params", func(t *testing.T) {
		r := execute(t, ctx, "--format", "json", "editorial", "run", "season-top-ten", "-p", "year=2023", "--param", "max_rank=2", "--db", db)
		require.NoError(t, r.err)
		var got rowCount
		require.NoError(t, json.Unmarshal(decode(t, r).Data, &got))
		assert.Equal(t, 2, got.RowCount)
	})

	t.Run("run text", func(t *testing.T) {
		r := execute(t, ctx, "editorial", "run", "convergence-check", "--db", db)
		require.NoError(t, r.err)
		assert.Contains(t, r.stdout, "sigma_team")
		assert.Contains(t, r.stdout, "(1 row)")
	})

	t.Run("unknown query", func(t *testing.T) {
		r := execute(t, ctx, "--format", "json", "editorial", "run", "nope", "--db", db)
		require.Error(t, r.err)
		assert.Equal(t, ErrCodeUnknownQuery, decode(t, r).Error.Code)
	})

	t.Run("bad value", func(t *testing.T) {
		r := execute(t, ctx, "--format", "json", "editorial", "run", "season-top-ten", "-p", "year=soon", "--db", db)
		require.Error(t, r.err)
		assert.Equal(t, ErrCodeInvalidArgs, decode(t, r).Error.Code)
	})

	t.Run("malformed param", func(t *testing.T) {
		r := execute(t, ctx, "editorial", "run", "season-top-ten", "-p", "year", "--db", db)
		assert.Equal(t, ExitCommandError, GetExitCode(r.err))
	})
}

func TestPageCommands(t *testing.T) {
	db := testutil.NewResultsDB(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"alltime", []string{"alltime", "--top", "2"}, []string{"Lewis Hamilton", "Max Verstappen", "(2 rows)"}},
		{"yearly", []string{"yearly", "--year", "2023"}, []string{"Fernando Alonso"}},
		{"performance", []string{"performance", "--driver", "Max Verstappen", "--from", "2022"}, []string{"Max Verstappen"}},
		{"h2h", []string{"h2h"}, []string{"Red Bull", "Aston Martin", "78.5%"}},
		{"internals", []string{"internals"}, []string{"sigma_team"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := execute(t, ctx, append(tt.args, "--db", db)...)
			require.NoError(t, r.err)
			for _, want := range tt.want {
				assert.Contains(t, r.stdout, want)
			}
		})
	}
}

func TestMissingDatabase(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.db")

	r := execute(t, context.Background(), "tables", "--db", missing)
	require.Error(t, r.err)
	assert.Equal(t, ExitCommandError, GetExitCode(r.err))
	assert.Contains(t, r.err.Error(), "failed to open database")
	assert.NoFileExists(t, missing)
}

func TestServeStopsOnCancel(t *testing.T) {
	db := testutil.NewResultsDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	r := execute(t, ctx, "serve", "--addr", "127.0.0.1:0", "--db", db)
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Listening on http://127.0.0.1:")
	assert.Contains(t, r.stderr, "server stopped gracefully")
}

func TestServeBadAddress(t *testing.T) {
	db := testutil.NewResultsDB(t)

	r := execute(t, context.Background(), "serve", "--addr", "not-an-address", "--db", db)
	require.Error(t, r.err)
	assert.Equal(t, ExitCommandError, GetExitCode(r.err))
}

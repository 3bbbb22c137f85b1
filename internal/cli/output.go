package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/roach88/f1metrix/internal/app"
	"github.com/roach88/f1metrix/internal/cache"
	"github.com/roach88/f1metrix/internal/catalog"
	"github.com/roach88/f1metrix/internal/gateway"
	"github.com/roach88/f1metrix/internal/store"
	"github.com/roach88/f1metrix/internal/table"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Data could not be loaded, query rejected or failed
	ExitCommandError = 2 // Command error (invalid flags, config, database not found)
)

// Error codes carried in the JSON envelope.
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeInvalidArgs     = "E002" // Invalid flag or parameter value
	ErrCodeUnavailable     = "E003" // Database unavailable
	ErrCodeTableNotFound   = "E004" // Table not found
	ErrCodeSchemaMismatch  = "E005" // Table drifted from its declared schema
	ErrCodeNotReadOnly     = "E006" // Ad-hoc query rejected by the read-only policy
	ErrCodeExecutionFailed = "E007" // Ad-hoc query failed in the engine
	ErrCodeUnknownQuery    = "E008" // Editorial query not in the catalog
	ErrCodeCanceled        = "E009" // Interrupted before the result was ready
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ErrorCode maps a domain error to its envelope code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeCanceled
	case gateway.IsNotReadOnly(err):
		return ErrCodeNotReadOnly
	case gateway.IsExecutionFailed(err):
		return ErrCodeExecutionFailed
	case cache.IsTableNotFound(err):
		return ErrCodeTableNotFound
	case cache.IsSchemaMismatch(err):
		return ErrCodeSchemaMismatch
	case cache.IsConnectionFailure(err), errors.Is(err, store.ErrUnavailable):
		return ErrCodeUnavailable
	case catalog.IsBindError(err):
		return ErrCodeInvalidArgs
	case errors.Is(err, app.ErrUnknownQuery):
		return ErrCodeUnknownQuery
	}
	return ErrCodeGeneric
}

// errorMessage returns the user-facing message for err. Engine messages of
// failed ad-hoc queries are passed through verbatim.
func errorMessage(err error) string {
	var qe *gateway.QueryError
	if errors.As(err, &qe) {
		return qe.Message
	}
	return err.Error()
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`             // "ok" or "error"
	Data    any       `json:"data,omitempty"`     // success payload
	Error   *CLIError `json:"error,omitempty"`    // error details
	TraceID string    `json:"trace_id,omitempty"` // ad-hoc query ID
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// newFormatter builds the formatter for a command's output streams.
func newFormatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   opts.Verbose,
	}
}

// Success outputs a successful result in the configured format.
// Text output prints data with its default formatting.
func (f *OutputFormatter) Success(data any) error {
	return f.SuccessWithTrace(data, "")
}

// SuccessWithTrace is Success with a trace ID in the JSON envelope.
func (f *OutputFormatter) SuccessWithTrace(data any, traceID string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:  "ok",
			Data:    data,
			TraceID: traceID,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Table outputs a table: the JSON envelope, or a rendered grid with a row
// count footer.
func (f *OutputFormatter) Table(t *table.Table) error {
	if f.Format == "json" {
		return f.Success(t)
	}
	fmt.Fprintln(f.Writer, RenderTable(t.ColumnNames(), t.Strings()))
	fmt.Fprintf(f.Writer, "(%d %s)\n", t.Len(), plural(t.Len(), "row", "rows"))
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	return f.errorWithTrace(code, message, details, "")
}

func (f *OutputFormatter) errorWithTrace(code, message string, details any, traceID string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
			TraceID: traceID,
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail outputs err with its envelope code and returns the ExitError the
// command should return.
func (f *OutputFormatter) Fail(err error, traceID string) error {
	code := ErrorCode(err)
	_ = f.errorWithTrace(code, errorMessage(err), nil, traceID)
	return WrapExitError(ExitFailure, code, err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// RenderTable draws rows as a bordered grid for terminal output.
func RenderTable(headers []string, rows [][]string) string {
	return ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roach88/f1metrix/internal/app"
	"github.com/roach88/f1metrix/internal/cache"
	"github.com/roach88/f1metrix/internal/catalog"
	"github.com/roach88/f1metrix/internal/gateway"
	"github.com/roach88/f1metrix/internal/store"
)

// Error codes returned in the error envelope.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeUnknownQuery    = "UNKNOWN_QUERY"
	CodeInternal        = "INTERNAL"
	CodeCanceled        = "CANCELED"
)

// statusClientClosedRequest reports a request whose client went away
// before the response was ready.
const statusClientClosedRequest = 499

// Response is the envelope of every API response.
type Response struct {
	Status    string         `json:"status"` // "ok" or "error"
	Data      any            `json:"data,omitempty"`
	Error     *ResponseError `json:"error,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	QueryID   string         `json:"query_id,omitempty"`
}

// ResponseError describes a failed request.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Table   string `json:"table,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Status:    "ok",
		Data:      data,
		RequestID: c.GetString(requestIDKey),
	})
}

func fail(c *gin.Context, status int, e *ResponseError) {
	c.AbortWithStatusJSON(status, Response{
		Status:    "error",
		Error:     e,
		RequestID: c.GetString(requestIDKey),
	})
}

func badRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, &ResponseError{Code: CodeInvalidArgument, Message: message})
}

// failErr maps a domain error to its status and envelope.
func failErr(c *gin.Context, err error) {
	status, e := describe(err)
	fail(c, status, e)
}

func asQueryError(err error) (*gateway.QueryError, bool) {
	var qe *gateway.QueryError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

func describe(err error) (int, *ResponseError) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, &ResponseError{Code: CodeCanceled, Message: err.Error()}
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, &ResponseError{Code: CodeCanceled, Message: err.Error()}
	}

	if qe, isQE := asQueryError(err); isQE {
		status := http.StatusBadRequest
		if qe.Code == gateway.ErrCodeNotReadOnly {
			status = http.StatusForbidden
		} else if errors.Is(err, store.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		return status, &ResponseError{Code: string(qe.Code), Message: qe.Message}
	}

	var le *cache.DataLoadError
	if errors.As(err, &le) {
		e := &ResponseError{Code: string(le.Code), Message: err.Error(), Table: le.Table}
		switch le.Code {
		case cache.ErrCodeTableNotFound:
			return http.StatusNotFound, e
		case cache.ErrCodeConnectionFailure:
			return http.StatusServiceUnavailable, e
		case cache.ErrCodeQueryFailed:
			return http.StatusBadRequest, e
		}
		return http.StatusInternalServerError, e
	}

	switch {
	case catalog.IsBindError(err):
		return http.StatusBadRequest, &ResponseError{Code: CodeInvalidArgument, Message: err.Error()}
	case errors.Is(err, app.ErrUnknownQuery):
		return http.StatusNotFound, &ResponseError{Code: CodeUnknownQuery, Message: err.Error()}
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable, &ResponseError{Code: string(cache.ErrCodeConnectionFailure), Message: err.Error()}
	}
	return http.StatusInternalServerError, &ResponseError{Code: CodeInternal, Message: err.Error()}
}

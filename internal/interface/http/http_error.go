package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/phytocast/pkg/errors"
)

// HTTPError pairs a status and machine readable code with the message shown to clients.
// Err keeps the underlying cause for logs and is never serialized.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

var codeStatus = map[string]int{
	apperrors.CodeInvalidInput:        http.StatusBadRequest,
	apperrors.CodeForecastUnavailable: http.StatusBadGateway,
	apperrors.CodeDateNotFound:        http.StatusNotFound,
	apperrors.CodeHistory:             http.StatusInternalServerError,
	apperrors.CodeExport:              http.StatusInternalServerError,
}

// fromDomainError maps a service error onto the wire. Unknown codes become internal errors.
func fromDomainError(err error) *HTTPError {
	code := apperrors.CodeOf(err)
	if status, ok := codeStatus[code]; ok {
		return NewHTTPError(status, code, apperrors.MessageOf(err), err)
	}
	return asHTTPError(err)
}

func asHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return NewHTTPError(http.StatusInternalServerError, "internal_error", "something went wrong", err)
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

package common

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Sentinel errors for errors.Is checks across layers.
var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrNotFound     = errors.New("not found")
)

// AppError is an operational error whose message is safe to disclose to the
// client. Anything that is not an *AppError is treated as a programming error
// and collapsed to a generic 500.
type AppError struct {
	Code    string `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"message"`
	cause   error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause attaches an underlying error without changing the client-facing message.
func (e *AppError) WithCause(err error) *AppError {
	clone := *e
	clone.cause = err
	return &clone
}

func Unauthenticated(message string) *AppError {
	return &AppError{Code: "UNAUTHENTICATED", Status: http.StatusUnauthorized, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Code: "FORBIDDEN", Status: http.StatusForbidden, Message: message}
}

func InvalidToken(message string) *AppError {
	return &AppError{Code: "INVALID_TOKEN", Status: http.StatusUnauthorized, Message: message, cause: ErrInvalidToken}
}

func NotFound(resource string) *AppError {
	return &AppError{Code: "NOT_FOUND", Status: http.StatusNotFound, Message: resource + " not found", cause: ErrNotFound}
}

func UnauthenticatedEvent(message string) *AppError {
	return &AppError{Code: "UNAUTHENTICATED_EVENT", Status: http.StatusBadRequest, Message: message}
}

func ValidationFailed(message string) *AppError {
	return &AppError{Code: "VALIDATION_FAILED", Status: http.StatusBadRequest, Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Code: "CONFLICT", Status: http.StatusConflict, Message: message}
}

func Internal(message string) *AppError {
	return &AppError{Code: "INTERNAL", Status: http.StatusInternalServerError, Message: message}
}

type errorBody struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// HTTPErrorHandler maps errors to JSON responses. Operational *AppError
// messages are disclosed; everything else is logged and suppressed.
func HTTPErrorHandler(production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var appErr *AppError
		if errors.As(err, &appErr) {
			status := "fail"
			if appErr.Status >= http.StatusInternalServerError {
				status = "error"
			}
			_ = c.JSON(appErr.Status, errorBody{Status: status, Code: appErr.Code, Message: appErr.Message})
			return
		}

		if errors.Is(err, ErrNotFound) {
			_ = c.JSON(http.StatusNotFound, errorBody{Status: "fail", Code: "NOT_FOUND", Message: "resource not found"})
			return
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			_ = c.JSON(httpErr.Code, errorBody{Status: "fail", Message: http.StatusText(httpErr.Code)})
			return
		}

		log.Printf("unhandled error: %v", err)
		message := "Something went wrong"
		if !production {
			message = err.Error()
		}
		_ = c.JSON(http.StatusInternalServerError, errorBody{Status: "error", Message: message})
	}
}

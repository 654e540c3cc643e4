package models

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeBadRequest          = "BAD_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeInternal            = "INTERNAL_ERROR"
	CodeFailedRequestDB     = "FAILED_REQUEST_DB"
	CodeFailedDeletingFile  = "FAILED_DELETING_FILE"
	CodeFailedDeletingDir   = "FAILED_DELETING_DIRECTORY"
	CodeCannotWriteFile     = "CANNOT_WRITE_FILE"
	CodeDirectoryNotCreated = "DIRECTORY_NOT_CREATED"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status maps the error code to its HTTP status.
func (e *AppError) Status() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Predefined error constructors
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

func NewBadRequestError(message string) *AppError {
	return &AppError{Code: CodeBadRequest, Message: message}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

// NewDataConflictError reports request data that contradicts stored state.
func NewDataConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

func NewInternalError(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: "Internal server error", Err: err}
}

func NewFailedRequestDBError(message string, err error) *AppError {
	return &AppError{Code: CodeFailedRequestDB, Message: message, Err: err}
}

func NewFailedDeletingFileError(message string, err error) *AppError {
	return &AppError{Code: CodeFailedDeletingFile, Message: message, Err: err}
}

func NewFailedDeletingDirectoryError(message string, err error) *AppError {
	return &AppError{Code: CodeFailedDeletingDir, Message: message, Err: err}
}

func NewCannotWriteFileError(message string, err error) *AppError {
	return &AppError{Code: CodeCannotWriteFile, Message: message, Err: err}
}

func NewDirectoryNotCreatedError(message string, err error) *AppError {
	return &AppError{Code: CodeDirectoryNotCreated, Message: message, Err: err}
}

// DefaultMessage returns the fallback message for a status without one.
func DefaultMessage(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusNotFound:
		return "Not Found"
	case http.StatusMethodNotAllowed:
		return "Method Not Allowed"
	case http.StatusUnprocessableEntity:
		return "Invalid argument value"
	default:
		return "Whoops, looks like something went wrong"
	}
}

// StatusOf resolves the HTTP status for any error.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status()
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return http.StatusInternalServerError
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	response := ErrorResponse{Status: status}

	var appErr *AppError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &appErr):
		response.Error = appErr.Message
		response.Code = appErr.Code
	case errors.As(err, &fiberErr):
		response.Error = fiberErr.Message
	case status < http.StatusInternalServerError && err != nil:
		response.Error = err.Error()
	}
	// Storage and database failure kinds stay in the logs; clients see one code.
	if status >= http.StatusInternalServerError {
		response.Code = CodeInternal
	}

	// Internal details never leak to clients.
	if response.Error == "" || (status >= http.StatusInternalServerError && appErr == nil) {
		response.Error = DefaultMessage(status)
	}

	return c.Status(status).JSON(response)
}

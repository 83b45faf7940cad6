package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docudeep/internal/http/middleware"
	"docudeep/internal/logger"
	"docudeep/internal/service"
	"docudeep/internal/validation"
)

// errorPayload defines the standardized error response body.
// Message duplicates Error.Message for clients that only read the top-level field.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Message   string        `json:"message"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_TYPE", "CASE_NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Message:   message,
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError maps an error returned by the service layer onto the HTTP contract:
// validation failures are 400, missing cases or documents are 404, the rest is 500.
func writeServiceError(c *fiber.Ctx, err error) error {
	if ve, ok := validation.AsError(err); ok {
		return writeError(c, fiber.StatusBadRequest, string(ve.Code), ve.Message)
	}
	switch {
	case errors.Is(err, service.ErrCaseNotFound):
		return writeError(c, fiber.StatusNotFound, "CASE_NOT_FOUND", "case not found")
	case errors.Is(err, service.ErrDocumentNotFound):
		return writeError(c, fiber.StatusNotFound, "DOCUMENT_NOT_FOUND", "document not found")
	}

	logger.FromContext(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}

// Package http serves the finance API over chi.
//
// This file implements the Builder Pattern for JSON responses. Every body is
// the envelope {success, data} or {success:false, error}.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finhelper/internal/budget"
	"finhelper/internal/core"
	"finhelper/internal/transfer"
)

// envelope is the body shape shared by all JSON responses.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
}

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       envelope
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
		body:       envelope{Success: true},
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the payload of a successful response.
func (b *ResponseBuilder) Data(v any) *ResponseBuilder {
	b.body.Data = v
	return b
}

// Fail marks the response as failed with a user-facing message.
func (b *ResponseBuilder) Fail(message string) *ResponseBuilder {
	b.body.Success = false
	b.body.Error = message
	return b
}

// Code sets the machine-readable reason of a failure.
func (b *ResponseBuilder) Code(code string) *ResponseBuilder {
	b.body.Code = code
	return b
}

// Field names the request field a validation failure refers to.
func (b *ResponseBuilder) Field(field string) *ResponseBuilder {
	b.body.Field = field
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// OK creates a 200 response carrying data.
func OK(data any) *ResponseBuilder {
	return NewResponse().Data(data)
}

// Created creates a 201 response carrying data.
func Created(data any) *ResponseBuilder {
	return NewResponse().Status(http.StatusCreated).Data(data)
}

// ErrorResponse creates a standard failure response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).Fail(message)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// ConflictError creates a 409 Conflict response for a refused business rule.
func ConflictError(code, message string) *ResponseBuilder {
	return ErrorResponse(http.StatusConflict, message).Code(code)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError() *ResponseBuilder {
	return ErrorResponse(http.StatusMethodNotAllowed, "method not allowed")
}

// FromError maps a service error to its response. Unknown errors become a
// generic 500 so internal details do not leak.
func FromError(err error) *ResponseBuilder {
	var (
		validation *core.ValidationError
		constraint *core.ConstraintViolation
		importErr  *transfer.ImportFormatError
		bodyErr    *BodyError
	)
	switch {
	case errors.As(err, &validation):
		return UnprocessableEntityError(validation.Error()).Field(validation.Field)
	case errors.As(err, &constraint):
		return ConflictError(constraint.Code, constraint.Message)
	case errors.As(err, &importErr):
		return BadRequestError(importErr.Error()).Code("invalid_import")
	case errors.As(err, &bodyErr):
		return BadRequestError(bodyErr.Error())
	case errors.Is(err, budget.ErrNotEnoughCategories):
		return UnprocessableEntityError(err.Error())
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError(err.Error())
	default:
		return InternalServerError("internal error")
	}
}

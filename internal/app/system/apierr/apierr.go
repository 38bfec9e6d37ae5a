// Package apierr renders errors as JSON API responses.
package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/remixhub/internal/domain/collab"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Error codes.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

// APIError is the JSON error envelope.
type APIError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

func (e *APIError) Error() string { return e.Code + ": " + e.Message }

// New creates an APIError.
func New(code, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// WithDetails returns a copy carrying details.
func (e *APIError) WithDetails(details map[string]any) *APIError {
	c := *e
	c.Details = details
	return &c
}

// Status maps the code to an HTTP status.
func (e *APIError) Status() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// FromError classifies err. Unknown errors become an opaque internal error.
func FromError(err error) *APIError {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae
	}
	reason := collab.Reason(err)
	if reason == "" {
		reason = err.Error()
	}
	switch {
	case errors.Is(err, collab.ErrNotFound):
		return New(CodeNotFound, reason)
	case errors.Is(err, mongo.ErrNoDocuments):
		return New(CodeNotFound, "not found")
	case errors.Is(err, collab.ErrForbidden):
		return New(CodeForbidden, reason)
	case errors.Is(err, collab.ErrConflict):
		return New(CodeConflict, reason)
	case errors.Is(err, collab.ErrValidation):
		return New(CodeValidation, reason)
	}
	return New(CodeInternal, "internal error")
}

// WriteJSON writes data with status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Write renders e, stamping the request id.
func Write(w http.ResponseWriter, r *http.Request, e *APIError) {
	c := *e
	c.RequestID = middleware.GetReqID(r.Context())
	WriteJSON(w, c.Status(), &c)
}

// Respond renders err. Internal errors are logged with the request id and
// never expose their message.
func Respond(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	e := FromError(err)
	if e.Code == CodeInternal && log != nil {
		log.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	Write(w, r, e)
}

// Unauthorized writes a 401.
func Unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	Write(w, r, New(CodeUnauthorized, msg))
}

// Forbidden writes a 403.
func Forbidden(w http.ResponseWriter, r *http.Request, msg string) {
	Write(w, r, New(CodeForbidden, msg))
}

// BadRequest writes a 400 validation error.
func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	Write(w, r, New(CodeValidation, msg))
}

// RateLimited writes a 429. Suitable as ratelimit's onLimit callback.
func RateLimited(w http.ResponseWriter, r *http.Request) {
	Write(w, r, New(CodeRateLimited, "too many requests, retry later"))
}

// NotFoundHandler is the router's fallback for unknown routes.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	Write(w, r, New(CodeNotFound, "route not found"))
}

// MethodNotAllowedHandler is the router's fallback for a wrong method.
func MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusMethodNotAllowed, &APIError{
		Code:      "METHOD_NOT_ALLOWED",
		Message:   "method not allowed",
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// RequestID reuses an inbound X-Request-Id or mints a uuid, stores it where
// middleware.GetReqID finds it, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

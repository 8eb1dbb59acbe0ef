// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Architecture
//
// This package centralizes the presentation logic for HTTP responses.
// It ensures that every response (Success or Error) across the entire application
// follows a strict, predictable JSON envelope structure:
//
//	{ "status": "success", "data": ... }              single resources
//	{ "status": "success", "results": N, "data": … }  lists
//	{ "status": "fail"|"error", "message": ... }      failures
//
// "fail" marks client-side (4xx) failures, "error" marks server-side (5xx)
// ones. This consistency is crucial for frontend SPAs to parse data robustly.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taibuivan/trekora/internal/platform/apperr"
	"github.com/taibuivan/trekora/internal/platform/ctxkey"
	"github.com/taibuivan/trekora/pkg/pagination"
)

// debugMode controls whether error responses include internal detail.
// It is set once at startup from configuration and read-only afterwards.
var debugMode bool

// SetDebug enables verbose error responses (cause detail included).
// Must only be called during startup wiring, before traffic is served.
func SetDebug(enabled bool) { debugMode = enabled }

// SuccessEnvelope is the JSON envelope for successful single-resource responses.
type SuccessEnvelope struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

// ListEnvelope is the JSON envelope for list responses. Results is the number
// of items in this page; Meta describes the full collection.
type ListEnvelope struct {
	Status  string           `json:"status"`
	Results int              `json:"results"`
	Data    interface{}      `json:"data"`
	Meta    *pagination.Meta `json:"meta,omitempty"`
}

// ErrorEnvelope is the JSON envelope for error responses.
type ErrorEnvelope struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details,omitempty"`

	// Detail carries the underlying cause, only ever populated in debug mode.
	Detail string `json:"detail,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK response with data wrapped in the standard success envelope.
func OK(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusOK, SuccessEnvelope{Status: "success", Data: data})
}

// Created writes a 201 Created response with data wrapped in the standard success envelope.
func Created(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusCreated, SuccessEnvelope{Status: "success", Data: data})
}

// List writes a 200 OK response with a page of results and collection metadata.
func List(writer http.ResponseWriter, data interface{}, results int, metadata pagination.Meta) {
	JSON(writer, http.StatusOK, ListEnvelope{
		Status:  "success",
		Results: results,
		Data:    data,
		Meta:    &metadata,
	})
}

// NoContent writes a 204 No Content response.
func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

// Error converts any Go error into a standardized JSON API error response.
//
// # Funnel Behavior
//
// Operational [apperr.AppError] values propagate their message and status
// verbatim. Anything unrecognized is logged server-side in full and reduced
// to a generic 500 message — internals never leak to clients. In debug mode
// the underlying cause is additionally included in the payload.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		// Unexpected internal error: log full details but hide them from the client.
		logger := getLoggerFromContext(request)
		logger.ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", getRequestIDFromContext(request)),
		)
		appError = apperr.Internal(err)
	}

	// Always log 5xx errors as they indicate server-side issues.
	if appError.HTTPStatus >= 500 {
		logger := getLoggerFromContext(request)
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("code", appError.Code),
			slog.String("request_id", getRequestIDFromContext(request)),
			slog.Any("cause", appError.Cause),
		)
	}

	envelope := ErrorEnvelope{
		Status:  statusWord(appError.HTTPStatus),
		Message: appError.Message,
		Code:    appError.Code,
		Details: appError.Details,
	}

	if debugMode && appError.Cause != nil {
		envelope.Detail = appError.Cause.Error()
	}

	JSON(writer, appError.HTTPStatus, envelope)
}

// statusWord maps an HTTP status to the envelope's status field:
// "fail" for 4xx, "error" for everything else that reaches the funnel.
func statusWord(httpStatus int) string {
	if httpStatus >= 400 && httpStatus < 500 {
		return "fail"
	}
	return "error"
}

// getLoggerFromContext extracts the per-request logger.
func getLoggerFromContext(request *http.Request) *slog.Logger {
	if logger, ok := request.Context().Value(ctxkey.KeyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// getRequestIDFromContext extracts the X-Request-ID for log correlation.
func getRequestIDFromContext(request *http.Request) string {
	if id, ok := request.Context().Value(ctxkey.KeyRequestID).(string); ok {
		return id
	}
	return ""
}

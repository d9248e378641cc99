package logger

import (
	"context"

	"go.uber.org/zap"
)

// Field names shared by every component's structured logs
const (
	// Identity and context
	FieldRequestID = "request_id"
	FieldSession   = "session_id"
	FieldComponent = "component"

	// Requests and edits
	FieldMethod = "method"
	FieldPath   = "path"
	FieldQuery  = "query"
	FieldAction = "action"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError  = "error"
	FieldReason = "reason"

	// Counts
	FieldCount      = "count"
	FieldTokenCount = "token_count"

	// Search
	FieldKey        = "key"
	FieldSearchText = "search_text"
	FieldGeneration = "generation"
	FieldSource     = "source"
	FieldDataset    = "dataset"
	FieldMode       = "mode"
)

// Context keys for propagating logging context
type contextKey string

const (
	requestIDKey contextKey = "logger_request_id"
	sessionIDKey contextKey = "logger_session_id"
	componentKey contextKey = "logger_component"
)

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithSessionID adds an editing session ID to the context for logging
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields = append(fields, FieldRequestID, requestID)
	}
	if sessionID, ok := ctx.Value(sessionIDKey).(string); ok && sessionID != "" {
		fields = append(fields, FieldSession, sessionID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns a logger with fields extracted from context.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Orchestrator struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func New() *Orchestrator {
//	    return &Orchestrator{logger: logger.ComponentLogger("search.suggest")}
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

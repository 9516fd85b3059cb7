package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent names the subsystem that emitted the record.
	FieldComponent = "component"
	// FieldRequestID correlates the records of one daemon request.
	FieldRequestID = "request_id"
	FieldError     = "error"
	// FieldSourceCID is the content id of a fingerprinted input file.
	FieldSourceCID = "source_cid"
	// FieldReportCID is the content id of a canonical report.
	FieldReportCID = "report_cid"
	FieldUNF       = "unf"
	FieldColumn    = "column"
	FieldPath      = "path"
	FieldMethod    = "method"
)

type requestIDKey struct{}

// WithRequestID returns a context carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// WithContext returns a logger augmented with fields derived from ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if id, ok := RequestIDFromContext(ctx); ok {
		return logger.With(String(FieldRequestID, id))
	}
	return logger
}

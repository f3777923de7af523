package metrics

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// NewTracerProvider returns a tracer provider that writes every finished span
// to l. Failed spans are logged at warn level, the rest at debug level.
func NewTracerProvider(l *zap.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(&spanLogger{logger: l}))
}

type spanLogger struct {
	logger *zap.Logger
}

func (e *spanLogger) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		fields := []zap.Field{
			zap.String("span", s.Name()),
			zap.Stringer("traceID", s.SpanContext().TraceID()),
			zap.Stringer("spanID", s.SpanContext().SpanID()),
			zap.Duration("duration", s.EndTime().Sub(s.StartTime())),
		}
		for _, a := range s.Attributes() {
			fields = append(fields, zap.String(string(a.Key), a.Value.Emit()))
		}

		if status := s.Status(); status.Code == codes.Error {
			e.logger.Warn("span failed", append(fields, zap.String("status", status.Description))...)

			continue
		}
		e.logger.Debug("span finished", fields...)
	}

	return nil
}

func (e *spanLogger) Shutdown(context.Context) error { return nil }

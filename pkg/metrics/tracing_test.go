package metrics_test

import (
	"context"
	"postbrowser/pkg/metrics"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewTracerProvider_LogsFinishedSpans(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tp := metrics.NewTracerProvider(zap.New(core))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	tracer := tp.Tracer("test")
	_, ok := tracer.Start(context.Background(), "fetcher.users")
	ok.SetAttributes(attribute.String("generation", "g1"))
	ok.End()

	_, failed := tracer.Start(context.Background(), "fetcher.user")
	failed.SetStatus(codes.Error, "query failed")
	failed.End()

	require.NoError(t, tp.ForceFlush(context.Background()))

	finished := logs.FilterMessage("span finished").All()
	require.Len(t, finished, 1)
	require.Equal(t, zapcore.DebugLevel, finished[0].Level)
	require.Equal(t, "fetcher.users", finished[0].ContextMap()["span"])
	require.Equal(t, "g1", finished[0].ContextMap()["generation"])

	failures := logs.FilterMessage("span failed").All()
	require.Len(t, failures, 1)
	require.Equal(t, zapcore.WarnLevel, failures[0].Level)
	require.Equal(t, "query failed", failures[0].ContextMap()["status"])
}

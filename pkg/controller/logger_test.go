package controller_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"postbrowser/pkg/controller"
	"testing"

	"postbrowser/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetClientIP_XForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	if ip := controller.GetClientIP(req); ip != "1.2.3.4" {
		t.Fatalf("expected 1.2.3.4, got %q", ip)
	}
}

func TestGetClientIP_XRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "9.8.7.6")
	if ip := controller.GetClientIP(req); ip != "9.8.7.6" {
		t.Fatalf("expected 9.8.7.6, got %q", ip)
	}
}

func TestGetClientIP_RemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	if ip := controller.GetClientIP(req); ip != "10.0.0.1" {
		t.Fatalf("expected 10.0.0.1, got %q", ip)
	}
}

func TestGetClientIP_InvalidRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "not-an-addr"
	if ip := controller.GetClientIP(req); ip != "not-an-addr" {
		t.Fatalf("expected passthrough of invalid RemoteAddr, got %q", ip)
	}
}

func TestWithLogger_SetsRequestIDAndPassesStatus(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Echo-Request-Id", controller.RequestID(r.Context()))
		w.WriteHeader(http.StatusCreated)
	})

	// request provides the header
	req1 := httptest.NewRequest(http.MethodGet, "/", nil)
	req1.Header.Set(controller.RequestIDHeader, "abc-123")
	rec1 := httptest.NewRecorder()
	controller.WithLogger(next).ServeHTTP(rec1, req1)
	res1 := rec1.Result()
	require.Equal(t, http.StatusCreated, res1.StatusCode)
	require.Equal(t, "abc-123", res1.Header.Get("X-Echo-Request-Id"))
	require.Equal(t, "abc-123", res1.Header.Get(controller.RequestIDHeader))

	// without the header an id is generated
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	rec2 := httptest.NewRecorder()
	controller.WithLogger(next).ServeHTTP(rec2, req2)
	res2 := rec2.Result()
	require.NotEmpty(t, res2.Header.Get("X-Echo-Request-Id"))
	require.Equal(t, res2.Header.Get("X-Echo-Request-Id"), res2.Header.Get(controller.RequestIDHeader))
}

func TestWithLogger_AccessLogLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.WithLogger(context.Background(), zap.New(core))

	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusBadGateway} {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("body"))
		})
		req := httptest.NewRequest(http.MethodPost, "/select", nil).WithContext(ctx)
		controller.WithLogger(next).ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.FilterMessage("access log").All()
	require.Len(t, entries, 3)
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.Equal(t, zapcore.ErrorLevel, entries[2].Level)

	fields := entries[2].ContextMap()
	require.EqualValues(t, http.StatusBadGateway, fields["status_code"])
	require.EqualValues(t, 4, fields["bytes"])
	require.Equal(t, "POST", fields["method"])
	require.NotEmpty(t, fields["request_id"])
}

package serrors_test

import (
	"context"
	"errors"
	"fmt"
	"postbrowser/pkg/serrors"
	"testing"

	"github.com/stretchr/testify/require"
)

type customError struct{ msg string }

func (e customError) Error() string { return e.msg }

func TestKindsDistinct(t *testing.T) {
	kinds := []serrors.Kind{
		serrors.ErrNotFound,
		serrors.ErrBadRequest,
		serrors.ErrCanceled,
		serrors.ErrUpstream,
		serrors.ErrInternal,
		serrors.ErrTimeout,
	}
	seen := map[serrors.Kind]bool{}
	for i, k := range kinds {
		require.NotNil(t, k, "kind at index %d is nil", i)
		require.False(t, seen[k], "kind at index %d is duplicate: %v", i, k)
		seen[k] = true
	}
}

func TestErrorFormatting(t *testing.T) {
	base := errors.New("connection reset")

	e1 := serrors.With(serrors.ErrNotFound, "post %d not found", 42)
	require.Equal(t, "post 42 not found", e1.Error())

	e2 := serrors.Wrap(serrors.ErrUpstream, base, "fetching users")
	require.Equal(t, "fetching users: connection reset", e2.Error())

	e3 := serrors.KindOnly(serrors.ErrCanceled)
	require.Equal(t, "CANCELED", e3.Error())

	var nilErr *serrors.Error
	require.Equal(t, "<nil>", nilErr.Error())
}

func TestIsMatchesKindAndWrapped(t *testing.T) {
	e := serrors.Wrap(serrors.ErrCanceled, context.Canceled, "user posts")

	require.ErrorIs(t, e, serrors.ErrCanceled)
	require.ErrorIs(t, e, context.Canceled)
	require.NotErrorIs(t, e, serrors.ErrUpstream)
}

func TestAsMatchesKindAndWrapped(t *testing.T) {
	base := &customError{"root cause"}
	e := serrors.Wrap(serrors.ErrUpstream, base, "reading")

	var k serrors.Kind
	require.ErrorAs(t, e, &k)
	require.Equal(t, serrors.ErrUpstream, k)

	var ce *customError
	require.ErrorAs(t, e, &ce)
	require.Equal(t, base, ce)
}

func TestAccessors(t *testing.T) {
	base := errors.New("boom")
	e := serrors.Wrap(serrors.ErrBadRequest, base, "no id")
	require.Equal(t, serrors.ErrBadRequest, e.Kind())
	require.Equal(t, "no id", e.Message())
	require.Equal(t, base, e.Cause())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want serrors.Kind
	}{
		{name: "semantic", err: serrors.With(serrors.ErrNotFound, "x"), want: serrors.ErrNotFound},
		{name: "wrapped by fmt", err: fmt.Errorf("outer: %w", serrors.KindOnly(serrors.ErrUpstream)), want: serrors.ErrUpstream},
		{name: "bare sentinel", err: serrors.ErrBadRequest, want: serrors.ErrBadRequest},
		{name: "plain", err: errors.New("plain"), want: nil},
		{name: "nil", err: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, serrors.KindOf(tt.err))
		})
	}
}

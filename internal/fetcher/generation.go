package fetcher

import (
	"context"
	"errors"
	"postbrowser/pkg/domain"
	"postbrowser/pkg/logger"
	"postbrowser/pkg/serrors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Query names used in logs and metrics.
const (
	QueryUsers        = "users"
	QueryUser         = "user"
	QueryUserPosts    = "user_posts"
	QueryPostComments = "post_comments"
)

// Outcome labels recorded on the request counter.
const (
	outcomeOK       = "ok"
	outcomeCanceled = "canceled"
	outcomeHTTP     = "http_error"
	outcomeError    = "error"
)

// Generation is the cancellation handle shared by one batch of fetches. It is
// passed explicitly to every sub-fetch of a render.
type Generation struct {
	ID  uuid.UUID
	Seq uint64

	ctx     context.Context //nolint: containedctx
	cancel  context.CancelCauseFunc
	fetcher *Fetcher
}

// Context returns the generation's context. It carries a logger tagged with
// the generation id.
func (g *Generation) Context() context.Context { return g.ctx }

// Err returns an ErrCanceled error once the generation has been superseded or
// closed, nil while it is live.
func (g *Generation) Err() error {
	if g.ctx.Err() == nil {
		return nil
	}

	return serrors.Wrap(serrors.ErrCanceled, context.Cause(g.ctx), "generation %d canceled", g.Seq)
}

// Canceled reports whether the generation has been superseded or closed.
func (g *Generation) Canceled() bool { return g.ctx.Err() != nil }

// FetchAllUsers returns every user.
func (g *Generation) FetchAllUsers() ([]domain.User, error) {
	return fetch(g, QueryUsers, func(ctx context.Context) ([]domain.User, error) {
		return g.fetcher.client.Users(ctx)
	})
}

// FetchUser returns one user.
func (g *Generation) FetchUser(userID domain.UserID) (*domain.User, error) {
	if !userID.Valid() {
		return nil, serrors.With(serrors.ErrBadRequest, "user id is not set")
	}

	return fetch(g, QueryUser, func(ctx context.Context) (*domain.User, error) {
		return g.fetcher.client.User(ctx, userID)
	}, zap.Stringer("userID", userID))
}

// FetchUserPosts returns the posts of userID.
func (g *Generation) FetchUserPosts(userID domain.UserID) ([]domain.Post, error) {
	if !userID.Valid() {
		return nil, serrors.With(serrors.ErrBadRequest, "user id is not set")
	}

	return fetch(g, QueryUserPosts, func(ctx context.Context) ([]domain.Post, error) {
		return g.fetcher.client.UserPosts(ctx, userID)
	}, zap.Stringer("userID", userID))
}

// FetchPostComments returns the comments of postID.
func (g *Generation) FetchPostComments(postID domain.PostID) ([]domain.Comment, error) {
	if !postID.Valid() {
		return nil, serrors.With(serrors.ErrBadRequest, "post id is not set")
	}

	return fetch(g, QueryPostComments, func(ctx context.Context) ([]domain.Comment, error) {
		return g.fetcher.client.PostComments(ctx, postID)
	}, zap.Stringer("postID", postID))
}

// fetch runs one upstream query under g and normalises its failure.
func fetch[T any](g *Generation, query string, do func(ctx context.Context) (T, error), fields ...zap.Field) (T, error) {
	var zero T
	ctx := logger.WithFields(g.ctx, append(fields, zap.String("query", query))...)

	if err := g.Err(); err != nil {
		g.record(query, outcomeCanceled, 0)
		logger.Debug(ctx, "skipping query of canceled generation")

		return zero, err
	}

	ctx, span := g.fetcher.tracer.Start(ctx, "fetcher."+query,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("generation", g.ID.String())))
	defer span.End()

	start := time.Now()
	res, err := do(ctx)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
	}

	switch {
	case err == nil && g.ctx.Err() == nil:
		g.record(query, outcomeOK, elapsed)

		return res, nil
	case g.ctx.Err() != nil || errors.Is(err, context.Canceled):
		// a response that raced with cancellation is dropped as well
		g.record(query, outcomeCanceled, elapsed)
		logger.Debug(ctx, "query canceled")

		if gerr := g.Err(); gerr != nil {
			return zero, gerr
		}

		return zero, serrors.Wrap(serrors.ErrCanceled, err, "%s canceled", query)
	case errors.Is(err, serrors.ErrUpstream) || errors.Is(err, serrors.ErrNotFound):
		g.record(query, outcomeHTTP, elapsed)
		logger.Warn(ctx, "upstream query failed", zap.Error(err))

		return zero, err
	default:
		g.record(query, outcomeError, elapsed)
		logger.Error(ctx, "could not fetch from upstream", zap.Error(err))

		return zero, serrors.Wrap(serrors.ErrUpstream, err, "%s failed", query)
	}
}

func (g *Generation) record(query, outcome string, elapsed time.Duration) {
	// metrics are recorded on a context that outlives the generation
	ctx := context.WithoutCancel(g.ctx)
	attrs := metric.WithAttributes(attribute.String("query", query), attribute.String("outcome", outcome))
	g.fetcher.requests.Add(ctx, 1, attrs)
	if elapsed > 0 {
		g.fetcher.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}

// Package v1handler serves the JSON API under /v1: the page state, selections
// and comment toggles.
package v1handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"postbrowser/internal/app"
	"postbrowser/pkg/domain"
	"postbrowser/pkg/logger"
	"postbrowser/pkg/serrors"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// Page is the page controller as seen by the handlers.
type Page interface {
	Init(ctx context.Context) ([]domain.User, error)
	Select(ctx context.Context, rawUserID string) (app.Outcome, error)
	Click(postID domain.PostID) (int, error)
	State() app.Snapshot
}

type Deps struct {
	Page Page
}

type Handler struct {
	deps Deps
}

func New(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	StatusCode int
	Code       string
	Message    string
}

// Encode writes the response body.
func (r ErrorResponse) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Str(r.Code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(r.Message) })
	})
}

var defaultMessages = map[serrors.Kind]string{ //nolint: gochecknoglobals
	serrors.ErrNotFound:   "resource not found",
	serrors.ErrBadRequest: "bad request",
	serrors.ErrCanceled:   "superseded by a newer selection",
	serrors.ErrUpstream:   "upstream request failed",
	serrors.ErrTimeout:    "request timed out",
	serrors.ErrInternal:   "internal error",
}

var statusCodes = map[serrors.Kind]int{ //nolint: gochecknoglobals
	serrors.ErrNotFound:   http.StatusNotFound,
	serrors.ErrBadRequest: http.StatusBadRequest,
	serrors.ErrCanceled:   http.StatusConflict,
	serrors.ErrUpstream:   http.StatusBadGateway,
	serrors.ErrTimeout:    http.StatusGatewayTimeout,
	serrors.ErrInternal:   http.StatusInternalServerError,
}

// NewError maps err to a response. Semantic errors keep their kind and
// message; anything else becomes an internal error and is logged.
func (h Handler) NewError(ctx context.Context, err error) *ErrorResponse {
	kind := serrors.KindOf(err)
	if kind == nil {
		kind = serrors.ErrInternal
	}
	status, ok := statusCodes[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	msg := defaultMessages[kind]
	var se *serrors.Error
	if errors.As(err, &se) && se.Message() != "" {
		msg = se.Message()
	}
	if msg == "" {
		msg = defaultMessages[serrors.ErrInternal]
	}

	if status >= http.StatusInternalServerError {
		logger.Error(ctx, "request failed", zap.Error(err))
	} else {
		logger.Debug(ctx, "request rejected", zap.Error(err))
	}

	return &ErrorResponse{
		StatusCode: status,
		Code:       kind.Error(),
		Message:    msg,
	}
}

func (h Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	res := h.NewError(r.Context(), err)
	var e jx.Encoder
	res.Encode(&e)
	writeJSON(r.Context(), w, res.StatusCode, &e)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(e.Bytes()); err != nil {
		logger.Warn(ctx, "could not write response", zap.Error(err))
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "could not read body")
	}

	return body, nil
}

const maxBodyBytes = 1 << 16

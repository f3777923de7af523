package v1handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"postbrowser/internal/api/handler/v1handler"
	"postbrowser/internal/app"
	"postbrowser/pkg/domain"
	"strings"
	"testing"

	"postbrowser/pkg/logger"
	"postbrowser/pkg/serrors"

	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.TestEnvironment)
	m.Run()
}

type stubPage struct {
	inits    int
	selected []string
	outcome  app.Outcome
	err      error
	clicks   []domain.PostID
	snap     app.Snapshot
}

func (s *stubPage) Select(_ context.Context, raw string) (app.Outcome, error) {
	s.selected = append(s.selected, raw)

	return s.outcome, s.err
}

func (s *stubPage) Click(postID domain.PostID) (int, error) {
	s.clicks = append(s.clicks, postID)
	if s.err != nil {
		return 0, s.err
	}

	return 1, nil
}

func (s *stubPage) State() app.Snapshot { return s.snap }

func (s *stubPage) Init(context.Context) ([]domain.User, error) {
	s.inits++

	return nil, nil
}

func router(h *v1handler.Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v1/state", h.GetState).Methods(http.MethodGet)
	r.HandleFunc("/v1/selection", h.PostSelection).Methods(http.MethodPost)
	r.HandleFunc("/v1/posts/{postID:[0-9]+}/toggle", h.PostToggle).Methods(http.MethodPost)

	return r
}

func TestNewError_InternalOnPlainError(t *testing.T) {
	h := v1handler.New(v1handler.Deps{})

	res := h.NewError(context.Background(), errors.New("boom"))
	require.NotNil(t, res)
	require.Equal(t, 500, res.StatusCode)
	require.Equal(t, serrors.ErrInternal.Error(), res.Code)
	require.Equal(t, "internal error", res.Message)
}

func TestNewError_KindSentinelDirect_NotFound(t *testing.T) {
	h := v1handler.New(v1handler.Deps{})

	res := h.NewError(context.Background(), serrors.ErrNotFound)
	require.Equal(t, 404, res.StatusCode)
	require.Equal(t, serrors.ErrNotFound.Error(), res.Code)
	require.Equal(t, "resource not found", res.Message)
}

func TestNewError_SemanticWithMessage_BadRequest(t *testing.T) {
	h := v1handler.New(v1handler.Deps{})

	err := serrors.With(serrors.ErrBadRequest, "invalid user id %q", "x")
	res := h.NewError(context.Background(), err)
	require.Equal(t, 400, res.StatusCode)
	require.Equal(t, `invalid user id "x"`, res.Message)
}

func TestNewError_WrappedKinds(t *testing.T) {
	h := v1handler.New(v1handler.Deps{})

	cases := map[serrors.Kind]int{
		serrors.ErrCanceled: http.StatusConflict,
		serrors.ErrUpstream: http.StatusBadGateway,
		serrors.ErrTimeout:  http.StatusGatewayTimeout,
	}
	for kind, status := range cases {
		err := fmt.Errorf("could not render posts: %w", serrors.Wrap(kind, errors.New("cause"), ""))
		res := h.NewError(context.Background(), err)
		require.Equal(t, status, res.StatusCode, kind.Error())
		require.Equal(t, kind.Error(), res.Code)
		require.NotEmpty(t, res.Message)
	}
}

func TestGetState(t *testing.T) {
	id := uuid.New()
	page := &stubPage{snap: app.Snapshot{
		Generation:   id,
		Seq:          3,
		State:        app.StateRendered,
		SelectedUser: 1,
		Users:        10,
		Listeners:    1,
		Posts:        []app.PostView{{ID: 10, Title: "T", Label: "Show Comments"}},
	}}

	rec := httptest.NewRecorder()
	router(v1handler.New(v1handler.Deps{Page: page})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, 1, page.inits)
	require.JSONEq(t, `{
		"generation": "`+id.String()+`",
		"seq": 3,
		"state": "RENDERED",
		"selectedUserId": 1,
		"users": 10,
		"listeners": 1,
		"posts": [{"id": 10, "title": "T", "commentsShown": false, "label": "Show Comments"}]
	}`, rec.Body.String())
}

func TestGetState_Idle(t *testing.T) {
	page := &stubPage{snap: app.Snapshot{State: app.StateIdle}}

	var e jx.Encoder
	v1handler.EncodeSnapshot(&e, page.State())
	require.JSONEq(t,
		`{"generation":null,"seq":0,"state":"IDLE","selectedUserId":null,"users":0,"listeners":0,"posts":[]}`,
		string(e.Bytes()))
}

func TestDecodeSelection(t *testing.T) {
	cases := map[string]string{
		`{"userId": 4}`:                 "4",
		`{"userId": "7"}`:               "7",
		`{"userId": null}`:              "",
		`{}`:                            "",
		`{"other": [1,2], "userId": 2}`: "2",
	}
	for body, want := range cases {
		got, err := v1handler.DecodeSelection([]byte(body))
		require.NoError(t, err, body)
		require.Equal(t, want, got, body)
	}

	_, err := v1handler.DecodeSelection([]byte(`[`))
	require.ErrorIs(t, err, serrors.ErrBadRequest)
	_, err = v1handler.DecodeSelection([]byte(`{"userId": true}`))
	require.ErrorIs(t, err, serrors.ErrBadRequest)
}

func TestPostSelection(t *testing.T) {
	page := &stubPage{outcome: app.Outcome{
		Generation: uuid.New(),
		Seq:        1,
		State:      app.StateRendered,
		UserID:     2,
		Posts:      []domain.Post{{ID: 11}, {ID: 12}},
	}}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/selection", strings.NewReader(`{"userId": 2}`))
	router(v1handler.New(v1handler.Deps{Page: page})).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"2"}, page.selected)
	require.Contains(t, rec.Body.String(), `"postIds":[11,12]`)
	require.Contains(t, rec.Body.String(), `"state":"RENDERED"`)
}

func TestPostSelection_Superseded(t *testing.T) {
	page := &stubPage{
		outcome: app.Outcome{State: app.StateCancelled},
		err:     serrors.Wrap(serrors.ErrCanceled, errors.New("superseded"), "selection of user 2 superseded"),
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/selection", strings.NewReader(`{"userId": 2}`))
	router(v1handler.New(v1handler.Deps{Page: page})).ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.JSONEq(t, `{"code":"CANCELED","message":"selection of user 2 superseded"}`, rec.Body.String())
}

func TestPostSelection_BadBody(t *testing.T) {
	page := &stubPage{}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/selection", strings.NewReader(`not json`))
	router(v1handler.New(v1handler.Deps{Page: page})).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, page.selected)
}

func TestPostToggle(t *testing.T) {
	page := &stubPage{snap: app.Snapshot{
		Posts: []app.PostView{{ID: 10, CommentsShown: true, Label: "Hide Comments"}},
	}}

	rec := httptest.NewRecorder()
	router(v1handler.New(v1handler.Deps{Page: page})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/posts/10/toggle", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []domain.PostID{10}, page.clicks)
	require.JSONEq(t, `{"postId":10,"listeners":1,"commentsShown":true,"label":"Hide Comments"}`, rec.Body.String())
}

func TestPostToggle_UnknownPost(t *testing.T) {
	page := &stubPage{err: serrors.With(serrors.ErrNotFound, "no post 99 on the page")}

	rec := httptest.NewRecorder()
	router(v1handler.New(v1handler.Deps{Page: page})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/posts/99/toggle", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router(v1handler.New(v1handler.Deps{Page: page})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/posts/0/toggle", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

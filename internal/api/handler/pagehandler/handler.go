// Package pagehandler serves the HTML page and the form endpoints its select
// menu and toggle buttons post to.
package pagehandler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"postbrowser/internal/app"
	"postbrowser/pkg/domain"
	"postbrowser/pkg/logger"
	"postbrowser/pkg/serrors"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Paths the page's forms post to.
const (
	IndexPath  = "/"
	SelectPath = "/select"
)

// TogglePath returns the form action of the toggle button of postID.
func TogglePath(postID domain.PostID) string {
	return "/posts/" + postID.String() + "/toggle"
}

// Page is the page controller as seen by the handlers.
type Page interface {
	Init(ctx context.Context) ([]domain.User, error)
	Select(ctx context.Context, rawUserID string) (app.Outcome, error)
	Click(postID domain.PostID) (int, error)
	Render(w io.Writer) error
}

type Handler struct {
	page Page
}

func New(page Page) *Handler {
	return &Handler{page: page}
}

// Index renders the page. The employee list is loaded first if no earlier
// attempt succeeded; on failure the page is served with an empty menu.
func (h Handler) Index(w http.ResponseWriter, r *http.Request) {
	if _, err := h.page.Init(r.Context()); err != nil {
		logger.Warn(r.Context(), "could not load employees", zap.Error(err))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.page.Render(w); err != nil {
		logger.Error(r.Context(), "could not render page", zap.Error(err))
	}
}

// Select runs the selection posted by the select menu and redirects back to
// the page. Failed or superseded selections still redirect: the page shows
// whatever content is current.
func (h Handler) Select(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)

		return
	}

	out, err := h.page.Select(r.Context(), r.PostForm.Get("userId"))
	switch {
	case errors.Is(err, serrors.ErrBadRequest):
		http.Error(w, "invalid user id", http.StatusBadRequest)

		return
	case err != nil:
		logger.Debug(r.Context(), "selection did not render", zap.String("state", string(out.State)), zap.Error(err))
	}

	http.Redirect(w, r, IndexPath, http.StatusSeeOther)
}

// Toggle dispatches a click on the toggle button of the post in the path and
// redirects back to the page.
func (h Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	postID, err := domain.ParsePostID(mux.Vars(r)["postID"])
	if err != nil || !postID.Valid() {
		http.Error(w, "invalid post id", http.StatusBadRequest)

		return
	}

	if _, err := h.page.Click(postID); err != nil {
		if errors.Is(err, serrors.ErrNotFound) {
			http.Error(w, "no such post on the page", http.StatusNotFound)

			return
		}
		logger.Error(r.Context(), "could not toggle comments", zap.Error(err))
	}

	http.Redirect(w, r, IndexPath, http.StatusSeeOther)
}

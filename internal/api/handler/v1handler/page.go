package v1handler

import (
	"net/http"
	"postbrowser/internal/app"
	"postbrowser/pkg/domain"
	"postbrowser/pkg/logger"
	"postbrowser/pkg/serrors"
	"strconv"

	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// EncodeSnapshot writes s as the /v1/state body.
func EncodeSnapshot(e *jx.Encoder, s app.Snapshot) {
	e.Obj(func(e *jx.Encoder) {
		encodeGeneration(e, s.Generation, s.Seq, s.State)
		e.Field("selectedUserId", func(e *jx.Encoder) {
			if s.SelectedUser.Valid() {
				e.Int(int(s.SelectedUser))
			} else {
				e.Null()
			}
		})
		e.Field("users", func(e *jx.Encoder) { e.Int(s.Users) })
		e.Field("listeners", func(e *jx.Encoder) { e.Int(s.Listeners) })
		e.Field("posts", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, p := range s.Posts {
					e.Obj(func(e *jx.Encoder) {
						e.Field("id", func(e *jx.Encoder) { e.Int(int(p.ID)) })
						e.Field("title", func(e *jx.Encoder) { e.Str(p.Title) })
						e.Field("commentsShown", func(e *jx.Encoder) { e.Bool(p.CommentsShown) })
						e.Field("label", func(e *jx.Encoder) { e.Str(p.Label) })
					})
				}
			})
		})
	})
}

// EncodeOutcome writes o as the /v1/selection body.
func EncodeOutcome(e *jx.Encoder, o app.Outcome) {
	e.Obj(func(e *jx.Encoder) {
		encodeGeneration(e, o.Generation, o.Seq, o.State)
		e.Field("userId", func(e *jx.Encoder) { e.Int(int(o.UserID)) })
		e.Field("postIds", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, p := range o.Posts {
					e.Int(int(p.ID))
				}
			})
		})
		e.Field("buttonsDetached", func(e *jx.Encoder) { e.Int(len(o.Refresh.Detached)) })
		e.Field("buttonsAttached", func(e *jx.Encoder) { e.Int(len(o.Refresh.Attached)) })
	})
}

func encodeGeneration(e *jx.Encoder, id uuid.UUID, seq uint64, state app.State) {
	e.Field("generation", func(e *jx.Encoder) {
		if id == uuid.Nil {
			e.Null()
		} else {
			e.Str(id.String())
		}
	})
	e.Field("seq", func(e *jx.Encoder) { e.Int64(int64(seq)) }) //nolint: gosec
	e.Field("state", func(e *jx.Encoder) { e.Str(string(state)) })
}

// DecodeSelection reads a {"userId": n} body. A missing or null userId
// yields "", which selects the default user.
func DecodeSelection(body []byte) (string, error) {
	var raw string
	d := jx.DecodeBytes(body)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "userId" {
			return d.Skip()
		}
		switch d.Next() {
		case jx.Null:
			return d.Null()
		case jx.String:
			s, err := d.Str()
			raw = s

			return err //nolint: wrapcheck
		default:
			n, err := d.Int()
			raw = strconv.Itoa(n)

			return err //nolint: wrapcheck
		}
	})
	if err != nil {
		return "", serrors.Wrap(serrors.ErrBadRequest, err, "invalid selection payload")
	}

	return raw, nil
}

// GetState returns the page snapshot, loading the employee list first if no
// earlier attempt succeeded.
func (h Handler) GetState(w http.ResponseWriter, r *http.Request) {
	if _, err := h.deps.Page.Init(r.Context()); err != nil {
		logger.Warn(r.Context(), "could not load employees", zap.Error(err))
	}

	var e jx.Encoder
	EncodeSnapshot(&e, h.deps.Page.State())
	writeJSON(r.Context(), w, http.StatusOK, &e)
}

// PostSelection runs a selection and returns its outcome.
func (h Handler) PostSelection(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)

		return
	}
	raw, err := DecodeSelection(body)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	out, err := h.deps.Page.Select(r.Context(), raw)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	var e jx.Encoder
	EncodeOutcome(&e, out)
	writeJSON(r.Context(), w, http.StatusOK, &e)
}

// PostToggle dispatches a click on the toggle button of the post in the path.
func (h Handler) PostToggle(w http.ResponseWriter, r *http.Request) {
	postID, err := domain.ParsePostID(mux.Vars(r)["postID"])
	if err != nil || !postID.Valid() {
		h.writeError(w, r, serrors.With(serrors.ErrBadRequest, "invalid post id"))

		return
	}

	n, err := h.deps.Page.Click(postID)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	var post *app.PostView
	snap := h.deps.Page.State()
	for i := range snap.Posts {
		if snap.Posts[i].ID == postID {
			post = &snap.Posts[i]

			break
		}
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("postId", func(e *jx.Encoder) { e.Int(int(postID)) })
		e.Field("listeners", func(e *jx.Encoder) { e.Int(n) })
		if post != nil {
			e.Field("commentsShown", func(e *jx.Encoder) { e.Bool(post.CommentsShown) })
			e.Field("label", func(e *jx.Encoder) { e.Str(post.Label) })
		}
	})
	writeJSON(r.Context(), w, http.StatusOK, &e)
}

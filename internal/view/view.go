// Package view turns fetched users, posts and comments into display nodes and
// swaps them into a dom.Document.
//
// Construction (RenderPosts, RenderComments, CreateSelectOptions) only builds
// detached nodes and may run without holding the page lock. Everything that
// touches the document (Display*, Toggle*, listener management) must be called
// with the page lock held.
package view

import (
	"postbrowser/internal/dom"
	"postbrowser/pkg/domain"
	"sync"
	"time"

	"golang.org/x/net/html"
)

// Texts and class names of the rendered page.
const (
	ShowCommentsLabel = "Show Comments"
	HideCommentsLabel = "Hide Comments"
	DefaultText       = "Select an Employee to display their posts."
	DefaultTextClass  = "default-text"
	CommentsClass     = "comments"
	PostIDData        = "post-id"
)

// Source is what the renderer needs from a fetch generation.
type Source interface {
	FetchUser(userID domain.UserID) (*domain.User, error)
	FetchPostComments(postID domain.PostID) ([]domain.Comment, error)
}

// Options configure a Renderer.
type Options struct {
	// TransientNodeDelay is how long the empty helper article appended after a
	// non-empty render stays in the content region. Non-positive disables it.
	TransientNodeDelay time.Duration
	// ConcurrentFetch fetches every post's author and comments concurrently.
	// Cards keep the order of the input posts either way.
	ConcurrentFetch bool
	// ToggleAction, when set, turns toggle buttons into submit buttons of the
	// page's toggle form posting to the returned URL.
	ToggleAction func(postID domain.PostID) string
	// Guard is locked by the timer removing the transient helper node. It
	// should be the lock serialising access to the document.
	Guard sync.Locker
}

// Renderer renders into one document.
type Renderer struct {
	doc  *dom.Document
	opts Options

	// buttonHandles tracks the click listener attached to each toggle button.
	buttonHandles map[*html.Node]dom.Handle
	transient     *time.Timer
}

// New returns a Renderer drawing into doc.
func New(doc *dom.Document, opts Options) *Renderer {
	return &Renderer{
		doc:           doc,
		opts:          opts,
		buttonHandles: map[*html.Node]dom.Handle{},
	}
}

// Document returns the document the renderer draws into.
func (r *Renderer) Document() *dom.Document { return r.doc }

// Close stops a pending transient node removal.
func (r *Renderer) Close() {
	if r.transient != nil {
		r.transient.Stop()
	}
}

// CreateSelectOptions returns one option per user, in input order, with the
// user id as value and the user name as text. A nil slice yields nil.
func CreateSelectOptions(users []domain.User) []*html.Node {
	if users == nil {
		return nil
	}
	opts := make([]*html.Node, 0, len(users))
	for _, u := range users {
		opt := dom.CreateElemWithText("option", u.Name, "")
		dom.SetAttr(opt, "value", u.ID.String())
		opts = append(opts, opt)
	}

	return opts
}

// PopulateSelectMenu appends an option per user to the select menu and
// returns the menu. A nil slice yields nil and leaves the menu untouched.
func (r *Renderer) PopulateSelectMenu(users []domain.User) *html.Node {
	if users == nil {
		return nil
	}
	for _, opt := range CreateSelectOptions(users) {
		dom.Append(r.doc.SelectMenu, opt)
	}

	return r.doc.SelectMenu
}

// MarkSelected flags the option of userID as selected and clears the flag
// elsewhere. It reports whether such an option exists.
func (r *Renderer) MarkSelected(userID domain.UserID) bool {
	found := false
	for _, opt := range dom.QuerySelectorAll(r.doc.SelectMenu, dom.ByTag("option")) {
		if dom.Attr(opt, "value") == userID.String() {
			dom.SetAttr(opt, "selected", "")
			found = true
		} else {
			dom.RemoveAttr(opt, "selected")
		}
	}

	return found
}

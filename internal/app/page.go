// Package app holds the page controller: the one document served to every
// client, the generation state machine driving selections, and click dispatch.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"postbrowser/internal/dom"
	"postbrowser/internal/fetcher"
	"postbrowser/internal/view"
	"postbrowser/pkg/domain"
	"postbrowser/pkg/logger"
	"postbrowser/pkg/serrors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// State is the state of the latest generation.
type State string

const (
	StateIdle      State = "IDLE"
	StateFetching  State = "FETCHING"
	StateRendered  State = "RENDERED"
	StateCancelled State = "CANCELLED"
	StateFailed    State = "FAILED"
)

// DefaultUserID is selected when the select menu submits an empty value.
// Explicit ids must be positive.
const DefaultUserID domain.UserID = 1

// Fetcher starts fetch generations.
type Fetcher interface {
	Begin(ctx context.Context) *fetcher.Generation
	Detached(ctx context.Context) *fetcher.Generation
	IsCurrent(g *fetcher.Generation) bool
	Close()
}

// Options configure a Page.
type Options struct {
	// Title is the page title.
	Title string
	// SelectAction is where the select menu form posts to.
	SelectAction string
	// ToggleAction maps a post to the URL its toggle button posts to. Nil
	// renders plain buttons.
	ToggleAction func(postID domain.PostID) string

	TransientNodeDelay time.Duration
	ConcurrentFetch    bool

	// Registerer receives the generation counter. Nil leaves it unregistered.
	Registerer prometheus.Registerer
}

// Outcome is the result of one selection.
type Outcome struct {
	Generation uuid.UUID
	Seq        uint64
	State      State
	UserID     domain.UserID
	Posts      []domain.Post
	// Refresh is only set when State is StateRendered.
	Refresh view.Refresh
}

// Page is the document plus everything that mutates it. All document access
// goes through mu.
type Page struct {
	fetcher     Fetcher
	generations *prometheus.CounterVec

	mu       sync.Mutex
	doc      *dom.Document
	renderer *view.Renderer

	initialized bool
	users       []domain.User
	state       State
	generation  uuid.UUID
	seq         uint64
	selected    domain.UserID
	posts       []domain.Post
}

// New returns a page with an empty select menu and content region.
func New(f Fetcher, opts Options) *Page {
	p := &Page{
		fetcher: f,
		generations: promauto.With(opts.Registerer).NewCounterVec(prometheus.CounterOpts{
			Namespace: "postbrowser",
			Name:      "generations_total",
			Help:      "Number of fetch generations by the state they reached.",
		}, []string{"state"}),
		doc: dom.NewDocument(dom.DocumentOptions{
			Title:        opts.Title,
			SelectAction: opts.SelectAction,
		}),
		state: StateIdle,
	}
	p.renderer = view.New(p.doc, view.Options{
		TransientNodeDelay: opts.TransientNodeDelay,
		ConcurrentFetch:    opts.ConcurrentFetch,
		ToggleAction:       opts.ToggleAction,
		Guard:              &p.mu,
	})

	return p
}

// Init fetches all users and fills the select menu. Once it has succeeded
// later calls return the users loaded the first time. When the users cannot be
// fetched the menu stays empty, the error is returned and the next call tries
// again. Init never cancels a selection in flight.
func (p *Page) Init(ctx context.Context) ([]domain.User, error) {
	p.mu.Lock()
	if p.initialized {
		users := p.users
		p.mu.Unlock()

		return users, nil
	}
	p.mu.Unlock()

	gen := p.fetcher.Detached(ctx)
	users, err := gen.FetchAllUsers()
	if err != nil {
		return nil, fmt.Errorf("could not fetch users: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		p.users = users
		p.renderer.PopulateSelectMenu(users)
		p.initialized = true
	}
	logger.Info(ctx, "select menu populated", zap.Int("users", len(p.users)))

	return p.users, nil
}

// Select handles a change of the select menu to rawUserID. An empty value
// selects DefaultUserID. The previous generation is cancelled, the user's
// posts with their authors and comments are fetched, and the result replaces
// the content region unless a newer selection started meanwhile. On failure
// the previous content stays in place.
func (p *Page) Select(ctx context.Context, rawUserID string) (Outcome, error) {
	raw := strings.TrimSpace(rawUserID)
	userID := DefaultUserID
	if raw != "" {
		id, err := domain.ParseUserID(raw)
		if err != nil || !id.Valid() {
			return Outcome{}, serrors.With(serrors.ErrBadRequest, "invalid user id %q", rawUserID)
		}
		userID = id
	}

	gen := p.fetcher.Begin(ctx)
	out := Outcome{Generation: gen.ID, Seq: gen.Seq, UserID: userID}
	ctx = logger.WithFields(ctx, zap.Stringer("generation", gen.ID), zap.Uint64("seq", gen.Seq))
	if !p.enter(gen, StateFetching) {
		err := gen.Err()
		if err == nil {
			err = serrors.With(serrors.ErrCanceled, "generation %d superseded", gen.Seq)
		}

		return p.abort(ctx, gen, out, err)
	}

	posts, err := gen.FetchUserPosts(userID)
	if err != nil {
		return p.abort(ctx, gen, out, err)
	}
	out.Posts = posts

	// cards are built off-lock; only the swap below touches the document
	content, err := p.renderer.RenderPosts(gen, posts)
	if err != nil {
		return p.abort(ctx, gen, out, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen.Canceled() || !p.fetcher.IsCurrent(gen) {
		out.State = StateCancelled
		p.generations.WithLabelValues(string(StateCancelled)).Inc()
		logger.Debug(ctx, "discarding render of superseded generation")

		return out, serrors.Wrap(serrors.ErrCanceled, gen.Err(), "selection of user %d superseded", userID)
	}

	out.Refresh = p.renderer.RefreshPosts(content, len(posts) > 0)
	p.renderer.MarkSelected(userID)
	p.selected = userID
	p.posts = posts
	p.setState(gen, StateRendered)
	out.State = StateRendered
	logger.Info(ctx, "posts rendered", zap.Int("user", int(userID)), zap.Int("posts", len(posts)))

	return out, nil
}

// abort finishes gen as CANCELLED or FAILED. Only the current generation
// updates the page state.
func (p *Page) abort(ctx context.Context, gen *fetcher.Generation, out Outcome, err error) (Outcome, error) {
	out.State = StateFailed
	if errors.Is(err, serrors.ErrCanceled) || gen.Canceled() {
		out.State = StateCancelled
	}

	p.mu.Lock()
	if p.fetcher.IsCurrent(gen) {
		p.setState(gen, out.State)
	} else {
		p.generations.WithLabelValues(string(out.State)).Inc()
	}
	p.mu.Unlock()

	if out.State == StateCancelled {
		logger.Debug(ctx, "selection cancelled", zap.Error(err))
	} else {
		logger.Warn(ctx, "selection failed, keeping previous content", zap.Error(err))
	}

	return out, fmt.Errorf("could not render posts of user %d: %w", out.UserID, err)
}

// enter moves the page to state on behalf of gen. A generation superseded
// before it got here leaves the page alone.
func (p *Page) enter(gen *fetcher.Generation, state State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.fetcher.IsCurrent(gen) {
		return false
	}
	p.setState(gen, state)

	return true
}

// setState must be called with mu held.
func (p *Page) setState(gen *fetcher.Generation, state State) {
	p.state = state
	p.generation = gen.ID
	p.seq = gen.Seq
	p.generations.WithLabelValues(string(state)).Inc()
}

// Click dispatches a click on the toggle button of postID and returns the
// number of listeners that ran.
func (p *Page) Click(postID domain.PostID) (int, error) {
	if !postID.Valid() {
		return 0, serrors.With(serrors.ErrBadRequest, "invalid post id %d", postID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.renderer.ClickButton(postID)
	if n < 0 {
		return 0, serrors.With(serrors.ErrNotFound, "no post %d on the page", postID)
	}

	return n, nil
}

// Render writes the page as HTML.
func (p *Page) Render(w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.doc.Render(w) //nolint: wrapcheck
}

// HTML returns the page as an HTML string.
func (p *Page) HTML() (string, error) {
	var sb strings.Builder
	if err := p.Render(&sb); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// PostView is the display state of one rendered post.
type PostView struct {
	ID            domain.PostID
	Title         string
	CommentsShown bool
	Label         string
}

// Snapshot is a consistent view of the page.
type Snapshot struct {
	Generation   uuid.UUID
	Seq          uint64
	State        State
	SelectedUser domain.UserID
	Users        int
	Posts        []PostView
	Listeners    int
}

// State returns a snapshot of the page.
func (p *Page) State() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		Generation:   p.generation,
		Seq:          p.seq,
		State:        p.state,
		SelectedUser: p.selected,
		Users:        len(p.users),
		Posts:        make([]PostView, 0, len(p.posts)),
		Listeners:    p.doc.Listeners.Len(),
	}
	for _, post := range p.posts {
		shown, label, ok := p.renderer.CommentsState(post.ID)
		if !ok {
			continue
		}
		s.Posts = append(s.Posts, PostView{ID: post.ID, Title: post.Title, CommentsShown: shown, Label: label})
	}

	return s
}

// Close cancels the current generation and stops pending timers.
func (p *Page) Close() {
	p.fetcher.Close()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.renderer.Close()
}

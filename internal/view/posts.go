package view

import (
	"context"
	"fmt"
	"postbrowser/internal/dom"
	"postbrowser/pkg/domain"

	"github.com/go-faster/errors"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// RenderComments returns a fragment with one article per comment holding its
// name, body and "From: email". A nil slice yields nil.
func RenderComments(comments []domain.Comment) *html.Node {
	if comments == nil {
		return nil
	}
	frag := dom.NewFragment()
	for _, c := range comments {
		article := dom.NewElement("article")
		dom.Append(article, dom.CreateElemWithText("h3", c.Name, ""))
		dom.Append(article, dom.CreateElemWithText("p", c.Body, ""))
		dom.Append(article, dom.CreateElemWithText("p", "From: "+c.Email, ""))
		dom.Append(frag, article)
	}

	return frag
}

// DisplayComments fetches the comments of postID and wraps them in a hidden
// section keyed by the post id.
func (r *Renderer) DisplayComments(src Source, postID domain.PostID) (*html.Node, error) {
	comments, err := src.FetchPostComments(postID)
	if err != nil {
		return nil, errors.Wrapf(err, "comments of post %d", postID)
	}

	return commentSection(postID, comments), nil
}

func commentSection(postID domain.PostID, comments []domain.Comment) *html.Node {
	section := dom.NewElement("section")
	dom.SetDataset(section, PostIDData, postID.String())
	dom.AddClass(section, CommentsClass)
	dom.AddClass(section, dom.HideClass)
	if frag := RenderComments(comments); frag != nil {
		dom.Append(section, frag)
	}

	return section
}

// RenderPosts builds the content for posts. An empty list yields the
// placeholder paragraph. Otherwise every post's author and comments are
// fetched and a card is built per post; if any of those fetches fails nothing
// is returned but the error.
func (r *Renderer) RenderPosts(src Source, posts []domain.Post) (*html.Node, error) {
	if len(posts) == 0 {
		return dom.CreateElemWithText("p", DefaultText, DefaultTextClass), nil
	}

	var (
		parts []cardParts
		err   error
	)
	if r.opts.ConcurrentFetch {
		parts, err = r.fetchConcurrently(src, posts)
	} else {
		parts, err = r.fetchSequentially(src, posts)
	}
	if err != nil {
		return nil, err
	}

	frag := dom.NewFragment()
	for i, post := range posts {
		dom.Append(frag, r.card(post, parts[i]))
	}

	return frag, nil
}

type cardParts struct {
	author   *domain.User
	comments *html.Node
}

// fetchCardParts fetches the author and then the comments of post. Once ctx
// is done no further fetch is started.
func (r *Renderer) fetchCardParts(ctx context.Context, src Source, post domain.Post) (cardParts, error) {
	if err := ctx.Err(); err != nil {
		return cardParts{}, err //nolint: wrapcheck
	}
	author, err := src.FetchUser(post.UserID)
	if err != nil {
		return cardParts{}, errors.Wrapf(err, "author of post %d", post.ID)
	}
	if err := ctx.Err(); err != nil {
		return cardParts{}, err //nolint: wrapcheck
	}
	section, err := r.DisplayComments(src, post.ID)
	if err != nil {
		return cardParts{}, err
	}

	return cardParts{author: author, comments: section}, nil
}

func (r *Renderer) fetchSequentially(src Source, posts []domain.Post) ([]cardParts, error) {
	parts := make([]cardParts, 0, len(posts))
	for _, post := range posts {
		p, err := r.fetchCardParts(context.Background(), src, post)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}

	return parts, nil
}

func (r *Renderer) fetchConcurrently(src Source, posts []domain.Post) ([]cardParts, error) {
	parts := make([]cardParts, len(posts))
	// the first failure cancels ctx so the other posts stop fetching
	g, ctx := errgroup.WithContext(context.Background())
	for i, post := range posts {
		i, post := i, post
		g.Go(func() error {
			p, err := r.fetchCardParts(ctx, src, post)
			if err != nil {
				return err
			}
			parts[i] = p

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint: wrapcheck
	}

	return parts, nil
}

func (r *Renderer) card(post domain.Post, parts cardParts) *html.Node {
	article := dom.NewElement("article")
	dom.Append(article, dom.CreateElemWithText("h2", post.Title, ""))
	dom.Append(article, dom.CreateElemWithText("p", post.Body, ""))
	dom.Append(article, dom.CreateElemWithText("p", fmt.Sprintf("Post ID: %d", post.ID), ""))
	dom.Append(article, dom.CreateElemWithText("p",
		fmt.Sprintf("Author: %s with %s", parts.author.Name, parts.author.Company.Name), ""))
	dom.Append(article, dom.CreateElemWithText("p", parts.author.Company.CatchPhrase, ""))

	button := dom.CreateElemWithText("button", ShowCommentsLabel, "")
	dom.SetDataset(button, PostIDData, post.ID.String())
	if r.opts.ToggleAction != nil {
		dom.SetAttr(button, "type", "submit")
		dom.SetAttr(button, "form", dom.ToggleFormID)
		dom.SetAttr(button, "formaction", r.opts.ToggleAction(post.ID))
	}
	dom.Append(article, button)
	dom.Append(article, parts.comments)

	return article
}

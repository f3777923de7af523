// Package placeholder defines the read-only queries the browser issues against
// a JSONPlaceholder-compatible REST API.
package placeholder

import (
	"context"
	"postbrowser/pkg/domain"
)

// DefaultBaseURL is the public JSONPlaceholder host.
const DefaultBaseURL = "https://jsonplaceholder.typicode.com"

// Client issues the four GET queries. Implementations return the context error
// (possibly wrapped) when ctx is canceled, serrors.ErrNotFound for 404 and
// serrors.ErrUpstream for any other non-success status or unusable payload.
// A single attempt is made per call.
//
//go:generate mockgen -package mockplaceholder -source=interface.go -destination=mock/mockplaceholder.go *
type Client interface {
	// Users returns every user (GET /users).
	Users(ctx context.Context) ([]domain.User, error)
	// User returns one user (GET /users/{id}).
	User(ctx context.Context, userID domain.UserID) (*domain.User, error)
	// UserPosts returns the posts written by userID (GET /posts?userId={id}).
	UserPosts(ctx context.Context, userID domain.UserID) ([]domain.Post, error)
	// PostComments returns the comments of postID (GET /comments?postId={id}).
	PostComments(ctx context.Context, postID domain.PostID) ([]domain.Comment, error)
}

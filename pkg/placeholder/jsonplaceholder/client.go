// Package jsonplaceholder provides a placeholder.Client backed by the
// JSONPlaceholder REST API.
package jsonplaceholder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"postbrowser/pkg/domain"
	"postbrowser/pkg/placeholder"
	"postbrowser/pkg/serrors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Client talks to the JSONPlaceholder API. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	validate   *validator.Validate
}

// New constructs a Client. An empty baseURL selects placeholder.DefaultBaseURL.
func New(httpClient *http.Client, baseURL string) (*Client, error) {
	if baseURL == "" {
		baseURL = placeholder.DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("could not parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    u,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Users fetches every user.
func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.get(ctx, "/users", nil, &users); err != nil {
		return nil, err
	}
	if err := validateEach(c.validate, users); err != nil {
		return nil, err
	}

	return users, nil
}

// User fetches a single user by id.
func (c *Client) User(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	var user domain.User
	if err := c.get(ctx, "/users/"+userID.String(), nil, &user); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(user); err != nil {
		return nil, serrors.Wrap(serrors.ErrUpstream, err, "invalid user %d", userID)
	}

	return &user, nil
}

// UserPosts fetches the posts written by userID.
func (c *Client) UserPosts(ctx context.Context, userID domain.UserID) ([]domain.Post, error) {
	var posts []domain.Post
	if err := c.get(ctx, "/posts", url.Values{"userId": {userID.String()}}, &posts); err != nil {
		return nil, err
	}
	if err := validateEach(c.validate, posts); err != nil {
		return nil, err
	}

	return posts, nil
}

// PostComments fetches the comments of postID.
func (c *Client) PostComments(ctx context.Context, postID domain.PostID) ([]domain.Comment, error) {
	var comments []domain.Comment
	if err := c.get(ctx, "/comments", url.Values{"postId": {postID.String()}}, &comments); err != nil {
		return nil, err
	}

	return comments, nil
}

func validateEach[T any](v *validator.Validate, items []T) error {
	for i := range items {
		if err := v.Struct(items[i]); err != nil {
			return serrors.Wrap(serrors.ErrUpstream, err, "invalid payload item %d", i)
		}
	}

	return nil
}

// get performs a GET against path and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return serrors.With(serrors.ErrNotFound, "%s not found", path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return serrors.With(serrors.ErrUpstream,
			"GET %s failed with status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	if err := json.Unmarshal(b, out); err != nil {
		return serrors.Wrap(serrors.ErrUpstream, err, "could not decode %s response", path)
	}

	return nil
}

// Ensure Client conforms to the placeholder.Client interface at compile time.
var _ placeholder.Client = (*Client)(nil)

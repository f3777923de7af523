package domain

import "strconv"

// PostID identifies a post. The zero value means "no post".
type PostID int

// Valid reports whether id can be sent upstream.
func (id PostID) Valid() bool { return id > 0 }

func (id PostID) String() string { return strconv.Itoa(int(id)) }

// ParsePostID parses a decimal identifier. Empty input yields the zero PostID.
func ParsePostID(s string) (PostID, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err //nolint: wrapcheck
	}

	return PostID(n), nil
}

// Post is a single entry of /posts?userId=.
type Post struct {
	ID     PostID `json:"id"     validate:"gt=0"`
	UserID UserID `json:"userId" validate:"gt=0"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Comment is a single entry of /comments?postId=.
type Comment struct {
	ID     int    `json:"id"`
	PostID PostID `json:"postId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Body   string `json:"body"`
}

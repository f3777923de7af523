package domain

import "strconv"

// UserID identifies a user. The zero value means "no user".
type UserID int

// Valid reports whether id can be sent upstream.
func (id UserID) Valid() bool { return id > 0 }

func (id UserID) String() string { return strconv.Itoa(int(id)) }

// ParseUserID parses a decimal identifier. Empty input yields the zero UserID.
func ParseUserID(s string) (UserID, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err //nolint: wrapcheck
	}

	return UserID(n), nil
}

// Company is the employer block embedded in a User.
type Company struct {
	Name        string `json:"name"        validate:"required"`
	CatchPhrase string `json:"catchPhrase"`
	BS          string `json:"bs"`
}

// User is an employee as returned by /users.
type User struct {
	ID       UserID  `json:"id"       validate:"gt=0"`
	Name     string  `json:"name"     validate:"required"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Company  Company `json:"company"`
}

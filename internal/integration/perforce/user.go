package perforce

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Form labels of "p4 user -o".
const (
	labelEmail    = "Email:"
	labelFullName = "FullName:"
	labelJobView  = "JobView:"
	labelReviews  = "Reviews:"
	labelPassword = "Password:"
)

// User is a Perforce user specification.
type User struct {
	Name     string
	Email    string
	Update   time.Time
	Access   time.Time
	FullName string
	JobView  string
	// Password is the opaque value shown by the server, usually "******".
	Password string
	Reviews  []string
}

// ParseUser parses the output of "p4 user -o".
func ParseUser(text string) (User, error) {
	r := newFormReader("user", text)
	u := User{
		Name:     r.text(labelUser, true),
		Email:    r.text(labelEmail, true),
		Update:   r.date(labelUpdate, false),
		Access:   r.date(labelAccess, false),
		FullName: r.text(labelFullName, true),
		JobView:  r.text(labelJobView, false),
		Password: r.text(labelPassword, false),
		Reviews:  r.lines(labelReviews, false),
	}
	return u, r.errs.err()
}

// User returns the named user, or the current user when name is empty.
func (s *Session) User(ctx context.Context, name string) (User, error) {
	args := []string{"user", "-o"}
	if name != "" {
		args = append(args, name)
	}

	res, _, err := s.exec(ctx, "user", nil, args...)
	if err != nil {
		return User{}, err
	}
	if strings.TrimSpace(res.Stdout) == "" {
		return User{}, fmt.Errorf("p4 user -o: %w", ErrUnexpectedOutput)
	}
	u, perr := ParseUser(res.Stdout)
	s.logParse("user", perr)
	return u, nil
}

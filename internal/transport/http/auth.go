package http

import (
	"context"
	"net/http"
	"strconv"

	"starting5-service/internal/domain"
)

// SessionCookie is minted by the auth collaborator and carries the user id.
const SessionCookie = "s5_user"

// UserResolver identifies the authenticated user on a request, if any.
type UserResolver interface {
	CurrentUser(r *http.Request) (*domain.User, bool)
}

// Anonymous treats every request as unauthenticated. Wired when auth is
// disabled in config.
type Anonymous struct{}

func (Anonymous) CurrentUser(*http.Request) (*domain.User, bool) { return nil, false }

// UserLookup resolves user ids against the user store.
type UserLookup interface {
	UserByID(ctx context.Context, id int64) (domain.User, error)
}

// SessionResolver resolves the session cookie against the user store.
type SessionResolver struct {
	users UserLookup
}

func NewSessionResolver(users UserLookup) *SessionResolver {
	return &SessionResolver{users: users}
}

func (s *SessionResolver) CurrentUser(r *http.Request) (*domain.User, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}
	id, err := strconv.ParseInt(cookie.Value, 10, 64)
	if err != nil {
		return nil, false
	}
	user, err := s.users.UserByID(r.Context(), id)
	if err != nil {
		return nil, false
	}
	return &user, true
}

package http

import (
	"context"
	"net/http"

	"github.com/nagito52/fleamarketsystem/internal/domain"
)

// Authentication happens upstream (reverse proxy / session layer); the
// API trusts these headers for the acting user's identity.
const (
	headerUserID   = "X-User-Id"
	headerUserName = "X-User-Name"
	headerUserRole = "X-User-Role"
)

type userKey struct{}

// Identity stores the acting user from the identity headers in the
// request context.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerUserID)
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		user := domain.User{
			ID:   id,
			Name: r.Header.Get(headerUserName),
			Role: domain.UserRole(r.Header.Get(headerUserRole)),
		}
		if user.Role == "" {
			user.Role = domain.UserRoleMember
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
	})
}

func userFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(domain.User)
	return u, ok
}

// requireUser writes a 401 and returns false when no identity headers
// were present.
func requireUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
		return domain.User{}, false
	}
	return user, true
}

// RequireAdmin guards the admin subtree.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
			return
		}
		if !user.Admin() {
			writeError(w, http.StatusForbidden, codeForbidden, "administrator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

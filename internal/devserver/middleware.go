package devserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/devserver/auth"
)

type ctxKey string

const userIDKey ctxKey = "userID"

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// requireAccess admits requests carrying a valid access cookie and stores
// the user id in the request context.
func (s *Server) requireAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(AccessCookie)
		if err != nil || c.Value == "" {
			s.fail(w, r, http.StatusUnauthorized, "missing token")
			return
		}

		claims, err := auth.ParseToken(c.Value, auth.KindAccess, s.secret, s.now())
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, common.ErrTokenExpired) {
				msg = common.ErrTokenExpired.Error()
			}
			s.fail(w, r, http.StatusUnauthorized, msg)
			return
		}

		if _, err := s.store.UserByID(claims.UserID); err != nil {
			s.fail(w, r, http.StatusUnauthorized, "unknown user")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package handler

import (
	"context"
	"net/http"

	"github.com/recycle-rewards/internal/domain"
)

type contextKey int

const (
	sessionKey contextKey = iota
	userKey
	peerKey
)

// requireSession resolves the session token header and stores the session
// and its user in the request context
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(SessionHeader)
		sess, user, err := h.service.Session(r.Context(), token)
		if err != nil {
			if domain.IsNotFoundError(err) {
				// A session whose user vanished is as good as none
				h.writeError(w, http.StatusUnauthorized, domain.ErrSessionNotFound)
				return
			}
			h.writeServiceError(w, r, "resolve session", err)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		ctx = context.WithValue(ctx, userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) *domain.Session {
	s, _ := ctx.Value(sessionKey).(*domain.Session)
	return s
}

func userFrom(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey).(*domain.User)
	return u
}

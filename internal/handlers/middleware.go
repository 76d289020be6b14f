package handlers

import (
	"context"
	"net/http"

	"github.com/handsomefox/screenbase/internal/store"
)

type ctxKey int

const userCtxKey ctxKey = iota

// MiddlewareRequireAuth rejects requests without a valid session and stores
// the resolved user in the request context for downstream handlers.
func (h *Handler) MiddlewareRequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := h.currentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, &ErrorResponse{Error: "unauthorized"})
			return
		}
		ctx := context.WithValue(r.Context(), userCtxKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser resolves the session cookie to a user, or nil for anonymous or
// invalid sessions. It never fails a request by itself.
func (h *Handler) currentUser(r *http.Request) *store.User {
	if user, ok := r.Context().Value(userCtxKey).(*store.User); ok {
		return user
	}

	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	claims, err := h.sessions.Verify(c.Value)
	if err != nil {
		return nil
	}
	user, err := h.store.GetUser(r.Context(), claims.UserID)
	if err != nil {
		return nil
	}
	return user
}

func userFrom(ctx context.Context) *store.User {
	user, _ := ctx.Value(userCtxKey).(*store.User)
	return user
}

package handlers

import (
	"net/http"
	"time"

	"github.com/handsomefox/screenbase/internal/env"
)

const sessionCookieName = "session"

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	ttl := h.sessions.TTL()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: sameSite(),
		Secure:   secure(),
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: sameSite(),
		Secure:   secure(),
	})
}

func sameSite() http.SameSite {
	switch env.Current {
	case env.Production:
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func secure() bool {
	switch env.Current {
	case env.Production:
		return true
	default:
		return false
	}
}

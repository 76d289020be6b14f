package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/handsomefox/screenbase/internal/auth"
	"github.com/handsomefox/screenbase/internal/store"
)

func (h *Handler) postRegister(w http.ResponseWriter, r *http.Request) error {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(err.Error())
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return internal(err)
	}

	user := &store.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: sql.Null[string]{Valid: true, V: hash},
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return conflict("email already registered")
		}
		slog.Warn("register failed", slog.Any("err", err))
		return internal(err)
	}

	return h.startSession(w, user, http.StatusCreated)
}

func (h *Handler) postLogin(w http.ResponseWriter, r *http.Request) error {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(err.Error())
	}

	user, err := h.store.GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return internal(err)
	}
	if user == nil || !user.PasswordHash.Valid || !auth.CheckPassword(user.PasswordHash.V, req.Password) {
		slog.Warn("login: invalid credentials", slog.String("remote", r.RemoteAddr))
		return unauthorized("invalid email or password")
	}

	return h.startSession(w, user, http.StatusOK)
}

func (h *Handler) postGoogleLogin(w http.ResponseWriter, r *http.Request) error {
	if !h.google.Enabled() {
		return badRequest("google sign-in is not configured")
	}

	var req GoogleLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(err.Error())
	}

	identity, err := h.google.Verify(req.IDToken)
	if err != nil {
		slog.Warn("google login failed", slog.Any("err", err))
		return unauthorized("invalid google token")
	}

	user, err := h.store.UpsertExternalUser(r.Context(), strings.ToLower(identity.Email), identity.Name, toNullString(identity.Picture))
	if err != nil {
		return internal(err)
	}

	return h.startSession(w, user, http.StatusOK)
}

func (h *Handler) postLogout(w http.ResponseWriter, r *http.Request) error {
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, &SessionResponse{Authenticated: false})
	return nil
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) error {
	user := h.currentUser(r)

	resp := &SessionResponse{Authenticated: user != nil}
	if user != nil {
		resp.User = toUserDTO(user)
		resp.ImageBase = h.imageBase
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *Handler) startSession(w http.ResponseWriter, user *store.User, status int) error {
	token, err := h.sessions.Issue(user.ID)
	if err != nil {
		return internal(err)
	}
	h.setSessionCookie(w, token)
	writeJSON(w, status, &SessionResponse{
		Authenticated: true,
		User:          toUserDTO(user),
		ImageBase:     h.imageBase,
	})
	return nil
}

package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndSession(t *testing.T) {
	router, _ := newTestServer(t)

	cookie := registerUser(t, router, "Alice", "alice@example.com")

	rec := doJSON(t, router, http.MethodGet, "/api/auth/session", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[SessionResponse](t, rec)
	assert.True(t, resp.Authenticated)
	require.NotNil(t, resp.User)
	assert.Equal(t, "Alice", resp.User.Name)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.ImageBase)
}

func TestSessionAnonymous(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/auth/session", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[SessionResponse](t, rec)
	assert.False(t, resp.Authenticated)
	assert.Nil(t, resp.User)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router, _ := newTestServer(t)

	registerUser(t, router, "Alice", "alice@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register",
		`{"name":"Imposter","email":"alice@example.com","password":"password123"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	router, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"short password", `{"name":"Alice","email":"alice@example.com","password":"short"}`},
		{"bad email", `{"name":"Alice","email":"not-an-email","password":"password123"}`},
		{"missing name", `{"name":"","email":"alice@example.com","password":"password123"}`},
		{"not json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/auth/register", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	router, _ := newTestServer(t)
	registerUser(t, router, "Alice", "alice@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"password123"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[SessionResponse](t, rec)
	assert.True(t, resp.Authenticated)

	// Email matching is case-insensitive.
	rec = doJSON(t, router, http.MethodPost, "/api/auth/login",
		`{"email":"ALICE@example.com","password":"password123"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginInvalidCredentials(t *testing.T) {
	router, _ := newTestServer(t)
	registerUser(t, router, "Alice", "alice@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"wrong-password"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login",
		`{"email":"nobody@example.com","password":"password123"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutClearsSession(t *testing.T) {
	router, _ := newTestServer(t)
	registerUser(t, router, "Alice", "alice@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "logout should expire the session cookie")
}

func TestGoogleLoginNotConfigured(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/google",
		`{"id_token":"some-token"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

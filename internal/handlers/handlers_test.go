package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handsomefox/screenbase/internal/auth"
	"github.com/handsomefox/screenbase/internal/store"
	"github.com/handsomefox/screenbase/internal/tmdb"
)

func newTestServer(t *testing.T) (http.Handler, *store.Store) {
	t.Helper()

	return newTestServerWithTMDB(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream call: %s", r.URL.Path)
		http.Error(w, "unexpected upstream call", http.StatusInternalServerError)
	}))
}

// newTestServerWithTMDB routes catalog traffic to the given fake upstream.
func newTestServerWithTMDB(t *testing.T, upstream http.Handler) (http.Handler, *store.Store) {
	t.Helper()

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})

	sessions, err := auth.NewSessions("test-secret", time.Hour)
	require.NoError(t, err)

	h, err := New(&Config{
		Store:     st,
		TMDB:      tmdb.NewWithBaseURL("test-api-key", srv.URL),
		Sessions:  sessions,
		ImageBase: "https://image.tmdb.org/t/p/w500",
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, st
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// registerUser creates an account through the API and returns its session cookie.
func registerUser(t *testing.T, router http.Handler, name, email string) *http.Cookie {
	t.Helper()

	body := fmt.Sprintf(`{"name":%q,"email":%q,"password":"password123"}`, name, email)
	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("register did not set a session cookie")
	return nil
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestSearchEmptyQuery(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/search?q=", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[SearchResponse](t, rec)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)

	rec = doJSON(t, router, http.MethodGet, "/api/search?q=%20%20", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGenresBadType(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/genres?type=person", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/genres", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHomeSurvivesPartialFeedFailure(t *testing.T) {
	router, _ := newTestServerWithTMDB(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/trending/all/day":
			w.Write([]byte(`{"page":1,"total_pages":1,"results":[
				{"id":1726,"media_type":"movie","title":"Iron Man","release_date":"2008-04-30","backdrop_path":"/backdrop.jpg"}
			]}`))
		case "/movie/popular":
			http.Error(w, "upstream down", http.StatusInternalServerError)
		case "/tv/popular":
			w.Write([]byte(`{"page":1,"total_pages":1,"results":[
				{"id":1396,"name":"Breaking Bad","first_air_date":"2008-01-20"}
			]}`))
		case "/movie/upcoming":
			w.Write([]byte(`{"page":1,"total_pages":1,"results":[
				{"id":533535,"title":"Deadpool & Wolverine","release_date":"2026-07-24"}
			]}`))
		default:
			http.NotFound(w, r)
		}
	}))

	rec := doJSON(t, router, http.MethodGet, "/api/home", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[HomeResponse](t, rec)
	require.NotNil(t, resp.Featured)
	assert.Equal(t, "Iron Man", resp.Featured.Title)
	assert.Len(t, resp.Trending, 1)
	assert.Empty(t, resp.PopularMovies)
	assert.Len(t, resp.PopularTV, 1)
	assert.Len(t, resp.UpcomingMovies, 1)
}

func TestHomeFailsWhenEveryFeedFails(t *testing.T) {
	router, _ := newTestServerWithTMDB(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))

	rec := doJSON(t, router, http.MethodGet, "/api/home", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPopularUpstreamFailure(t *testing.T) {
	router, _ := newTestServerWithTMDB(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))

	rec := doJSON(t, router, http.MethodGet, "/api/movies/popular", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDetailRejectsNonNumericID(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/movie/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

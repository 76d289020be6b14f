package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewWithBaseURL("test-api-key", server.URL)
}

func TestSearchMultiFiltersPeople(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/multi", r.URL.Path)
		assert.Equal(t, "dune", r.URL.Query().Get("query"))
		w.Write([]byte(`{
			"page": 1,
			"total_pages": 1,
			"total_results": 3,
			"results": [
				{"id": 438631, "media_type": "movie", "title": "Dune", "release_date": "2021-09-15"},
				{"id": 90228, "media_type": "tv", "name": "Dune", "first_air_date": "2000-12-03"},
				{"id": 58168, "media_type": "person", "name": "Denis Villeneuve"}
			]
		}`))
	})

	page, err := c.SearchMulti(context.Background(), "dune", 1)
	require.NoError(t, err)
	require.Len(t, page.Results, 2)

	assert.Equal(t, "movie", page.Results[0].MediaType)
	assert.Equal(t, "Dune", page.Results[0].Title)
	assert.Equal(t, "2021", page.Results[0].Year)

	assert.Equal(t, "tv", page.Results[1].MediaType)
	assert.Equal(t, "Dune", page.Results[1].Title)
	assert.Equal(t, "2000", page.Results[1].Year)
}

func TestSearchMultiEmptyQuerySkipsRequest(t *testing.T) {
	var hits atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"results": []}`))
	})

	page, err := c.SearchMulti(context.Background(), "   ", 1)
	require.NoError(t, err)
	assert.Empty(t, page.Results)
	assert.Zero(t, hits.Load())
}

func TestPopularNormalizesTVNames(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tv/popular", r.URL.Path)
		w.Write([]byte(`{
			"page": 1,
			"total_pages": 10,
			"total_results": 200,
			"results": [
				{"id": 1396, "name": "Breaking Bad", "first_air_date": "2008-01-20"}
			]
		}`))
	})

	page, err := c.Popular(context.Background(), "tv", 1)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "tv", page.Results[0].MediaType)
	assert.Equal(t, "Breaking Bad", page.Results[0].Title)
	assert.Equal(t, "2008", page.Results[0].Year)
}

func TestPopularInvalidMediaType(t *testing.T) {
	c := New("test-api-key")
	_, err := c.Popular(context.Background(), "person", 1)
	require.Error(t, err)
}

func TestTotalPagesCapped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"page": 1, "total_pages": 9000, "total_results": 180000, "results": []}`))
	})

	page, err := c.Popular(context.Background(), "movie", 1)
	require.NoError(t, err)
	assert.Equal(t, MaxPage, page.TotalPages)
}

func TestPageClampedInRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "500", r.URL.Query().Get("page"))
		w.Write([]byte(`{"page": 500, "total_pages": 500, "results": []}`))
	})

	_, err := c.Popular(context.Background(), "movie", 12345)
	require.NoError(t, err)
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-3, 1},
		{0, 1},
		{1, 1},
		{250, 250},
		{500, 500},
		{501, 500},
		{99999, 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampPage(tt.in))
	}
}

func TestDetailsMovie(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/603", r.URL.Path)
		assert.Equal(t, "credits,similar,videos", r.URL.Query().Get("append_to_response"))
		w.Write([]byte(`{
			"id": 603,
			"title": "The Matrix",
			"release_date": "1999-03-30",
			"runtime": 136,
			"genres": [{"id": 28, "name": "Action"}],
			"credits": {"cast": [{"id": 6384, "name": "Keanu Reeves", "character": "Neo", "order": 0}]},
			"similar": {"results": [{"id": 604, "title": "The Matrix Reloaded", "release_date": "2003-05-15"}]},
			"videos": {"results": [{"key": "vKQi3bBA1y8", "name": "Trailer", "site": "YouTube", "type": "Trailer"}]}
		}`))
	})

	d, err := c.Details(context.Background(), "movie", 603)
	require.NoError(t, err)

	assert.Equal(t, "The Matrix", d.Title)
	assert.Equal(t, "movie", d.MediaType)
	assert.Equal(t, "1999", d.Year)
	assert.Equal(t, 136, d.Runtime)
	require.Len(t, d.Cast, 1)
	assert.Equal(t, "Keanu Reeves", d.Cast[0].Name)
	require.Len(t, d.Similar, 1)
	assert.Equal(t, "movie", d.Similar[0].MediaType)
	require.Len(t, d.Videos, 1)
	assert.Equal(t, "YouTube", d.Videos[0].Site)
}

func TestDetailsTV(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tv/1396", r.URL.Path)
		w.Write([]byte(`{
			"id": 1396,
			"name": "Breaking Bad",
			"first_air_date": "2008-01-20",
			"number_of_seasons": 5,
			"number_of_episodes": 62
		}`))
	})

	d, err := c.Details(context.Background(), "tv", 1396)
	require.NoError(t, err)

	assert.Equal(t, "Breaking Bad", d.Title)
	assert.Equal(t, "2008", d.Year)
	assert.Equal(t, 5, d.Seasons)
	assert.Equal(t, 62, d.Episodes)
}

func TestDetailsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status_code": 34, "status_message": "The resource you requested could not be found."}`))
	})

	_, err := c.Details(context.Background(), "movie", 999999999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAuthModes(t *testing.T) {
	jwt := "eyJhbGciOiJIUzI1NiJ9." + "eyJhdWQiOiJ0bWRiIiwic3ViIjoiYWJjZGVmMDEyMzQ1Njc4OWFiY2RlZjAxIn0." + "c2lnbmF0dXJlLXNpZ25hdHVyZS1zaWduYXR1cmU"
	c := New(jwt)
	assert.Empty(t, c.apiKey)
	assert.Equal(t, jwt, c.readToken)

	c = New("plain-api-key")
	assert.Equal(t, "plain-api-key", c.apiKey)
	assert.Empty(t, c.readToken)
}

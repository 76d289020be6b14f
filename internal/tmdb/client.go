// Package tmdb wraps the TMDB API for catalog browsing, search and detail lookups.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// MaxPage is the deepest page TMDB serves; requests beyond it return 400.
const MaxPage = 500

// ErrNotFound is returned for detail lookups on ids TMDB does not know.
var ErrNotFound = errors.New("tmdb: not found")

type Client struct {
	baseURL   string
	apiKey    string
	readToken string
	http      *http.Client
}

func New(token string) *Client {
	return NewWithBaseURL(token, defaultBaseURL)
}

// NewWithBaseURL points the client at an alternate API host, such as a test
// server.
func NewWithBaseURL(token, baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	if looksLikeJWT(token) {
		c.readToken = token
	} else {
		c.apiKey = token
	}
	return c
}

// MediaItem is a catalog entry that is either a movie or a TV show,
// discriminated by MediaType ("movie" or "tv"). Title and Year are
// normalized from the upstream movie/tv field pairs.
type MediaItem struct {
	ID           int64   `json:"id"`
	MediaType    string  `json:"media_type"`
	Title        string  `json:"title"`
	Year         string  `json:"year"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	Overview     string  `json:"overview"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	GenreIDs     []int   `json:"genre_ids"`
}

type Page struct {
	Results      []MediaItem `json:"results"`
	Page         int         `json:"page"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CastMember struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// Detail is a full movie or TV record with credits, similar titles and
// videos attached in a single upstream request.
type Detail struct {
	ID           int64        `json:"id"`
	MediaType    string       `json:"media_type"`
	Title        string       `json:"title"`
	Year         string       `json:"year"`
	Tagline      string       `json:"tagline"`
	Status       string       `json:"status"`
	Overview     string       `json:"overview"`
	PosterPath   string       `json:"poster_path"`
	BackdropPath string       `json:"backdrop_path"`
	VoteAverage  float64      `json:"vote_average"`
	VoteCount    int          `json:"vote_count"`
	Genres       []Genre      `json:"genres"`
	Runtime      int          `json:"runtime,omitempty"`
	Seasons      int          `json:"number_of_seasons,omitempty"`
	Episodes     int          `json:"number_of_episodes,omitempty"`
	Cast         []CastMember `json:"cast"`
	Similar      []MediaItem  `json:"similar"`
	Videos       []Video      `json:"videos"`
}

type listItem struct {
	ID           int64   `json:"id"`
	MediaType    string  `json:"media_type"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	Overview     string  `json:"overview"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	GenreIDs     []int   `json:"genre_ids"`
}

type listResponse struct {
	Page         int        `json:"page"`
	TotalPages   int        `json:"total_pages"`
	TotalResults int        `json:"total_results"`
	Results      []listItem `json:"results"`
}

type detailResponse struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	Tagline          string  `json:"tagline"`
	Status           string  `json:"status"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Runtime          int     `json:"runtime"`
	NumberOfSeasons  int     `json:"number_of_seasons"`
	NumberOfEpisodes int     `json:"number_of_episodes"`
	Genres           []Genre `json:"genres"`
	Credits          struct {
		Cast []CastMember `json:"cast"`
	} `json:"credits"`
	Similar struct {
		Results []listItem `json:"results"`
	} `json:"similar"`
	Videos struct {
		Results []Video `json:"results"`
	} `json:"videos"`
}

// Trending returns the trending feed for the given window ("day" or "week"),
// filtered to movies and TV shows.
func (c *Client) Trending(ctx context.Context, window string) (Page, error) {
	if window != "day" && window != "week" {
		window = "day"
	}
	return c.fetchList(ctx, "/trending/all/"+window, url.Values{}, "")
}

// Popular returns the popular feed for "movie" or "tv".
func (c *Client) Popular(ctx context.Context, mediaType string, page int) (Page, error) {
	if mediaType != "movie" && mediaType != "tv" {
		return Page{}, errors.New("invalid media type")
	}
	values := url.Values{}
	values.Set("page", strconv.Itoa(ClampPage(page)))
	return c.fetchList(ctx, "/"+mediaType+"/popular", values, mediaType)
}

// Upcoming returns upcoming theatrical movies.
func (c *Client) Upcoming(ctx context.Context, page int) (Page, error) {
	values := url.Values{}
	values.Set("page", strconv.Itoa(ClampPage(page)))
	return c.fetchList(ctx, "/movie/upcoming", values, "movie")
}

// SearchMulti searches movies and TV shows; people in the multi-search
// response are dropped. An empty query returns an empty page without
// contacting the API.
func (c *Client) SearchMulti(ctx context.Context, query string, page int) (Page, error) {
	if strings.TrimSpace(query) == "" {
		return Page{}, nil
	}
	values := url.Values{}
	values.Set("query", query)
	values.Set("include_adult", "false")
	values.Set("page", strconv.Itoa(ClampPage(page)))
	return c.fetchList(ctx, "/search/multi", values, "")
}

type DiscoverOptions struct {
	SortBy     string
	WithGenres string
	Page       int
}

// Discover lists movies or TV shows by sort key and optional genre filter.
func (c *Client) Discover(ctx context.Context, mediaType string, opts DiscoverOptions) (Page, error) {
	if mediaType != "movie" && mediaType != "tv" {
		return Page{}, errors.New("invalid media type")
	}
	sortBy := strings.TrimSpace(opts.SortBy)
	if sortBy == "" {
		sortBy = "popularity.desc"
	}
	values := url.Values{}
	values.Set("include_adult", "false")
	values.Set("sort_by", sortBy)
	if strings.TrimSpace(opts.WithGenres) != "" {
		values.Set("with_genres", opts.WithGenres)
	}
	values.Set("page", strconv.Itoa(ClampPage(opts.Page)))
	return c.fetchList(ctx, "/discover/"+mediaType, values, mediaType)
}

// Details fetches a movie or TV record with credits, similar titles and
// videos attached. Unknown ids yield ErrNotFound.
func (c *Client) Details(ctx context.Context, mediaType string, id int64) (*Detail, error) {
	if mediaType != "movie" && mediaType != "tv" {
		return nil, errors.New("invalid media type")
	}
	values := url.Values{}
	values.Set("append_to_response", "credits,similar,videos")
	endpoint := fmt.Sprintf("%s/%s/%d?%s", c.baseURL, mediaType, id, c.withAuth(values).Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, err
	}
	c.applyAuth(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		if cerr := resp.Body.Close(); cerr != nil {
			return nil, errors.Join(ErrNotFound, cerr)
		}
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 400 {
		statusErr := fmt.Errorf("tmdb details failed: %s", resp.Status)
		if cerr := resp.Body.Close(); cerr != nil {
			return nil, errors.Join(statusErr, cerr)
		}
		return nil, statusErr
	}

	var payload detailResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if cerr := resp.Body.Close(); cerr != nil {
			return nil, errors.Join(err, cerr)
		}
		return nil, err
	}
	if err := resp.Body.Close(); err != nil {
		return nil, err
	}

	detail := &Detail{
		ID:           payload.ID,
		MediaType:    mediaType,
		Tagline:      payload.Tagline,
		Status:       payload.Status,
		Overview:     payload.Overview,
		PosterPath:   payload.PosterPath,
		BackdropPath: payload.BackdropPath,
		VoteAverage:  payload.VoteAverage,
		VoteCount:    payload.VoteCount,
		Genres:       payload.Genres,
		Cast:         payload.Credits.Cast,
		Videos:       payload.Videos.Results,
	}
	if mediaType == "tv" {
		detail.Title = payload.Name
		detail.Year = yearFromDate(payload.FirstAirDate)
		detail.Seasons = payload.NumberOfSeasons
		detail.Episodes = payload.NumberOfEpisodes
	} else {
		detail.Title = payload.Title
		detail.Year = yearFromDate(payload.ReleaseDate)
		detail.Runtime = payload.Runtime
	}
	detail.Similar = normalizeItems(payload.Similar.Results, mediaType)
	return detail, nil
}

// Genres returns the genre list for "movie" or "tv".
func (c *Client) Genres(ctx context.Context, mediaType string) ([]Genre, error) {
	if mediaType != "movie" && mediaType != "tv" {
		return nil, errors.New("invalid media type")
	}
	endpoint := c.baseURL + "/genre/" + mediaType + "/list?" + c.withAuth(url.Values{}).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, err
	}
	c.applyAuth(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		statusErr := fmt.Errorf("tmdb genres failed: %s", resp.Status)
		if cerr := resp.Body.Close(); cerr != nil {
			return nil, errors.Join(statusErr, cerr)
		}
		return nil, statusErr
	}

	var payload struct {
		Genres []Genre `json:"genres"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if cerr := resp.Body.Close(); cerr != nil {
			return nil, errors.Join(err, cerr)
		}
		return nil, err
	}
	if err := resp.Body.Close(); err != nil {
		return nil, err
	}
	return payload.Genres, nil
}

func (c *Client) fetchList(ctx context.Context, path string, values url.Values, mediaTypeOverride string) (Page, error) {
	endpoint := c.baseURL + path + "?" + c.withAuth(values).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return Page{}, err
	}
	c.applyAuth(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return Page{}, err
	}
	if resp.StatusCode >= 400 {
		statusErr := fmt.Errorf("tmdb list failed: %s", resp.Status)
		if cerr := resp.Body.Close(); cerr != nil {
			return Page{}, errors.Join(statusErr, cerr)
		}
		return Page{}, statusErr
	}

	var payload listResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if cerr := resp.Body.Close(); cerr != nil {
			return Page{}, errors.Join(err, cerr)
		}
		return Page{}, err
	}
	if err := resp.Body.Close(); err != nil {
		return Page{}, err
	}

	return Page{
		Results:      normalizeItems(payload.Results, mediaTypeOverride),
		Page:         payload.Page,
		TotalPages:   min(payload.TotalPages, MaxPage),
		TotalResults: payload.TotalResults,
	}, nil
}

func normalizeItems(items []listItem, mediaTypeOverride string) []MediaItem {
	out := make([]MediaItem, 0, len(items))
	for i := range items {
		r := items[i]
		mediaType := r.MediaType
		if mediaTypeOverride != "" {
			mediaType = mediaTypeOverride
		}
		if mediaType != "movie" && mediaType != "tv" {
			continue
		}
		res := MediaItem{
			ID:           r.ID,
			MediaType:    mediaType,
			PosterPath:   r.PosterPath,
			BackdropPath: r.BackdropPath,
			Overview:     r.Overview,
			VoteAverage:  r.VoteAverage,
			VoteCount:    r.VoteCount,
			GenreIDs:     r.GenreIDs,
		}
		if mediaType == "movie" {
			res.Title = r.Title
			res.Year = yearFromDate(r.ReleaseDate)
		} else {
			res.Title = r.Name
			res.Year = yearFromDate(r.FirstAirDate)
		}
		out = append(out, res)
	}
	return out
}

// ClampPage limits page navigation to the range TMDB actually serves.
func ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	if page > MaxPage {
		return MaxPage
	}
	return page
}

func (c *Client) withAuth(values url.Values) url.Values {
	if c.apiKey != "" {
		values.Set("api_key", c.apiKey)
	}
	return values
}

func (c *Client) applyAuth(req *http.Request) {
	if strings.TrimSpace(c.readToken) == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.readToken))
}

func looksLikeJWT(token string) bool {
	parts := strings.Split(strings.TrimSpace(token), ".")
	return len(parts) == 3 && len(token) > 80
}

func yearFromDate(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

// Package handlers wires HTTP routing and API handlers.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/handsomefox/screenbase/internal/auth"
	"github.com/handsomefox/screenbase/internal/store"
	"github.com/handsomefox/screenbase/internal/tmdb"
)

type Handler struct {
	store     *store.Store
	tmdb      *tmdb.Client
	sessions  *auth.Sessions
	google    *auth.GoogleVerifier
	imageBase string
	validate  *validator.Validate
}

type Config struct {
	Store     *store.Store
	TMDB      *tmdb.Client
	Sessions  *auth.Sessions
	Google    *auth.GoogleVerifier
	ImageBase string
}

func New(cfg *Config) (*Handler, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.TMDB == nil {
		return nil, errors.New("tmdb client is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("sessions are required")
	}
	google := cfg.Google
	if google == nil {
		google = auth.NewGoogleVerifier("")
	}

	return &Handler{
		store:     cfg.Store,
		tmdb:      cfg.TMDB,
		sessions:  cfg.Sessions,
		google:    google,
		imageBase: cfg.ImageBase,
		validate:  validator.New(),
	}, nil
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Method(http.MethodPost, "/register", Adapt(h.postRegister))
			r.Method(http.MethodPost, "/login", Adapt(h.postLogin))
			r.Method(http.MethodPost, "/google", Adapt(h.postGoogleLogin))
			r.Method(http.MethodPost, "/logout", Adapt(h.postLogout))
			r.Method(http.MethodGet, "/session", Adapt(h.getSession))
		})

		r.Method(http.MethodGet, "/search", Adapt(h.getSearch))
		r.Method(http.MethodGet, "/home", Adapt(h.getHome))
		r.Method(http.MethodGet, "/trending", Adapt(h.getTrending))
		r.Method(http.MethodGet, "/genres", Adapt(h.getGenres))

		r.Route("/movies", func(r chi.Router) {
			r.Method(http.MethodGet, "/popular", Adapt(h.getPopularMovies))
			r.Method(http.MethodGet, "/upcoming", Adapt(h.getUpcomingMovies))
			r.Method(http.MethodGet, "/discover", Adapt(h.getDiscoverMovies))
		})
		r.Route("/tv", func(r chi.Router) {
			r.Method(http.MethodGet, "/popular", Adapt(h.getPopularTV))
			r.Method(http.MethodGet, "/discover", Adapt(h.getDiscoverTV))
		})

		r.Method(http.MethodGet, "/movie/{id:[0-9]+}", Adapt(h.getMovieDetail))
		r.Method(http.MethodGet, "/tv/{id:[0-9]+}", Adapt(h.getTVDetail))

		r.Method(http.MethodGet, "/reviews", Adapt(h.getReviews))
		r.Method(http.MethodGet, "/library", Adapt(h.getLibrary))
		r.Method(http.MethodGet, "/library/status", Adapt(h.getLibraryStatus))

		r.Group(func(r chi.Router) {
			r.Use(h.MiddlewareRequireAuth)

			r.Method(http.MethodPost, "/library/toggle", Adapt(h.postLibraryToggle))
			r.Method(http.MethodPost, "/reviews", Adapt(h.postReview))
			r.Method(http.MethodDelete, "/reviews/{id}", Adapt(h.deleteReview))
		})
	})
}

// getSearch backs the search box. An empty query returns an empty result set
// without touching the upstream API.
func (h *Handler) getSearch(w http.ResponseWriter, r *http.Request) error {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusOK, &SearchResponse{Results: []tmdb.MediaItem{}})
		return nil
	}

	page, err := h.tmdb.SearchMulti(r.Context(), query, pageParam(r))
	if err != nil {
		slog.Warn("search failed", slog.Any("err", err))
		return internal(err)
	}

	results := page.Results
	if results == nil {
		results = []tmdb.MediaItem{}
	}
	writeJSON(w, http.StatusOK, &SearchResponse{Results: results})
	return nil
}

// getHome aggregates the landing page feeds. Each feed is fetched in
// parallel and fails independently; the page only errors when every feed
// does.
func (h *Handler) getHome(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var (
		wg       sync.WaitGroup
		trending tmdb.Page
		movies   tmdb.Page
		tv       tmdb.Page
		upcoming tmdb.Page
		errs     [4]error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		trending, errs[0] = h.tmdb.Trending(ctx, "day")
	}()
	go func() {
		defer wg.Done()
		movies, errs[1] = h.tmdb.Popular(ctx, "movie", 1)
	}()
	go func() {
		defer wg.Done()
		tv, errs[2] = h.tmdb.Popular(ctx, "tv", 1)
	}()
	go func() {
		defer wg.Done()
		upcoming, errs[3] = h.tmdb.Upcoming(ctx, 1)
	}()
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			slog.Warn("home feed failed", slog.Any("err", err))
		}
	}
	if failed == len(errs) {
		return internal(errors.Join(errs[:]...))
	}

	resp := &HomeResponse{
		Featured:       featuredFrom(trending.Results),
		Trending:       trending.Results,
		PopularMovies:  movies.Results,
		PopularTV:      tv.Results,
		UpcomingMovies: upcoming.Results,
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

// featuredFrom picks the first trending movie with a backdrop for the hero slot.
func featuredFrom(items []tmdb.MediaItem) *tmdb.MediaItem {
	for i := range items {
		if items[i].MediaType == "movie" && items[i].BackdropPath != "" {
			return &items[i]
		}
	}
	return nil
}

func (h *Handler) getTrending(w http.ResponseWriter, r *http.Request) error {
	window := strings.TrimSpace(r.URL.Query().Get("window"))
	page, err := h.tmdb.Trending(r.Context(), window)
	if err != nil {
		return badGateway(err)
	}
	writeJSON(w, http.StatusOK, page)
	return nil
}

func (h *Handler) getPopularMovies(w http.ResponseWriter, r *http.Request) error {
	page, err := h.tmdb.Popular(r.Context(), "movie", pageParam(r))
	if err != nil {
		return badGateway(err)
	}
	writeJSON(w, http.StatusOK, page)
	return nil
}

func (h *Handler) getPopularTV(w http.ResponseWriter, r *http.Request) error {
	page, err := h.tmdb.Popular(r.Context(), "tv", pageParam(r))
	if err != nil {
		return badGateway(err)
	}
	writeJSON(w, http.StatusOK, page)
	return nil
}

func (h *Handler) getUpcomingMovies(w http.ResponseWriter, r *http.Request) error {
	page, err := h.tmdb.Upcoming(r.Context(), pageParam(r))
	if err != nil {
		return badGateway(err)
	}
	writeJSON(w, http.StatusOK, page)
	return nil
}

func (h *Handler) getDiscoverMovies(w http.ResponseWriter, r *http.Request) error {
	return h.discover(w, r, "movie")
}

func (h *Handler) getDiscoverTV(w http.ResponseWriter, r *http.Request) error {
	return h.discover(w, r, "tv")
}

func (h *Handler) discover(w http.ResponseWriter, r *http.Request, mediaType string) error {
	opts := tmdb.DiscoverOptions{
		SortBy:     strings.TrimSpace(r.URL.Query().Get("sort_by")),
		WithGenres: strings.TrimSpace(r.URL.Query().Get("with_genres")),
		Page:       pageParam(r),
	}
	page, err := h.tmdb.Discover(r.Context(), mediaType, opts)
	if err != nil {
		return badGateway(err)
	}
	writeJSON(w, http.StatusOK, page)
	return nil
}

func (h *Handler) getGenres(w http.ResponseWriter, r *http.Request) error {
	mediaType := strings.TrimSpace(r.URL.Query().Get("type"))
	if mediaType != "movie" && mediaType != "tv" {
		return badRequest("invalid type")
	}
	genres, err := h.tmdb.Genres(r.Context(), mediaType)
	if err != nil {
		return badGateway(err)
	}
	writeJSON(w, http.StatusOK, &GenresResponse{Genres: genres})
	return nil
}

func (h *Handler) getMovieDetail(w http.ResponseWriter, r *http.Request) error {
	return h.detail(w, r, "movie")
}

func (h *Handler) getTVDetail(w http.ResponseWriter, r *http.Request) error {
	return h.detail(w, r, "tv")
}

// detail fails fast: an unknown id renders as 404 rather than a degraded page.
func (h *Handler) detail(w http.ResponseWriter, r *http.Request, mediaType string) error {
	id, err := idParam(r, "id")
	if err != nil {
		return notFound("not found")
	}

	d, err := h.tmdb.Details(r.Context(), mediaType, id)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			return notFound("not found")
		}
		slog.Warn("detail fetch failed", slog.Any("err", err))
		return badGateway(err)
	}
	writeJSON(w, http.StatusOK, d)
	return nil
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return 0, errors.New("missing id")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("bad id")
	}
	return id, nil
}

package handlers

import (
	"github.com/handsomefox/screenbase/internal/store"
	"github.com/handsomefox/screenbase/internal/tmdb"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type UserDTO struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Image *string `json:"image,omitempty"`
}

type SessionResponse struct {
	Authenticated bool     `json:"authenticated"`
	User          *UserDTO `json:"user,omitempty"`
	ImageBase     string   `json:"image_base,omitempty"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type ToggleRequest struct {
	TmdbID     int64  `json:"tmdb_id" validate:"required,gt=0"`
	MediaType  string `json:"media_type" validate:"required,oneof=movie tv"`
	Title      string `json:"title" validate:"required"`
	PosterPath string `json:"poster_path"`
	Action     string `json:"action" validate:"required,oneof=favorite watchlist"`
}

type LibraryItemDTO struct {
	TmdbID      int64   `json:"tmdb_id"`
	MediaType   string  `json:"media_type"`
	Title       string  `json:"title"`
	PosterPath  *string `json:"poster_path,omitempty"`
	IsFavorite  bool    `json:"is_favorite"`
	IsWatchlist bool    `json:"is_watchlist"`
	UpdatedAt   int64   `json:"updated_at"`
}

type ToggleResponse struct {
	Active bool           `json:"active"`
	Item   LibraryItemDTO `json:"item"`
}

type LibraryStatusResponse struct {
	Item *LibraryItemDTO `json:"item"`
}

type LibraryListResponse struct {
	Items []LibraryItemDTO `json:"items"`
}

type ReviewRequest struct {
	TmdbID    int64  `json:"tmdb_id" validate:"required,gt=0"`
	MediaType string `json:"media_type" validate:"required,oneof=movie tv"`
	Rating    int    `json:"rating" validate:"gte=0,lte=10"`
	Content   string `json:"content" validate:"max=1000"`
}

type ReviewDTO struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	UserName  string  `json:"user_name"`
	UserImage *string `json:"user_image,omitempty"`
	TmdbID    int64   `json:"tmdb_id"`
	MediaType string  `json:"media_type"`
	Rating    int     `json:"rating"`
	Content   string  `json:"content"`
	CreatedAt int64   `json:"created_at"`
	UpdatedAt int64   `json:"updated_at"`
}

type ReviewsResponse struct {
	Reviews []ReviewDTO `json:"reviews"`
}

type SearchResponse struct {
	Results []tmdb.MediaItem `json:"results"`
}

type HomeResponse struct {
	Featured       *tmdb.MediaItem  `json:"featured,omitempty"`
	Trending       []tmdb.MediaItem `json:"trending"`
	PopularMovies  []tmdb.MediaItem `json:"popular_movies"`
	PopularTV      []tmdb.MediaItem `json:"popular_tv"`
	UpcomingMovies []tmdb.MediaItem `json:"upcoming_movies"`
}

type GenresResponse struct {
	Genres []tmdb.Genre `json:"genres"`
}

func toUserDTO(u *store.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Image: fromNullString(u.Image),
	}
}

func toLibraryItemDTO(item *store.LibraryItem) LibraryItemDTO {
	return LibraryItemDTO{
		TmdbID:      item.TMDBID,
		MediaType:   item.MediaType,
		Title:       item.Title,
		PosterPath:  fromNullString(item.PosterPath),
		IsFavorite:  item.IsFavorite,
		IsWatchlist: item.IsWatchlist,
		UpdatedAt:   item.UpdatedAt,
	}
}

func toReviewDTO(review *store.Review) ReviewDTO {
	return ReviewDTO{
		ID:        review.ID,
		UserID:    review.UserID,
		UserName:  review.UserName,
		UserImage: fromNullString(review.UserImage),
		TmdbID:    review.TMDBID,
		MediaType: review.MediaType,
		Rating:    review.Rating,
		Content:   review.Content,
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	}
}

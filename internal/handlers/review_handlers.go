package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/handsomefox/screenbase/internal/store"
)

// getReviews lists up to 20 reviews for a title, newest first. Public.
func (h *Handler) getReviews(w http.ResponseWriter, r *http.Request) error {
	tmdbID, mediaType, err := titleRefParams(r)
	if err != nil {
		return err
	}

	reviews, err := h.store.ListReviews(r.Context(), store.TitleRef{TMDBID: tmdbID, MediaType: mediaType})
	if err != nil {
		slog.Warn("list reviews failed", slog.Any("err", err))
		return internal(err)
	}

	out := make([]ReviewDTO, 0, len(reviews))
	for i := range reviews {
		out = append(out, toReviewDTO(&reviews[i]))
	}
	writeJSON(w, http.StatusOK, &ReviewsResponse{Reviews: out})
	return nil
}

// postReview creates a review snapshotting the author's current name and image.
func (h *Handler) postReview(w http.ResponseWriter, r *http.Request) error {
	user := userFrom(r.Context())
	if user == nil {
		return unauthorized("unauthorized")
	}

	var req ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(err.Error())
	}

	userName := strings.TrimSpace(user.Name)
	if userName == "" {
		userName = "Anonymous"
	}

	review := &store.Review{
		UserID:    user.ID,
		UserName:  userName,
		UserImage: user.Image,
		TMDBID:    req.TmdbID,
		MediaType: req.MediaType,
		Rating:    req.Rating,
		Content:   req.Content,
	}
	if err := h.store.CreateReview(r.Context(), review); err != nil {
		slog.Warn("create review failed", slog.Any("err", err))
		return internal(err)
	}

	dto := toReviewDTO(review)
	writeJSON(w, http.StatusCreated, &dto)
	return nil
}

// deleteReview permanently removes a review. Only the author may delete.
func (h *Handler) deleteReview(w http.ResponseWriter, r *http.Request) error {
	user := userFrom(r.Context())
	if user == nil {
		return unauthorized("unauthorized")
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		return notFound("not found")
	}

	review, err := h.store.GetReview(r.Context(), id)
	if err != nil {
		return internal(err)
	}
	if review == nil {
		return notFound("review not found")
	}
	if review.UserID != user.ID {
		return forbidden("not your review")
	}

	if err := h.store.DeleteReview(r.Context(), id); err != nil {
		slog.Warn("delete review failed", slog.Any("err", err))
		return internal(err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

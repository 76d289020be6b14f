package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/handsomefox/screenbase/internal/store"
)

// postLibraryToggle creates the library row on first touch, otherwise flips
// exactly the targeted flag. The response carries the new value of that flag.
func (h *Handler) postLibraryToggle(w http.ResponseWriter, r *http.Request) error {
	user := userFrom(r.Context())
	if user == nil {
		return unauthorized("unauthorized")
	}

	var req ToggleRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(err.Error())
	}

	flag := store.Flag(req.Action)
	ref := store.TitleRef{TMDBID: req.TmdbID, MediaType: req.MediaType}
	item, err := h.store.ToggleFlag(r.Context(), user.ID, ref, strings.TrimSpace(req.Title), toNullString(req.PosterPath), flag)
	if err != nil {
		slog.Warn("library toggle failed", slog.Any("err", err))
		return internal(err)
	}

	active := item.IsFavorite
	if flag == store.FlagWatchlist {
		active = item.IsWatchlist
	}
	writeJSON(w, http.StatusOK, &ToggleResponse{
		Active: active,
		Item:   toLibraryItemDTO(&item),
	})
	return nil
}

// getLibraryStatus answers "is this title in my library". Anonymous callers
// get a null item, not an error.
func (h *Handler) getLibraryStatus(w http.ResponseWriter, r *http.Request) error {
	user := h.currentUser(r)
	if user == nil {
		writeJSON(w, http.StatusOK, &LibraryStatusResponse{Item: nil})
		return nil
	}

	tmdbID, mediaType, err := titleRefParams(r)
	if err != nil {
		return err
	}

	item, err := h.store.GetStatus(r.Context(), user.ID, store.TitleRef{TMDBID: tmdbID, MediaType: mediaType})
	if err != nil {
		return internal(err)
	}

	resp := &LibraryStatusResponse{}
	if item != nil {
		dto := toLibraryItemDTO(item)
		resp.Item = &dto
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

// getLibrary lists the caller's favorites or watchlist, most recently
// updated first. Anonymous callers get an empty list.
func (h *Handler) getLibrary(w http.ResponseWriter, r *http.Request) error {
	user := h.currentUser(r)
	if user == nil {
		writeJSON(w, http.StatusOK, &LibraryListResponse{Items: []LibraryItemDTO{}})
		return nil
	}

	flag := store.Flag(strings.TrimSpace(r.URL.Query().Get("filter")))
	if !flag.Valid() {
		return badRequest("filter must be favorite or watchlist")
	}

	items, err := h.store.ListByFlag(r.Context(), user.ID, flag)
	if err != nil {
		slog.Warn("library list failed", slog.Any("err", err))
		return internal(err)
	}

	out := make([]LibraryItemDTO, 0, len(items))
	for i := range items {
		out = append(out, toLibraryItemDTO(&items[i]))
	}
	writeJSON(w, http.StatusOK, &LibraryListResponse{Items: out})
	return nil
}

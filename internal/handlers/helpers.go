package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if payload == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("write json failed", slog.Any("err", err))
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected trailing json")
		}
		return err
	}
	return nil
}

func badRequest(msg string) error   { return &Error{Status: http.StatusBadRequest, Message: msg} }
func unauthorized(msg string) error { return &Error{Status: http.StatusUnauthorized, Message: msg} }
func forbidden(msg string) error    { return &Error{Status: http.StatusForbidden, Message: msg} }
func notFound(msg string) error     { return &Error{Status: http.StatusNotFound, Message: msg} }
func conflict(msg string) error     { return &Error{Status: http.StatusConflict, Message: msg} }
func badGateway(err error) error    { return &Error{Status: http.StatusBadGateway, Message: err.Error()} }
func internal(err error) error      { return err }

// titleRefParams reads the tmdb_id and media_type query parameters shared by
// the status and review listing endpoints.
func titleRefParams(r *http.Request) (int64, string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("tmdb_id"))
	tmdbID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || tmdbID <= 0 {
		return 0, "", badRequest("invalid tmdb_id")
	}
	mediaType := strings.TrimSpace(r.URL.Query().Get("media_type"))
	if mediaType != "movie" && mediaType != "tv" {
		return 0, "", badRequest("invalid media_type")
	}
	return tmdbID, mediaType, nil
}

func pageParam(r *http.Request) int {
	raw := strings.TrimSpace(r.URL.Query().Get("page"))
	if raw == "" {
		return 1
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return page
}

func toNullString(val string) sql.Null[string] {
	val = strings.TrimSpace(val)
	if val == "" {
		return sql.Null[string]{}
	}
	return sql.Null[string]{Valid: true, V: val}
}

func fromNullString(val sql.Null[string]) *string {
	if val.Valid {
		return &val.V
	}
	return nil
}

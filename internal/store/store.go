// Package store provides SQLite persistence for users, library items and reviews.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "modernc.org/sqlite"
)

// ErrEmailTaken is returned when registering with an email that already has an account.
var ErrEmailTaken = errors.New("store: email already registered")

type Store struct {
	sqldb *sql.DB
	db    *bun.DB
}

// Flag selects which library flag an operation targets.
type Flag string

const (
	FlagFavorite  Flag = "favorite"
	FlagWatchlist Flag = "watchlist"
)

func (f Flag) Valid() bool {
	return f == FlagFavorite || f == FlagWatchlist
}

func (f Flag) column() string {
	if f == FlagWatchlist {
		return "is_watchlist"
	}
	return "is_favorite"
}

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string           `bun:"id,pk"`
	Name         string           `bun:"name,notnull"`
	Email        string           `bun:"email,notnull,unique"`
	Image        sql.Null[string] `bun:"image,nullzero"`
	PasswordHash sql.Null[string] `bun:"password_hash,nullzero"`
	CreatedAt    int64            `bun:"created_at,notnull"`
}

// LibraryItem carries both the favorite and watchlist flags for one title;
// at most one row exists per (user_id, tmdb_id, media_type).
type LibraryItem struct {
	bun.BaseModel `bun:"table:library_items,alias:li"`

	UserID      string           `bun:"user_id,pk"`
	TMDBID      int64            `bun:"tmdb_id,pk"`
	MediaType   string           `bun:"media_type,pk"`
	Title       string           `bun:"title,notnull"`
	PosterPath  sql.Null[string] `bun:"poster_path,nullzero"`
	IsFavorite  bool             `bun:"is_favorite,notnull"`
	IsWatchlist bool             `bun:"is_watchlist,notnull"`
	UpdatedAt   int64            `bun:"updated_at,notnull"`
}

type Review struct {
	bun.BaseModel `bun:"table:reviews,alias:r"`

	ID        string           `bun:"id,pk"`
	UserID    string           `bun:"user_id,notnull"`
	UserName  string           `bun:"user_name,notnull"`
	UserImage sql.Null[string] `bun:"user_image,nullzero"`
	TMDBID    int64            `bun:"tmdb_id,notnull"`
	MediaType string           `bun:"media_type,notnull"`
	Rating    int              `bun:"rating,notnull"`
	Content   string           `bun:"content,notnull"`
	CreatedAt int64            `bun:"created_at,notnull"`
	UpdatedAt int64            `bun:"updated_at,notnull"`
}

// TitleRef identifies a catalog title.
type TitleRef struct {
	TMDBID    int64
	MediaType string
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("DB_PATH is required")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}

	sqldb, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := sqldb.PingContext(ctx); err != nil {
		if cerr := sqldb.Close(); cerr != nil {
			return nil, fmt.Errorf("ping db: %w; close failed: %w", err, cerr)
		}
		return nil, err
	}

	if err := initSchema(ctx, sqldb); err != nil {
		if cerr := sqldb.Close(); cerr != nil {
			return nil, fmt.Errorf("init schema: %w; close failed: %w", err, cerr)
		}
		return nil, err
	}

	bdb := bun.NewDB(sqldb, sqlitedialect.New())
	return &Store{sqldb: sqldb, db: bdb}, nil
}

func (s *Store) Close() error { return s.sqldb.Close() }

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	image TEXT,
	password_hash TEXT,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS library_items (
	user_id TEXT NOT NULL,
	tmdb_id INTEGER NOT NULL,
	media_type TEXT NOT NULL,
	title TEXT NOT NULL,
	poster_path TEXT,
	is_favorite INTEGER NOT NULL DEFAULT 0,
	is_watchlist INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (user_id, tmdb_id, media_type)
);
CREATE INDEX IF NOT EXISTS idx_library_user_favorite ON library_items(user_id, is_favorite);
CREATE INDEX IF NOT EXISTS idx_library_user_watchlist ON library_items(user_id, is_watchlist);
CREATE TABLE IF NOT EXISTS reviews (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	user_name TEXT NOT NULL,
	user_image TEXT,
	tmdb_id INTEGER NOT NULL,
	media_type TEXT NOT NULL,
	rating INTEGER NOT NULL CHECK (rating BETWEEN 0 AND 10),
	content TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reviews_media ON reviews(tmdb_id, media_type, created_at);
CREATE INDEX IF NOT EXISTS idx_reviews_user ON reviews(user_id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// nowMillis matches the upstream convention of millisecond unix timestamps.
func nowMillis() int64 {
	return time.Now().UTC().UnixMilli()
}

// --- Users ---

func (s *Store) CreateUser(ctx context.Context, user *User) error {
	user.ID = uuid.NewString()
	user.CreatedAt = nowMillis()

	_, err := s.db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.NewSelect().
		Model(&u).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.NewSelect().
		Model(&u).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// UpsertExternalUser creates or refreshes an account provisioned by a social
// login provider. Password-based accounts keep their password hash, and a
// login without a picture keeps the stored image.
func (s *Store) UpsertExternalUser(ctx context.Context, email, name string, image sql.Null[string]) (*User, error) {
	user := User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Image:     image,
		CreatedAt: nowMillis(),
	}

	_, err := s.db.NewInsert().
		Model(&user).
		On("CONFLICT (email) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("image = COALESCE(EXCLUDED.image, image)").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("upsert external user: %w", err)
	}
	return s.GetUserByEmail(ctx, email)
}

// --- Library ---

// ToggleFlag creates the row with the targeted flag set, or flips exactly that
// flag on the existing row. Title, poster and updated_at are refreshed either
// way. The whole operation is a single conditional upsert so that concurrent
// first toggles on the same key cannot both take the create branch.
func (s *Store) ToggleFlag(ctx context.Context, userID string, ref TitleRef, title string, posterPath sql.Null[string], flag Flag) (LibraryItem, error) {
	if !flag.Valid() {
		return LibraryItem{}, fmt.Errorf("invalid library flag %q", flag)
	}

	item := LibraryItem{
		UserID:      userID,
		TMDBID:      ref.TMDBID,
		MediaType:   ref.MediaType,
		Title:       title,
		PosterPath:  posterPath,
		IsFavorite:  flag == FlagFavorite,
		IsWatchlist: flag == FlagWatchlist,
		UpdatedAt:   nowMillis(),
	}

	col := flag.column()
	err := s.db.NewInsert().
		Model(&item).
		On("CONFLICT (user_id, tmdb_id, media_type) DO UPDATE").
		Set(col+" = NOT "+col).
		Set("title = EXCLUDED.title").
		Set("poster_path = EXCLUDED.poster_path").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("is_favorite, is_watchlist").
		Scan(ctx, &item.IsFavorite, &item.IsWatchlist)
	if err != nil {
		return LibraryItem{}, fmt.Errorf("toggle library flag: %w", err)
	}
	return item, nil
}

// GetStatus returns the caller's library row for a title, or nil if the
// caller never touched it.
func (s *Store) GetStatus(ctx context.Context, userID string, ref TitleRef) (*LibraryItem, error) {
	var item LibraryItem
	err := s.db.NewSelect().
		Model(&item).
		Where("user_id = ?", userID).
		Where("tmdb_id = ?", ref.TMDBID).
		Where("media_type = ?", ref.MediaType).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get library status: %w", err)
	}
	return &item, nil
}

// ListByFlag returns the caller's rows with the selected flag set,
// most recently updated first.
func (s *Store) ListByFlag(ctx context.Context, userID string, flag Flag) ([]LibraryItem, error) {
	if !flag.Valid() {
		return nil, fmt.Errorf("invalid library flag %q", flag)
	}

	out := []LibraryItem{}
	err := s.db.NewSelect().
		Model(&out).
		Where("user_id = ?", userID).
		Where(flag.column() + " = 1").
		OrderExpr("updated_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}
	return out, nil
}

// --- Reviews ---

const (
	MaxReviewRating  = 10
	MaxReviewContent = 1000
	reviewPageSize   = 20
)

// CreateReview inserts a review snapshotting the author's current name and
// image. Bounds are re-checked here so a bad write can never slip past
// handler validation.
func (s *Store) CreateReview(ctx context.Context, review *Review) error {
	if review.Rating < 0 || review.Rating > MaxReviewRating {
		return fmt.Errorf("rating %d out of range", review.Rating)
	}
	if len([]rune(review.Content)) > MaxReviewContent {
		return errors.New("review content too long")
	}

	review.ID = uuid.NewString()
	now := nowMillis()
	review.CreatedAt = now
	review.UpdatedAt = now

	if _, err := s.db.NewInsert().Model(review).Exec(ctx); err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// ListReviews returns up to 20 reviews for a title, newest first. Public.
func (s *Store) ListReviews(ctx context.Context, ref TitleRef) ([]Review, error) {
	out := []Review{}
	err := s.db.NewSelect().
		Model(&out).
		Where("tmdb_id = ?", ref.TMDBID).
		Where("media_type = ?", ref.MediaType).
		OrderExpr("created_at DESC").
		Limit(reviewPageSize).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return out, nil
}

func (s *Store) GetReview(ctx context.Context, id string) (*Review, error) {
	var review Review
	err := s.db.NewSelect().
		Model(&review).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &review, nil
}

func (s *Store) DeleteReview(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().
		Model((*Review)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return expectRowsAffected(res)
}

func expectRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

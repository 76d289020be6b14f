package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"

	"github.com/handsomefox/screenbase/internal/auth"
	"github.com/handsomefox/screenbase/internal/env"
	"github.com/handsomefox/screenbase/internal/handlers"
	"github.com/handsomefox/screenbase/internal/logger"
	"github.com/handsomefox/screenbase/internal/store"
	"github.com/handsomefox/screenbase/internal/tmdb"

	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultPort      = "8080"
	defaultImageBase = "https://image.tmdb.org/t/p/w500"
	defaultSiteURL   = "http://localhost:3000"
	sessionTTL       = 30 * 24 * time.Hour
)

func main() {
	slog.SetDefault(logger.New(slog.LevelDebug))
	if err := run(); err != nil {
		fmt.Println("Error:", err.Error())
		os.Exit(1)
	}
}

func run() error {
	dbPath := env.Or("DB_PATH", "./data/screenbase.db")
	tmdbToken := os.Getenv("TMDB_API_TOKEN")
	sessionSecret := os.Getenv("SESSION_SECRET")
	if tmdbToken == "" {
		return errors.New("TMDB_API_TOKEN is required")
	}

	sessions, err := auth.NewSessions(sessionSecret, sessionTTL)
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("Failed to close DB", logger.Error(err))
		}
	}()

	app, err := handlers.New(&handlers.Config{
		Store:     st,
		TMDB:      tmdb.New(tmdbToken),
		Sessions:  sessions,
		Google:    auth.NewGoogleVerifier(os.Getenv("GOOGLE_CLIENT_ID")),
		ImageBase: env.Or("TMDB_IMAGE_BASE", defaultImageBase),
	})
	if err != nil {
		return fmt.Errorf("failed to init handlers: %w", err)
	}

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(slog.Default(), &httplog.Options{
		Level:         slog.LevelInfo,
		RecoverPanics: true,
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{env.Or("SITE_URL", defaultSiteURL)},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))
	app.RegisterRoutes(r)

	addr := ":" + env.Or("PORT", defaultPort)
	log.Printf("listening on %s", addr)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

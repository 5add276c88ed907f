// Command notesapi runs a local stand-in for the remote notes API, backed by
// MongoDB or by memory.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notehub/internal/config"
	"notehub/internal/db"
	"notehub/internal/notes"
	"notehub/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := obs.NewLogger(os.Stdout, level, cfg.LogFormat)

	var store notes.Store
	switch cfg.NotesAPIStore {
	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		logger.Info("connecting to MongoDB", "uri", cfg.MongoURI)
		database, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatalf("failed to connect to MongoDB: %v", err)
		}
		defer db.Disconnect(context.Background(), database)
		logger.Info("connected to MongoDB", "database", cfg.MongoDatabase)

		repo := notes.NewRepo(database)
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Warn("failed to ensure indexes", "error", err)
		}
		store = repo
	default:
		logger.Info("using in-memory note store")
		store = notes.NewMemoryStore()
	}

	api := http.NewServeMux()
	notes.NewHandler(notes.NewService(store), obs.Pkg(logger, "notes"), cfg.APIToken).Register(api)

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", api))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.NotesAPIPort,
		Handler:      obs.Middleware(logger, mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down notes API...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("notes API starting", "port", cfg.NotesAPIPort, "store", cfg.NotesAPIStore,
		"base_url", "http://localhost:"+cfg.NotesAPIPort+"/api")

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}

	logger.Info("notes API stopped")
}

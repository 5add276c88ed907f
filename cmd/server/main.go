package main

import (
	"context"
	"embed"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"notehub/internal/config"
	"notehub/internal/live"
	mcpserver "notehub/internal/mcp"
	"notehub/internal/notehub"
	"notehub/internal/obs"
	"notehub/internal/query"
	"notehub/internal/web"
)

//go:embed static
var staticFS embed.FS

func main() {
	// Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Logger
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := obs.NewLogger(os.Stdout, level, cfg.LogFormat)

	// Notes API client
	api, err := notehub.New(notehub.Config{
		BaseURL:   cfg.APIBaseURL,
		Token:     cfg.APIToken,
		Timeout:   cfg.APITimeout,
		RateLimit: cfg.APIRateLimit,
		Burst:     cfg.APIRateBurst,
	})
	if err != nil {
		log.Fatalf("failed to create notes API client: %v", err)
	}
	if cfg.APIToken == "" {
		logger.Warn("NOTEHUB_TOKEN is empty; requests are sent unauthenticated")
	}

	// Shared query cache
	cache := query.NewClient(query.Options{
		StaleTime: cfg.QueryStaleTime,
		GCTime:    cfg.QueryGCTime,
		Logger:    obs.Pkg(logger, "query"),
	})

	// Wire dependencies
	webHandler := web.NewHandler(api, cache, obs.Pkg(logger, "web"), web.Options{
		PerPage:   cfg.NotesPerPage,
		Debounce:  cfg.SearchDebounce,
		StaleTime: cfg.QueryStaleTime,
		Live:      true,
	})
	liveHandler := live.NewHandler(cache, api, obs.Pkg(logger, "live"), live.Options{
		PerPage:  cfg.NotesPerPage,
		Debounce: cfg.SearchDebounce,
	})
	mcpSrv := mcpserver.NewServer(api, cache, obs.Pkg(logger, "mcp"), cfg.NotesPerPage)

	// HTTP router
	mux := http.NewServeMux()

	// Static files
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("failed to get static fs: %v", err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))

	// HTMX web UI and live list sessions
	webHandler.Register(mux)
	liveHandler.Register(mux)

	// MCP endpoint (HTTP transport)
	// MCP uses POST for requests and GET for SSE streams
	mcpHTTP := server.NewStreamableHTTPServer(mcpSrv)
	mux.Handle("POST /mcp", mcpHTTP)
	mux.Handle("GET /mcp", mcpHTTP)
	mux.Handle("DELETE /mcp", mcpHTTP)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Start server
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     obs.Middleware(logger, mux),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: live sessions hold their connection open.
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("server starting", "port", cfg.Port, "notes_api", cfg.APIBaseURL)
	logger.Info("endpoints available",
		"web", "http://localhost:"+cfg.Port,
		"mcp", "http://localhost:"+cfg.Port+"/mcp",
	)

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}

	logger.Info("server stopped")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/renovation-mindmap/internal/ai"
	"github.com/01moynul/renovation-mindmap/internal/auth"
	"github.com/01moynul/renovation-mindmap/internal/config"
	"github.com/01moynul/renovation-mindmap/internal/database"
	"github.com/01moynul/renovation-mindmap/internal/docs"
	"github.com/01moynul/renovation-mindmap/internal/handlers"
	"github.com/01moynul/renovation-mindmap/internal/logger"
	"github.com/01moynul/renovation-mindmap/internal/mindmap"
	"github.com/01moynul/renovation-mindmap/internal/routes"
	"github.com/01moynul/renovation-mindmap/internal/store"
)

func main() {
	// 0. --- Load Configuration (.env + environment) ---
	cfg, envLoaded, err := config.Load()
	if err != nil {
		// The logger needs the config, so this one goes to stderr.
		os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()
	if !envLoaded {
		log.Warn("Could not find or load .env file. Relying on system environment variables.")
	}
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. --- Database Connection ---
	if cfg.DBDSN == "" {
		// CSV mode without a database: users live in memory for this process.
		log.Warn("DB_DSN not set, using in-memory sqlite for users")
		cfg.DBDriver, cfg.DBDSN = "sqlite3", ":memory:"
	}
	db, err := database.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal("Failed to connect to database", "driver", cfg.DBDriver, "error", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		log.Fatal("Failed to migrate database", "error", err)
	}

	// 2. --- AI Service Initialization (optional) ---
	var explainer handlers.Explainer
	if cfg.AIEnabled() {
		aiService, err := ai.NewAIService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
		if err != nil {
			log.Fatal("Failed to initialize AI Service", "error", err)
		}
		defer aiService.Close()
		explainer = aiService
	} else {
		log.Info("GEMINI_API_KEY not set, explain endpoint disabled")
	}

	// --- Application Setup ---
	app := &handlers.Handlers{
		Config:  cfg,
		Log:     log.With("component", "http"),
		Builder: mindmap.NewBuilder(log),
		Nodes:   store.NewNodeStore(db),
		Users:   store.NewUserStore(db),
		Tokens:  auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Docs:    docs.NewLibrary(cfg.DocsDir),
		AI:      explainer,
	}

	// --- Router Setup ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.SetupRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Start Server ---
	go func() {
		log.Info("Starting mind map API server", "port", cfg.Port, "source", cfg.DataSource)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz-client/internal/api"
	"github.com/stemsi/exstem-quiz-client/internal/config"
	"github.com/stemsi/exstem-quiz-client/internal/database"
	"github.com/stemsi/exstem-quiz-client/internal/handler"
	"github.com/stemsi/exstem-quiz-client/internal/logger"
	"github.com/stemsi/exstem-quiz-client/internal/router"
	"github.com/stemsi/exstem-quiz-client/internal/service"
	"github.com/stemsi/exstem-quiz-client/internal/store"
	"github.com/stemsi/exstem-quiz-client/internal/terminal"
	"github.com/stemsi/exstem-quiz-client/internal/validator"
	ws "github.com/stemsi/exstem-quiz-client/internal/websocket"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	log.Info().
		Str("base_url", cfg.BaseURL).
		Str("frontend", cfg.Frontend).
		Str("store", cfg.StoreBackend).
		Str("reload_mode", string(cfg.ReloadMode)).
		Msg("Starting quiz client")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─── Answer Store ──────────────────────────────────────────────────
	answers, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open answer store")
	}
	defer closeStore()

	// ─── Quiz Server Client ────────────────────────────────────────────
	apiClient, err := api.NewClient(cfg.BaseURL, cfg.RequestTimeout, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create quiz server client")
	}

	opts := service.Options{ReloadMode: cfg.ReloadMode, PassPercent: cfg.PassPercent}

	if cfg.Frontend == config.FrontendTerminal {
		client := service.NewQuizClient(apiClient, answers, nil, opts, log)
		if err := terminal.New(client, os.Stdin, os.Stdout, log).Run(ctx); err != nil {
			log.Error().Err(err).Msg("Terminal input error")
		}
		return
	}

	runWeb(ctx, cfg, apiClient, answers, opts, log)
}

func runWeb(ctx context.Context, cfg *config.Config, apiClient *api.Client, answers store.AnswerStore, opts service.Options, log zerolog.Logger) {
	validator.Setup()

	hub := ws.NewHub(log)
	client := service.NewQuizClient(apiClient, answers, hub, opts, log)

	// First load, as when the page opens. A failure stays visible on the page.
	if err := client.LoadQuestions(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial question load failed")
	}

	handlers := &router.Handlers{
		Page: handler.NewPageHandler(client, log),
		Quiz: handler.NewQuizHandler(client, log),
		WS:   handler.NewWSHandler(client, hub, log, cfg.AllowedOrigins),
	}
	r := router.SetupRouter(handlers, cfg, log)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Quiz page listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.AnswerStore, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreRedis:
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedisStore(rdb, cfg.StoreTTL, log), func() { rdb.Close() }, nil
	case config.StoreMemory:
		return store.NewMemoryStore(), func() {}, nil
	default:
		fileStore, err := store.NewFileStore(cfg.StoreDir, log)
		if err != nil {
			return nil, nil, err
		}
		return fileStore, func() {}, nil
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

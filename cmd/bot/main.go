// Command bot runs the What? Where? When? trivia host: it long-polls the VK
// Bots API for chat events, drives the per-chat game state machine, and
// serves the admin HTTP API for question curation and game inspection.
//
// Configuration comes from the environment (a local .env file is honored in
// development). The process shuts down gracefully on SIGINT/SIGTERM: the
// poller stops first, in-flight commands drain, then the HTTP server closes.
package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quizhub/go-trivia-bot/docs"
	"github.com/quizhub/go-trivia-bot/internal/bot"
	"github.com/quizhub/go-trivia-bot/internal/config"
	"github.com/quizhub/go-trivia-bot/internal/game"
	httpapi "github.com/quizhub/go-trivia-bot/internal/http"
	"github.com/quizhub/go-trivia-bot/internal/observability"
	"github.com/quizhub/go-trivia-bot/internal/repo"
	"github.com/quizhub/go-trivia-bot/internal/sysutil"
	"github.com/quizhub/go-trivia-bot/internal/vk"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// @title        Trivia Bot Admin API
// @version      1.0
// @description  Question bank curation and game inspection for the VK trivia bot.
// @BasePath     /api/v1
func main() {
	// Local development convenience; missing .env is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	logger := log.With().Str("service", cfg.OTEL.ServiceName).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		logger.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			logger.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate database failed")
	}

	client := vk.NewClient(cfg.VK.Token, cfg.VK.GroupID, cfg.VK.SendRPS, logger)

	engine := game.NewEngine(repo.NewGameStore(db), rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	engine.Profiles = client
	engine.AnswerWindow = cfg.Game.AnswerWindow
	engine.WinScore = cfg.Game.WinScore

	processor := bot.NewProcessor(engine, client, client.BotMemberID(), logger)

	poller := vk.NewPoller(client, processor.HandleEvents, logger)
	poller.Wait = int(cfg.VK.PollWait.Seconds())

	pollDone := make(chan error, 1)
	go func() { pollDone <- poller.Run(ctx) }()

	// Admin HTTP API.
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	httpapi.RegisterRoutes(router, db, cfg)
	docs.SwaggerInfo.Version = version

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("admin api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("admin api server failed")
			stop()
		}
	}()

	logger.Info().Int64("group_id", cfg.VK.GroupID).Msg("bot started")
	<-ctx.Done()
	logger.Info().Msg("shutting down")

	// Poller exits on context cancellation; then drain per-chat queues.
	if err := <-pollDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn().Err(err).Msg("poller stopped with error")
	}
	processor.Close()

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warn().Err(err).Msg("admin api shutdown failed")
	}
	logger.Info().Msg("bye")
}

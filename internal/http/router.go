// Package httpapi wires the admin HTTP transport (Gin) to application
// services, middleware, and route handlers. It centralizes cross-cutting
// concerns such as tracing, correlation IDs, logging/redaction, panic
// recovery, metrics, CORS, security headers, idempotency, and rate limiting.
//
// The admin API is an operator surface for curating the question bank and
// inspecting played games; the game itself runs over the VK transport and
// never passes through this router.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/quizhub/go-trivia-bot/internal/config"
	"github.com/quizhub/go-trivia-bot/internal/domain"
	"github.com/quizhub/go-trivia-bot/internal/http/handlers"
	"github.com/quizhub/go-trivia-bot/internal/http/middleware"
	"github.com/quizhub/go-trivia-bot/internal/repo"
	"github.com/quizhub/go-trivia-bot/internal/services"
)

// questionRepoShim adapts the repository free functions to the
// services.QuestionRepo interface expected by QuestionService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type questionRepoShim struct{}

// CreateQuestion proxies repo.CreateQuestion.
func (questionRepoShim) CreateQuestion(ctx context.Context, db *gorm.DB, title, answerDescription string, answers []string, authorID *uint, approved bool) (*domain.Question, error) {
	return repo.CreateQuestion(ctx, db, title, answerDescription, answers, authorID, approved)
}

// GetQuestion proxies repo.GetQuestion.
func (questionRepoShim) GetQuestion(ctx context.Context, db *gorm.DB, id uint) (*domain.Question, error) {
	return repo.GetQuestion(ctx, db, id)
}

// GetQuestionByTitle proxies repo.GetQuestionByTitle (duplicate guard).
func (questionRepoShim) GetQuestionByTitle(ctx context.Context, db *gorm.DB, title string) (*domain.Question, error) {
	return repo.GetQuestionByTitle(ctx, db, title)
}

// CountQuestions proxies repo.CountQuestions (pagination support).
func (questionRepoShim) CountQuestions(ctx context.Context, db *gorm.DB, approved *bool) (int64, error) {
	return repo.CountQuestions(ctx, db, approved)
}

// ListQuestionsPage proxies repo.ListQuestionsPage (pagination support).
func (questionRepoShim) ListQuestionsPage(ctx context.Context, db *gorm.DB, approved *bool, offset, limit int) ([]domain.Question, error) {
	return repo.ListQuestionsPage(ctx, db, approved, offset, limit)
}

// ApproveQuestion proxies repo.ApproveQuestion.
func (questionRepoShim) ApproveQuestion(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.ApproveQuestion(ctx, db, id)
}

// DeleteQuestion proxies repo.DeleteQuestion.
func (questionRepoShim) DeleteQuestion(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.DeleteQuestion(ctx, db, id)
}

// gameQueryRepoShim adapts the repository free functions to the
// services.GameQueryRepo interface.
type gameQueryRepoShim struct{}

// CountGames proxies repo.CountGames.
func (gameQueryRepoShim) CountGames(ctx context.Context, db *gorm.DB, f repo.GameFilter) (int64, error) {
	return repo.CountGames(ctx, db, f)
}

// ListGamesPage proxies repo.ListGamesPage.
func (gameQueryRepoShim) ListGamesPage(ctx context.Context, db *gorm.DB, f repo.GameFilter, offset, limit int) ([]domain.Game, error) {
	return repo.ListGamesPage(ctx, db, f, offset, limit)
}

// CountUsers proxies repo.CountUsers.
func (gameQueryRepoShim) CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountUsers(ctx, db)
}

// ListUsersPage proxies repo.ListUsersPage.
func (gameQueryRepoShim) ListUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error) {
	return repo.ListUsersPage(ctx, db, offset, limit)
}

// CountChats proxies repo.CountChats.
func (gameQueryRepoShim) CountChats(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountChats(ctx, db)
}

// ListChatsPage proxies repo.ListChatsPage.
func (gameQueryRepoShim) ListChatsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Chat, error) {
	return repo.ListChatsPage(ctx, db, offset, limit)
}

// GameStats proxies repo.GameStats.
func (gameQueryRepoShim) GameStats(ctx context.Context, db *gorm.DB) (*repo.Stats, error) {
	return repo.GameStats(ctx, db)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and
// rate limiting, CORS and security headers, health and metrics endpoints,
// and then mounts the versioned admin API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with credential scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter + gzip
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per client/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction (X-Admin-Token is masked by default)
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, clientID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, clientID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per client/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderClientID, middleware.HeaderAdminToken, middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderClientID, middleware.HeaderAdminToken, middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in; the generated spec lives in the docs package)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	questionSvc := services.NewQuestionService(db, questionRepoShim{})
	gameSvc := &services.GameQueryService{DB: db, Repo: gameQueryRepoShim{}}
	h := handlers.New(questionSvc, gameSvc)

	// Admin API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	api.Use(middleware.AdminToken(cfg.AdminToken))
	{
		// Questions
		api.POST("/questions", h.SubmitQuestion)
		api.GET("/questions", h.ListQuestions)
		api.GET("/questions/:id", h.GetQuestion)
		api.POST("/questions/:id/approve", h.ApproveQuestion)
		api.DELETE("/questions/:id", h.DeleteQuestion)

		// Games and participants
		api.GET("/games", h.ListGames)
		api.GET("/users", h.ListUsers)
		api.GET("/chats", h.ListChats)
		api.GET("/stats", h.GetStats)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

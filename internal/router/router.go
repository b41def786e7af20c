package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz-client/internal/config"
	"github.com/stemsi/exstem-quiz-client/internal/handler"
	"github.com/stemsi/exstem-quiz-client/internal/middleware"
	"github.com/stemsi/exstem-quiz-client/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Page *handler.PageHandler
	Quiz *handler.QuizHandler
	WS   *handler.WSHandler
}

// SetupRouter configures the page, JSON API and websocket routes.
func SetupRouter(handlers *Handlers, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*).
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))

	router.SetHTMLTemplate(handler.PageTemplate())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Page ───────────────────────────────────────────────────────
	page := router.Group("/")
	page.Use(middleware.NoStore(), middleware.Brotli())
	{
		page.GET("/", handlers.Page.Index)
		page.POST("/select", handlers.Page.Select)
		page.POST("/submit", handlers.Page.Submit)
		page.POST("/reload", handlers.Page.Reload)
	}

	// ─── 2. JSON API ───────────────────────────────────────────────────
	quizAPI := router.Group("/api/v1/quiz")
	quizAPI.Use(middleware.NoStore(), middleware.Brotli())
	{
		quizAPI.GET("", handlers.Quiz.GetView)
		quizAPI.POST("/load", handlers.Quiz.LoadQuestions)
		quizAPI.POST("/answers", handlers.Quiz.SelectOption)
		quizAPI.POST("/submit", handlers.Quiz.Submit)
		quizAPI.POST("/reload", handlers.Quiz.Reload)
	}

	// ─── 3. WebSocket ──────────────────────────────────────────────────
	// Outside the compressed groups: the upgrade needs the raw connection.
	router.GET("/ws/v1/quiz/stream", handlers.WS.QuizStream)

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	return router
}

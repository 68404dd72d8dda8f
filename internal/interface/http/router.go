package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/edusolve/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.SetHTMLTemplate(pageTemplates())
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		errorHandlingMiddleware(handler.logger),
		corsMiddleware(cfg.HTTP.CORSOrigins),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/healthz", handler.Health)

	router.GET("/", handler.Index)
	router.GET("/signup", handler.SignUpPage)
	router.POST("/signup", handler.SignUp)
	router.GET("/login", handler.LoginPage)
	router.POST("/login", handler.Login)
	router.GET("/change-password", handler.ChangePasswordPage)
	router.POST("/change-password", handler.ChangePassword)
	router.GET("/logout", handler.Logout)
	router.POST("/logout", handler.Logout)

	api := router.Group("/", identityMiddleware(handler.auth, cfg.Auth.RequireIdentity, cfg.Auth.CookieName, handler.logger))
	{
		api.POST("/generate", handler.Generate)
		api.POST("/upload-pdf", handler.UploadPDF)
		api.POST("/upload-docx", handler.UploadDOCX)
		api.POST("/analyze-selection", handler.AnalyzeSelection)
		api.GET("/history/:session_id", handler.History)
		api.GET("/sessions", handler.Sessions)
		api.POST("/get-suggestions", handler.Suggestions)
		api.GET("/usage/:user_id", handler.Usage)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}

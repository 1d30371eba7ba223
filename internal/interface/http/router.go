package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/phytocast/internal/infra/config"
)

// NewRouter builds the gin engine for the forecast and prediction API and
// wraps it in an http.Server using the configured timeouts.
func NewRouter(cfg *config.Config, handler *Handler, sessions SessionManager) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		requestLogger(handler.logger),
		errorHandlingMiddleware(handler.logger),
	)
	engine.GET("/healthz", handler.Health)

	v1 := engine.Group("/api/v1",
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
		sessionMiddleware(sessions, cfg.Session.CookieName, handler.logger),
	)
	v1.GET("/forecast", handler.ViewForecast)

	predictions := v1.Group("/predictions")
	predictions.POST("", handler.Predict)
	predictions.POST("/form", handler.PredictForm)
	predictions.GET("/history", handler.History)
	predictions.POST("/exports", handler.Export)

	return &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           engine,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		MaxHeaderBytes:    1 << 20,
	}
}

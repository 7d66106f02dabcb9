package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"RegionAccess-App/internal/metrics"
)

// NewRouter ルーティングを設定したエンジンを作成
func NewRouter(regions *RegionAccessHandler, infra *InfrastructureHandler, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), metrics.Middleware(), requestLogger(logger))

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	api.GET("/health", regions.Health)
	api.POST("/regions/check", regions.Check)

	users := api.Group("/users/:user_id")
	users.GET("/regions", regions.Status)
	users.GET("/regions/bounds", regions.Bounds)
	users.POST("/regions/reload", regions.Reload)
	users.DELETE("/session", regions.Release)

	users.POST("/infrastructure", infra.Create)
	users.GET("/infrastructure", infra.List)
	users.POST("/infrastructure/import", infra.Import)
	users.PUT("/infrastructure/:id", infra.Update)
	users.DELETE("/infrastructure/:id", infra.Delete)

	return r
}

// requestLogger リクエストごとにアクセスログを出力
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// Package server assembles the gin engine and runs the HTTP server.
package server

import (
	"net/http"
	"time"

	"github.com/CorrelAid/order_mailer/config"
	"github.com/CorrelAid/order_mailer/handlers"
	"github.com/CorrelAid/order_mailer/metrics"
	"github.com/CorrelAid/order_mailer/middleware"
	"github.com/CorrelAid/order_mailer/models"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-memdb"
	"go.uber.org/zap"
)

// NewRouter builds the engine serving the submission endpoint. Any method
// other than POST and OPTIONS on the submission path gets a 405.
func NewRouter(cfg config.Config, deliverer handlers.Deliverer, ledger *memdb.MemDB, logger *zap.Logger) *gin.Engine {
	log := logger.Sugar()

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		ginzap.Ginzap(logger, time.RFC3339, true),
		ginzap.RecoveryWithZap(logger, true),
		middleware.RequestLogger(log),
		middleware.CORSMiddleware(cfg.AllowedOrigins),
	)

	submit := handlers.NewSubmitHandler(cfg, deliverer, ledger, log)
	router.POST(cfg.SubmitPath, middleware.RateLimitMiddleware(cfg.RateLimitPerMinute, cfg.RateLimitIPLookups), submit.Submit)
	router.OPTIONS(cfg.SubmitPath, submit.Preflight)
	router.NoMethod(submit.MethodNotAllowed)

	router.GET("/healthz", handlers.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.APIError{Error: "Not found", Code: "NOT_FOUND"})
	})
	return router
}

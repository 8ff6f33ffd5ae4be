package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/float_backend/config"
	"github.com/mmdatafocus/float_backend/middlewares"
	"github.com/mmdatafocus/float_backend/models"
	"github.com/mmdatafocus/float_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func init() {
	// money goes over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

func correlationIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Header("x-correlation-id", cid)
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	}
}

// readinessGate answers 503 until the database (and redis, when configured)
// is connected. The health probe always passes.
func readinessGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil || (config.RedisEnabled() && config.GetRedisDB() == nil) {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	// production requires an explicit allowlist; an empty one denies all
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if config.IsProduction() {
		corsConfig.AllowOrigins = utils.SplitAndTrim(allowedOrigins)
		if len(corsConfig.AllowOrigins) == 0 {
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length", "x-correlation-id")
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	return cors.New(corsConfig)
}

func setupRouter(logger *logrus.Logger) *gin.Engine {
	utils.RegisterJSONFieldNames()

	r := gin.New()
	r.Use(correlationIdMiddleware())
	r.Use(readinessGate())
	r.Use(corsMiddleware())
	if rl := middlewares.RateLimiterFromEnv(); rl != nil {
		r.Use(rl.Middleware())
	}
	r.Use(middlewares.LoaderMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	api := r.Group("/api/v1")
	api.POST("/auth/login", loginHandler())

	authed := api.Group("")
	authed.Use(middlewares.AuthMiddleware())
	authed.GET("/me", meHandler())
	authed.POST("/shops", createShopHandler())
	authed.GET("/shops", listShopsHandler())
	authed.GET("/transactions/types", transactionTypesHandler())
	authed.GET("/transactions/:transaction_id", getTransactionHandler())
	authed.PUT("/transactions/:transaction_id", updateTransactionHandler())
	authed.DELETE("/transactions/:transaction_id", deleteTransactionHandler())
	authed.GET("/float-movements/:movement_id", getFloatMovementHandler())
	authed.PUT("/float-movements/:movement_id", updateFloatMovementHandler())
	authed.DELETE("/float-movements/:movement_id", deleteFloatMovementHandler())
	authed.PUT("/providers/:provider_id", updateProviderHandler())
	authed.DELETE("/providers/:provider_id", deleteProviderHandler())
	authed.GET("/super-agents/:super_agent_id", getSuperAgentHandler())
	authed.PUT("/super-agents/:super_agent_id", updateSuperAgentHandler())
	authed.DELETE("/super-agents/:super_agent_id", deleteSuperAgentHandler())

	shop := authed.Group("/shops/:shop_id")
	shop.Use(middlewares.ShopScopeMiddleware())
	shop.GET("", getShopHandler())
	shop.PUT("", updateShopHandler())
	shop.POST("/cashiers", addCashierHandler())
	shop.DELETE("/cashiers/:user_id", removeCashierHandler())
	shop.POST("/cashiers/:user_id/toggle-status", toggleCashierStatusHandler())
	shop.POST("/providers", createProviderHandler())
	shop.GET("/providers", listProvidersHandler())
	shop.POST("/super-agents", createSuperAgentHandler())
	shop.GET("/super-agents", listSuperAgentsHandler())
	shop.POST("/transactions", createTransactionHandler())
	shop.POST("/float-movements/top-up", createFloatMovementHandler(models.FloatOperationTopUp))
	shop.POST("/float-movements/withdraw", createFloatMovementHandler(models.FloatOperationWithdraw))
	shop.GET("/balances", balanceSummaryHandler())
	shop.GET("/balances/cash", getCashBalanceHandler())
	shop.PUT("/balances/cash", setOpeningBalanceHandler())
	shop.POST("/balances/cash/adjust", adjustCashHandler())
	shop.GET("/balances/cash/adjustments", listCashAdjustmentsHandler())
	shop.GET("/balances/reconcile", reconcileHandler(false))
	shop.POST("/balances/rebuild", reconcileHandler(true))
	shop.POST("/receipts", uploadReceiptHandler())

	r.NoRoute(customNotFoundHandler)
	return r
}

func customNotFoundHandler(c *gin.Context) {
	utils.RespondError(c, utils.NewNotFound("Route"))
}

// customErrorLogger logs only requests that recorded errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
			logger.WithFields(logrus.Fields{
				"path":           c.FullPath(),
				"method":         c.Request.Method,
				"status":         c.Writer.Status(),
				"correlation_id": cid,
			}).Error(c.Errors.String())
		}
	}
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// listen first; the readiness gate answers 503 until dependencies connect
	r := setupRouter(logger)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can hold table locks; large deployments run it as a job
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		if err := models.MigrateTable(db); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Fatal(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info":                "Connection Established",
		"mutation_authority":  config.MutationAuthority(),
		"redis_enabled":       config.RedisEnabled(),
		"receipts_configured": utils.GCSConfigured(),
	}).Info("listening on port ", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

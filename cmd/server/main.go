package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appapproval "github.com/procura/backoffice/internal/application/approval"
	appledger "github.com/procura/backoffice/internal/application/ledger"
	"github.com/procura/backoffice/internal/domain/ledger"
	"github.com/procura/backoffice/internal/infrastructure/cache"
	"github.com/procura/backoffice/internal/infrastructure/config"
	"github.com/procura/backoffice/internal/infrastructure/event"
	"github.com/procura/backoffice/internal/infrastructure/logger"
	"github.com/procura/backoffice/internal/infrastructure/persistence"
	"github.com/procura/backoffice/internal/interfaces/http/handler"
	"github.com/procura/backoffice/internal/interfaces/http/middleware"
	"github.com/procura/backoffice/internal/interfaces/http/router"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting service",
		zap.String("name", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	// Development convenience; production schemas are managed by cmd/migrate.
	if cfg.App.Env != "production" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to run auto-migration", zap.Error(err))
		}
	}

	// Repositories and transaction scopes
	entryRepo := persistence.NewGormLedgerEntryRepository(db.DB)
	stepRepo := persistence.NewGormApprovalStepRepository(db.DB)
	ledgerScope := persistence.NewGormLedgerTransactionScope(db.DB)
	approvalScope := persistence.NewGormApprovalTransactionScope(db.DB)

	// Event bus with the approval notification handler
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.NewApprovalNotificationHandler(log))
	if err := bus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Unseen-counter cache for inbox badges
	var unseenStore appapproval.UnseenCounterStore
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisUnseenCounterStore(&cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			_ = redisStore.Close()
		}()
		unseenStore = redisStore
		log.Info("Unseen counters backed by Redis", zap.String("addr", cfg.Redis.Addr()))
	} else {
		unseenStore = cache.NewInMemoryUnseenCounterStore()
	}

	// Ledger read side
	valuation := ledger.NewValuationEngine(entryRepo)
	stockService := appledger.NewStockQueryService(valuation)

	// Approval engine. Permission policy evaluation lives in the gateway, so
	// the in-process authorizer grants everything.
	engine := appapproval.NewEngine(stepRepo, approvalScope, appapproval.AllowAllAuthorizer{}, log)
	engine.SetEventPublisher(bus)
	engine.SetUnseenCounterStore(unseenStore)

	stockHandler := handler.NewStockHandler(stockService)
	approvalHandler := handler.NewApprovalHandler(engine)
	ledgerHandler := handler.NewLedgerHandler(ledgerScope, bus, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	ginEngine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := ginEngine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	ginEngine.Use(middleware.RequestID())
	ginEngine.Use(logger.Recovery(log))
	ginEngine.Use(logger.GinMiddleware(log))

	ginEngine.GET("/health", healthHandler(db))

	r := router.NewRouter(ginEngine, router.WithAPIVersion("v1"))

	stockRoutes := router.NewDomainGroup("stock", "/stock")
	stockRoutes.GET("/:product_id/movements", stockHandler.MovementReport)
	stockRoutes.GET("/:product_id/on-hand", stockHandler.StockOnHand)
	stockRoutes.GET("/:product_id/avg-price", stockHandler.AvgPrice)
	r.Register(stockRoutes)

	ledgerRoutes := router.NewDomainGroup("ledger", "/ledger")
	ledgerRoutes.POST("/items", ledgerHandler.CreateItem)
	ledgerRoutes.PUT("/items/:item_id", ledgerHandler.UpdateItem)
	ledgerRoutes.DELETE("/items/:item_id", ledgerHandler.DeleteItem)
	ledgerRoutes.POST("/items/:item_id/restore", ledgerHandler.RestoreItem)
	r.Register(ledgerRoutes)

	approvalRoutes := router.NewDomainGroup("approval", "/approvals")
	approvalRoutes.POST("", approvalHandler.CreateChain)
	approvalRoutes.POST("/resubmit", approvalHandler.Resubmit)
	approvalRoutes.GET("/inbox", approvalHandler.Inbox)
	approvalRoutes.GET("/:kind/:id/can-act", approvalHandler.CanAct)
	approvalRoutes.POST("/:kind/:id/actions", approvalHandler.SubmitAction)
	approvalRoutes.GET("/:kind/:id/steps", approvalHandler.Steps)
	approvalRoutes.POST("/steps/:step_id/reassign", approvalHandler.Reassign)
	approvalRoutes.POST("/steps/:step_id/seen", approvalHandler.MarkSeen)
	r.Register(approvalRoutes)

	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        ginEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if err := bus.Stop(ctx); err != nil {
		log.Error("Failed to stop event bus", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// gormLogLevel maps the application log level onto GORM's logger levels.
// SQL statement logging only turns on at debug.
func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "warn", "error":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}

// healthHandler reports liveness of the service and its database
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}

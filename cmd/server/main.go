package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/batsuburgeru/we-support-wms-backend/internal/config"
	"github.com/batsuburgeru/we-support-wms-backend/internal/middleware"
	"github.com/batsuburgeru/we-support-wms-backend/internal/shared/sap"
	"github.com/batsuburgeru/we-support-wms-backend/internal/shared/storage"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/entity"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/handler"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/repository"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/service"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting we-support-wms service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := migrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}
	seedRolePermissions(db, zapLogger)
	zapLogger.Info("Database migration completed")

	rdb := initRedis(cfg.Redis)

	var store *storage.MinioStorage
	if cfg.MinIO.Endpoint != "" {
		store, err = storage.NewMinioStorage(cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.Bucket, cfg.MinIO.UseSSL)
		if err != nil {
			zapLogger.Warn("MinIO unavailable, image uploads disabled", zap.Error(err))
			store = nil
		} else if err := store.EnsureBucket(context.Background()); err != nil {
			zapLogger.Warn("Failed to ensure MinIO bucket", zap.Error(err))
		}
	}

	sapClient := initSAPClient(cfg.SAP, zapLogger)

	repos := repository.NewRepositories(db)
	authSvc := service.NewAuthService(repos.User, rdb, cfg, zapLogger)
	notificationSvc := service.NewNotificationService(repos.Notification, repos.User, zapLogger)
	requestSvc := service.NewRequestService(db, repos, notificationSvc, zapLogger)
	statusSvc := service.NewStatusService(db, requestSvc, notificationSvc, zapLogger)
	syncSvc := service.NewSyncService(db, repos, sapClient, zapLogger)
	catalogSvc := service.NewCatalogService(repos.Product, store)

	handlers := handler.NewHandlers(authSvc, requestSvc, statusSvc, syncSvc, notificationSvc, catalogSvc)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, authSvc, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entity.User{},
		&entity.RolePermission{},
		&entity.Category{},
		&entity.Product{},
		&entity.StockTransaction{},
		&entity.PurchaseRequest{},
		&entity.DeliveryNote{},
		&entity.PRItem{},
		&entity.SapSyncLog{},
		&entity.Notification{},
	); err != nil {
		return err
	}

	// AutoMigrate skips composite touch-ups; raw SQL covers them.
	touchUps := []string{
		"CREATE INDEX IF NOT EXISTS idx_sap_sync_logs_pr_created ON sap_sync_logs(pr_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_user_status ON notifications(user_id, status)",
	}
	for _, sql := range touchUps {
		if err := db.Exec(sql).Error; err != nil {
			return err
		}
	}
	return nil
}

// seedRolePermissions installs the default capability sets. Existing rows
// are left alone so deployments can tune them.
func seedRolePermissions(db *gorm.DB, zapLogger *zap.Logger) {
	seeds := map[string]string{
		entity.RoleAdmin: `["*"]`,
		entity.RoleSupervisor: `["view_purchase_requests","update_purchase_requests","delete_purchase_requests",
			"create_sap_sync_logs","view_sap_sync_logs","view_notifications","update_notification",
			"view_users","view_products","view_categories","view_stock_transactions"]`,
		entity.RoleWarehouseMan: `["create_purchase_requests","view_purchase_requests","update_purchase_requests",
			"create_sap_sync_logs","view_sap_sync_logs","view_notifications","update_notification",
			"view_products","view_categories","view_stock_transactions"]`,
		entity.RolePlantOfficer: `["view_purchase_requests","view_notifications","update_notification","view_products","view_categories"]`,
		entity.RoleGuard:        `["view_notifications","update_notification"]`,
	}
	for role, perms := range seeds {
		err := db.Exec(`INSERT INTO roles_permissions (role_name, permissions, updated_at)
			VALUES (?, ?::jsonb, NOW())
			ON CONFLICT (role_name) DO NOTHING`, role, perms).Error
		if err != nil {
			zapLogger.Warn("Failed to seed role permissions", zap.String("role", role), zap.Error(err))
		}
	}
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func initSAPClient(cfg config.SAPConfig, zapLogger *zap.Logger) sap.Client {
	if cfg.Mode == "http" && cfg.BaseURL != "" {
		zapLogger.Info("Using SAP HTTP gateway", zap.String("base_url", cfg.BaseURL))
		return sap.NewHTTPClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout)
	}
	zapLogger.Info("Using SAP simulator", zap.Float64("success_rate", cfg.SuccessRate))
	return sap.NewSimulator(cfg.SuccessRate, time.Now().UnixNano())
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, resolver middleware.PermissionResolver, cfg *config.Config) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/login", h.Auth.Login)

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			authorized.POST("/auth/register",
				middleware.RequirePermission(resolver, "create_users"), h.Auth.Register)
			authorized.GET("/users",
				middleware.RequirePermission(resolver, "view_users"), h.Auth.ListUsers)

			prs := authorized.Group("/purchase-requests")
			{
				prs.POST("", middleware.RequirePermission(resolver, "create_purchase_requests"), h.PR.Create)
				prs.GET("", middleware.RequirePermission(resolver, "view_purchase_requests"), h.PR.List)
				prs.GET("/search", middleware.RequirePermission(resolver, "view_purchase_requests"), h.PR.Search)
				prs.GET("/filter", middleware.RequirePermission(resolver, "view_purchase_requests"), h.PR.Filter)
				prs.GET("/count", middleware.RequirePermission(resolver, "view_purchase_requests"), h.PR.Count)
				prs.GET("/:id", middleware.RequirePermission(resolver, "view_purchase_requests"), h.PR.Get)
				prs.GET("/:id/sync-logs", middleware.RequirePermission(resolver, "view_sap_sync_logs"), h.Sync.LogsByPR)
				prs.PUT("/:id", middleware.RequirePermission(resolver, "update_purchase_requests"), h.PR.Update)
				prs.PUT("/:id/status", middleware.RequirePermission(resolver, "update_purchase_requests"), h.PR.UpdateStatus)
				prs.DELETE("/:id", middleware.RequirePermission(resolver, "delete_purchase_requests"), h.PR.Delete)
			}

			authorized.POST("/sap-sync",
				middleware.RequirePermission(resolver, "create_sap_sync_logs"), h.Sync.SyncOne)
			authorized.POST("/sap-resync/:logId",
				middleware.RequirePermission(resolver, "create_sap_sync_logs"), h.Sync.Resync)
			authorized.POST("/sap-sync-all",
				middleware.RequirePermission(resolver, "create_sap_sync_logs"), h.Sync.SyncAll)
			authorized.GET("/sap-sync-logs",
				middleware.RequirePermission(resolver, "view_sap_sync_logs"), h.Sync.ListLogs)
			authorized.GET("/sap-sync-logs/export",
				middleware.RequirePermission(resolver, "view_sap_sync_logs"), h.Sync.ExportLogs)

			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", middleware.RequirePermission(resolver, "view_notifications"), h.Notification.List)
				notifications.GET("/unread-count", middleware.RequirePermission(resolver, "view_notifications"), h.Notification.UnreadCount)
				notifications.PUT("/:id/read", middleware.RequirePermission(resolver, "update_notification"), h.Notification.MarkRead)
			}

			products := authorized.Group("/products")
			{
				products.POST("", middleware.RequirePermission(resolver, "create_products"), h.Catalog.CreateProduct)
				products.GET("", middleware.RequirePermission(resolver, "view_products"), h.Catalog.ListProducts)
				products.GET("/:id", middleware.RequirePermission(resolver, "view_products"), h.Catalog.GetProduct)
				products.PUT("/:id", middleware.RequirePermission(resolver, "update_products"), h.Catalog.UpdateProduct)
				products.POST("/:id/image", middleware.RequirePermission(resolver, "update_products"), h.Catalog.UploadProductImage)
				products.DELETE("/:id", middleware.RequirePermission(resolver, "delete_products"), h.Catalog.DeleteProduct)
			}

			categories := authorized.Group("/categories")
			{
				categories.POST("", middleware.RequirePermission(resolver, "create_categories"), h.Catalog.CreateCategory)
				categories.GET("", middleware.RequirePermission(resolver, "view_categories"), h.Catalog.ListCategories)
				categories.PUT("/:id", middleware.RequirePermission(resolver, "update_categories"), h.Catalog.UpdateCategory)
				categories.DELETE("/:id", middleware.RequirePermission(resolver, "delete_categories"), h.Catalog.DeleteCategory)
			}

			authorized.GET("/stock-transactions",
				middleware.RequirePermission(resolver, "view_stock_transactions"), h.Catalog.ListStockTransactions)
		}
	}
}

package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pawmates/pawmates-backend/internal/config"
	"github.com/pawmates/pawmates-backend/internal/domain"
	"github.com/pawmates/pawmates-backend/internal/handler"
	"github.com/pawmates/pawmates-backend/internal/middleware"
	"github.com/pawmates/pawmates-backend/internal/repository"
	"github.com/pawmates/pawmates-backend/internal/routes"
	"github.com/pawmates/pawmates-backend/internal/service"
	"github.com/pawmates/pawmates-backend/internal/ws"
	pkgcache "github.com/pawmates/pawmates-backend/pkg/cache"
	"github.com/pawmates/pawmates-backend/pkg/jwt"
	pkglogger "github.com/pawmates/pawmates-backend/pkg/logger"
	pkgredis "github.com/pawmates/pawmates-backend/pkg/redis"
)

// @title           Pawmates Messaging API
// @version         1.0
// @description     Conversation and message synchronization service of the Pawmates pet-adoption marketplace
//
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Authorization header using the Bearer scheme. Example: "Bearer {token}"

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	pkglogger.Info("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)

	configPath := getConfigPath()
	pkglogger.Info("Loading config from: %s", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// MySQL
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	pkglogger.Info("Connected to MySQL")

	if err := db.AutoMigrate(&domain.User{}, &domain.Pet{}, &domain.Conversation{}, &domain.Message{}); err != nil {
		pkglogger.Warn("Migration warning: %v", err)
	}

	// Redis (optional; unread counts fall back to recomputation)
	redisClient, err := pkgredis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		pkglogger.Warn("Failed to connect to Redis: %v (continuing without Redis)", err)
		redisClient = nil
	} else {
		pkglogger.Info("Connected to Redis")
	}
	cacheService := pkgcache.NewService(redisClient)

	// WebSocket hub
	wsHub := ws.NewHub(redisClient)
	go wsHub.Run()
	defer wsHub.Stop()

	// JWT manager
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)

	// Repositories
	messageRepo := repository.NewMessageRepository(db)
	convRepo := repository.NewConversationRepository(db)
	petRepo := repository.NewPetRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Services
	unreadService := service.NewUnreadService(cacheService, messageRepo)
	notifier := service.NewHubNotifier(wsHub)
	messageService := service.NewMessageService(
		messageRepo, convRepo, petRepo, userRepo,
		unreadService, notifier,
		cfg.Messaging.HistoryPageSize,
		cfg.Messaging.MaxContentLength,
	)
	conversationService := service.NewConversationService(convRepo, petRepo, userRepo, unreadService)

	// Handlers
	messageHandler := handler.NewMessageHandler(messageService)
	conversationHandler := handler.NewConversationHandler(conversationService, unreadService)
	wsHandler := handler.NewWSHandler(wsHub, cfg.CORS.AllowOrigins)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS
	allowOrigins := cfg.CORS.AllowOrigins
	if allowOrigins == "" {
		allowOrigins = "http://localhost:3000"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitAndTrim(allowOrigins, ","),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID"},
		MaxAge:           86400,
	}))

	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "pawmates-backend",
			"time":    time.Now().Unix(),
		})
	})

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.Setup(router, messageHandler, conversationHandler, wsHandler, jwtManager,
		redisClient, cfg.Messaging.SendRatePerMinute)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	pkglogger.Info("Listening on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initDB opens the MySQL connection with sane pool settings
func initDB(cfg *config.Config) (*gorm.DB, error) {
	dsnConfig := mysqldriver.NewConfig()
	dsnConfig.User = cfg.Database.User
	dsnConfig.Passwd = cfg.Database.Password
	dsnConfig.Net = "tcp"
	dsnConfig.Addr = fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port)
	dsnConfig.DBName = cfg.Database.Name
	dsnConfig.ParseTime = true
	dsnConfig.Loc = time.UTC
	dsnConfig.Params = map[string]string{"charset": "utf8mb4"}

	logLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(dsnConfig.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// splitAndTrim splits a comma-separated list, dropping empty entries
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

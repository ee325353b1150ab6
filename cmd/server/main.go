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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/opsatya/cinemaSync/internal/config"
	"github.com/opsatya/cinemaSync/internal/drive"
	"github.com/opsatya/cinemaSync/internal/handler"
	"github.com/opsatya/cinemaSync/internal/middleware"
	"github.com/opsatya/cinemaSync/internal/pkg/cache"
	"github.com/opsatya/cinemaSync/internal/pkg/database"
	"github.com/opsatya/cinemaSync/internal/pkg/utils"
	"github.com/opsatya/cinemaSync/internal/repository"
	"github.com/opsatya/cinemaSync/internal/service"
	"github.com/opsatya/cinemaSync/internal/ws"
)

// @title           CinemaSync API
// @version         1.0
// @description     Synchronized watch room backend

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.Log.Level)
	defer logger.Sync()

	logger.Info("Starting cinemasync server",
		zap.String("mode", cfg.Server.Mode),
		zap.Int("port", cfg.Server.Port),
	)

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize MongoDB
	db, err := database.NewMongo(&cfg.Mongo, logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer database.Close(db, logger)

	// Initialize Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer cache.Close(redisClient, logger)

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.TokenTTL,
		cfg.JWT.Issuer,
	)

	// Initialize repositories
	roomRepo := repository.NewRoomRepository(db)
	movieRepo := repository.NewMovieRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := movieRepo.EnsureIndexes(ctx); err != nil {
			logger.Warn("Failed to ensure movie indexes", zap.Error(err))
		}
		cancel()
	}

	// Initialize services
	registry := service.NewRegistry(cfg.Room.LockWait)
	roomService := service.NewRoomService(roomRepo, registry, cfg.Room.DefaultMaxMembers, cfg.Room.MaxMembersCap, logger)
	authService := service.NewAuthService(jwtManager, nil, logger)

	driveClient := drive.NewClient(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURI)
	movieService := service.NewMovieService(
		movieRepo,
		tokenRepo,
		driveClient,
		cache.NewCache(redisClient, logger),
		cfg.Google.CacheTTL,
		cfg.Google.RootFolderID,
		logger,
	)

	// Initialize WebSocket hub
	hub := ws.NewHub(roomService, redisClient, logger)
	go hub.Run()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	roomHandler := handler.NewRoomHandler(roomService, hub)
	movieHandler := handler.NewMovieHandler(movieService)
	wsHandler := ws.NewHandler(hub, jwtManager, logger)

	// Setup router
	router := setupRouter(
		logger,
		jwtManager,
		redisClient,
		authHandler,
		roomHandler,
		movieHandler,
		wsHandler,
	)

	// Create server
	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server is running",
			zap.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}

	return logger
}

func setupRouter(
	logger *zap.Logger,
	jwtManager *utils.JWTManager,
	redisClient *redis.Client,
	authHandler *handler.AuthHandler,
	roomHandler *handler.RoomHandler,
	movieHandler *handler.MovieHandler,
	wsHandler *ws.Handler,
) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// WebSocket endpoint
	router.GET("/ws", wsHandler.ServeWS)

	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		auth.Use(middleware.AuthRateLimit(redisClient))
		{
			auth.POST("/exchange", authHandler.Exchange)
		}

		// Google Drive OAuth
		google := api.Group("/google/auth")
		{
			google.GET("/callback", movieHandler.OAuthCallback)

			googleProtected := google.Group("")
			googleProtected.Use(middleware.Auth(jwtManager))
			{
				googleProtected.GET("/url", movieHandler.AuthURL)
				googleProtected.DELETE("", movieHandler.Disconnect)
			}
		}

		// Room routes
		rooms := api.Group("/rooms")
		rooms.Use(middleware.Auth(jwtManager))
		rooms.Use(middleware.RoomRateLimit(redisClient))
		{
			rooms.GET("", roomHandler.List)
			rooms.POST("", roomHandler.Create)
			rooms.GET("/mine", roomHandler.ListMine)
			rooms.GET("/:id", roomHandler.GetByID)
			rooms.PUT("/:id", roomHandler.Update)
			rooms.DELETE("/:id", roomHandler.Deactivate)
			rooms.POST("/:id/join", roomHandler.Join)
			rooms.POST("/:id/leave", roomHandler.Leave)
			rooms.PUT("/:id/playback", roomHandler.UpdatePlayback)
		}

		// Movie routes
		movies := api.Group("/movies")
		movies.Use(middleware.Auth(jwtManager))
		movies.Use(middleware.APIRateLimit(redisClient))
		{
			movies.GET("", movieHandler.ListFolder)
			movies.GET("/search", movieHandler.Search)
			movies.GET("/recent", movieHandler.Recent)
			movies.GET("/:file_id", movieHandler.Metadata)
			movies.GET("/:file_id/stream", movieHandler.StreamLink)
		}

		// WebSocket stats
		wsStats := api.Group("/ws")
		wsStats.Use(middleware.Auth(jwtManager))
		{
			wsStats.GET("/stats", wsHandler.GetStats)
			wsStats.GET("/online", wsHandler.GetOnlineUsers)
			wsStats.GET("/online/:user_id", wsHandler.IsUserOnline)
		}
	}

	return router
}

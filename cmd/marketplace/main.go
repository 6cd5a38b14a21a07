package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"art-market/internal/api/handlers"
	"art-market/internal/config"
	"art-market/internal/infrastructure/leader"
	"art-market/internal/infrastructure/mysql"
	appredis "art-market/internal/infrastructure/redis"
	appws "art-market/internal/infrastructure/websocket"
	"art-market/internal/services"
	"art-market/pkg/logger"
	"art-market/pkg/utils"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	log := logger.New()
	log.Info("Starting marketplace service")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize MySQL
	db := utils.InitializeMysql(cfg, log, ctx)
	defer db.Close()
	log.Info("Connected to MySQL")

	// Initialize repositories
	artworkRepo := mysql.NewMySQLArtworkRepository(db)
	messageRepo := mysql.NewMySQLMessageRepository(db)

	// Initialize Redis based components
	presenceCache := appredis.NewRedisPresenceCache(rdb, cfg.Realtime.PresenceTTL)
	settlementPublisher := appredis.NewRedisSettlementPublisher(rdb)
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)

	// One registry per realtime subsystem: auction rooms key by artwork id,
	// chat keys by user id.
	auctionRooms := appws.NewRegistry(log)
	chatRegistry := appws.NewRegistry(log)

	// Initialize realtime services
	arbitrator := services.NewBidArbitrator(artworkRepo, auctionRooms, log)
	finalizer := services.NewFinalizer(artworkRepo, settlementPublisher, log)
	auctionTimer := services.NewAuctionTimer(artworkRepo, auctionRooms, finalizer, cfg.Realtime.TickInterval, log)
	chatDelivery := services.NewChatDelivery(messageRepo, chatRegistry, log)
	sweeper := services.NewSettlementSweeper(artworkRepo, finalizer, leaderElection,
		cfg.Instance.ID, cfg.Realtime.SweepSpec, log)

	// Initialize websocket endpoints
	auctionWS := appws.NewAuctionHandler(arbitrator, auctionTimer, artworkRepo, auctionRooms,
		cfg.Realtime.WriteTimeout, cfg.Realtime.ReadLimit, log)
	chatWS := appws.NewChatHandler(chatDelivery, chatRegistry, presenceCache,
		cfg.Realtime.WriteTimeout, cfg.Realtime.ReadLimit, cfg.Realtime.PresenceTTL/3, log)

	wsRouter := mux.NewRouter()
	wsRouter.HandleFunc("/auction/{artworkID}", auctionWS.HandleConnection)
	wsRouter.HandleFunc("/chat/{userID}", chatWS.HandleConnection)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","host":"${host}","method":"${method}","uri":"${uri}","user_agent":"${user_agent}","status":${status},"error":"${error}","latency":${latency},"latency_human":"${latency_human}","bytes_in":${bytes_in},"bytes_out":${bytes_out}}` + "\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET, echo.HEAD, echo.PUT, echo.PATCH,
			echo.POST, echo.DELETE, echo.OPTIONS,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Initialize handlers
	artworkHandler := handlers.NewArtworkHandler(artworkRepo, chatDelivery, presenceCache, log)

	// API routes
	api := e.Group("/api/v1")
	api.POST("/artworks", artworkHandler.CreateArtwork)
	api.GET("/artworks/:id", artworkHandler.GetArtwork)
	api.GET("/users/:id/online", artworkHandler.GetUserOnline)

	// Realtime routes go through the mux router for path variable extraction
	e.Any("/auction/:artworkID", echo.WrapHandler(wsRouter))
	e.Any("/chat/:userID", echo.WrapHandler(wsRouter))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "marketplace",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   "1.0.0",
		})
	})

	// Start background services
	if err := sweeper.Start(context.Background()); err != nil {
		log.Error("Failed to start settlement sweeper", "error", err)
		os.Exit(1)
	}

	// Try to become leader
	go func() {
		for {
			became, err := leaderElection.BecomeLeader(context.Background(), cfg.Instance.ID)
			if err != nil {
				log.Error("Failed to attempt leadership", "error", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if became {
				log.Info("Became sweep leader", "instance_id", cfg.Instance.ID)
			}
			time.Sleep(10 * time.Second)
		}
	}()

	// Start server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		log.Info("Starting marketplace server", "address", serverAddr)
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down marketplace service...")

	// Graceful shutdown
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sweeper.Stop(); err != nil {
		log.Error("Failed to stop settlement sweeper", "error", err)
	}
	if err := leaderElection.ReleaseLeadership(ctx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}

	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Marketplace service stopped")
}

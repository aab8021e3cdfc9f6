package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oddsmill/settler/internal/bank"
	"github.com/oddsmill/settler/internal/config"
	"github.com/oddsmill/settler/internal/engine"
	"github.com/oddsmill/settler/internal/events"
	"github.com/oddsmill/settler/internal/handler"
	"github.com/oddsmill/settler/internal/middleware"
	"github.com/oddsmill/settler/internal/pkg/logger"
	"github.com/oddsmill/settler/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)

	// Persistence: Postgres > Redis > Memory.
	var store repository.Store
	if cfg.Database.DSN != "" {
		pg, err := repository.NewPostgresStore(cfg.Database.DSN)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		logger.Info("Connected to PostgreSQL")
		store = pg
	} else if cfg.Redis.Addr != "" {
		rs, err := repository.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		logger.Info("Connected to Redis")
		store = rs
	} else {
		logger.Warn("No database configured, falling back to in-memory store")
		store = repository.NewMemoryStore()
	}

	var pub events.Publisher = events.NoopPublisher{}
	if cfg.Kafka.Brokers != "" {
		pub = events.NewKafkaPublisher(cfg.Kafka.Brokers)
		logger.Info("Kafka publisher enabled", "brokers", cfg.Kafka.Brokers)
	}

	eng := engine.New(store, bank.LogBank{}, pub, nil)

	hub := handler.NewHub(nil)
	marketHandler := handler.NewMarketHandler(eng, hub)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.CallerIdentity())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "settler"})
	})
	r.GET(cfg.Server.MetricsPath, gin.WrapH(promhttp.Handler()))
	r.GET("/ws", gin.WrapF(hub.HandleWS))

	v1 := r.Group("/v1")
	v1.Use(middleware.RateLimitMiddleware(cfg.Limits.QPS, cfg.Limits.Burst))
	marketHandler.Register(v1)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("settler started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = pub.Close()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("Server exiting")
}

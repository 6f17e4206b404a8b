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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ashwinyue/insure-ai/internal/config"
	"github.com/ashwinyue/insure-ai/internal/database"
	"github.com/ashwinyue/insure-ai/internal/handler"
	"github.com/ashwinyue/insure-ai/internal/repository"
	"github.com/ashwinyue/insure-ai/internal/router"
	"github.com/ashwinyue/insure-ai/internal/service"
)

func main() {
	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 设置 Gin 模式
	gin.SetMode(cfg.Server.Mode)

	// 初始化数据库
	db, err := database.New(cfg)
	if err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected", zap.String("path", cfg.Database.Path))

	// 初始化 Redis（会话与限流；不可用时相关功能降级）
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	// 初始化各层
	repos := repository.NewRepositories(db.DB)
	services, err := service.NewServices(repos, cfg, redisClient, logger)
	if err != nil {
		logger.Fatal("Failed to init services", zap.Error(err))
	}

	// 启动前维护：导入数据集、按需轮换密钥、清理过期数据
	if err := services.SeedDataset(cfg.Classifier.DatasetPath); err != nil {
		logger.Warn("Failed to seed dataset", zap.Error(err))
	}
	if rotated, err := services.Security.RotateIfNeeded(); err != nil {
		logger.Error("Key rotation failed", zap.Error(err))
	} else if rotated {
		logger.Info("Encryption key rotated on startup")
	}
	if _, err := services.Security.CheckDataRetention(); err != nil {
		logger.Error("Data retention cleanup failed", zap.Error(err))
	}

	handlers := handler.NewHandlers(services)

	// 初始化路由
	r := router.SetupRouter(handlers, services, redisClient)

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// 启动服务器
	go func() {
		logger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// newLogger 创建应用日志器
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.App.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/edbrsk/uoc-planner/config"
	"github.com/edbrsk/uoc-planner/internal/api/handler"
	"github.com/edbrsk/uoc-planner/internal/api/router"
	"github.com/edbrsk/uoc-planner/internal/localstore"
	"github.com/edbrsk/uoc-planner/internal/repository"
	"github.com/edbrsk/uoc-planner/internal/service"
	"github.com/edbrsk/uoc-planner/pkg/database"
	applogger "github.com/edbrsk/uoc-planner/pkg/logger"
	"github.com/edbrsk/uoc-planner/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Mode),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 打开存储（远程 PostgreSQL 或本地 SQLite）
	repo, closeStorage, err := openStorage(cfg, logger)
	if err != nil {
		logger.Fatal("存储初始化失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不缓存路线图、不限流）
	var rdb *redis.Client
	var cache service.RoadmapCache
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，路线图缓存与导入限流将不可用", zap.Error(err))
			rdb = nil
		} else {
			cache = rdb
		}
	}

	// 5. 依赖注入: Repository → Service → Handler
	svc := service.NewService(repo, service.OptionsFromConfig(cfg, cache), logger)
	h := handler.NewHandler(svc)

	// 6. 初始化路由
	engine := router.Setup(cfg, h, rdb, logger)

	// 7. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 8. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	closeStorage()

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// openStorage 按 storage.mode 打开存储，返回 Repository 与关闭函数
func openStorage(cfg *config.Config, logger *zap.Logger) (*repository.Repository, func(), error) {
	if cfg.Storage.Mode == config.StorageLocal {
		store, err := localstore.Open(cfg.Storage.LocalPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("本地存储已打开", zap.String("path", cfg.Storage.LocalPath))
		return store.Repository(), func() { store.Close() }, nil
	}

	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	return repository.NewRepository(db), func() { sqlDB.Close() }, nil
}

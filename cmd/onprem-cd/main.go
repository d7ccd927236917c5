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

	"onprem-cd/internal/adapter/blobstore"
	"onprem-cd/internal/adapter/notification"
	"onprem-cd/internal/adapter/sidecar"
	"onprem-cd/internal/api/router"
	"onprem-cd/internal/pkg/config"
	"onprem-cd/internal/pkg/database"
	"onprem-cd/internal/pkg/logger"
	"onprem-cd/internal/pkg/ratelimit"
	"onprem-cd/internal/repository"
	"onprem-cd/internal/scheduler"

	_ "onprem-cd/docs" // Swagger docs
)

// @title OnPrem CD API
// @version 1.0
// @description 私有化部署交付平台 API 文档
// @description 提供项目版本管理、chart 发布、订阅方 helm 仓库与 agent 心跳等功能

// @contact.name API Support
// @contact.email support@example.com

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and token.

var (
	configFile = flag.String("config", "", "配置文件路径 (例如: -config=configs/config.yaml)")
	version    = flag.Bool("version", false, "显示版本信息")
)

const (
	appVersion = "1.0.0"
	appName    = "onprem-cd"
)

func main() {
	// 解析命令行参数
	flag.Parse()

	// 显示版本信息
	if *version {
		fmt.Printf("%s version %s\n", appName, appVersion)
		os.Exit(0)
	}

	// init config logger
	var cfg *config.Config
	{
		// 优先级: 命令行参数 > 环境变量 > 默认路径
		configPath := getConfigPath()

		c, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("加载配置失败: %v\n", err)
			fmt.Println("\n使用方式:")
			fmt.Println("  1. 命令行参数指定:")
			fmt.Println("     ./onprem-cd -config=configs/config.yaml")
			fmt.Println("  2. 环境变量指定:")
			fmt.Println("     export CONFIG_FILE=configs/config.yaml")
			fmt.Println("     ./onprem-cd")
			fmt.Println("  3. 使用默认配置:")
			fmt.Println("     ./onprem-cd  (将使用 configs/config.yaml)")
			os.Exit(1)
		}
		cfg = c

		// 初始化日志
		if err := logger.Init(&cfg.Log); err != nil {
			fmt.Printf("初始化日志失败: %v\n", err)
			os.Exit(1)
		}
		logger.Info(fmt.Sprintf("Load config file: %s of %s", configPath, getConfigSource()))

		defer func() {
			_ = logger.Close()
		}()
	}

	logger.Info(fmt.Sprintf("服务 %s 启动中...", appName), zap.String("version", appVersion))

	if cfg.Auth.JWT.Secret == "" {
		logger.Fatal("auth.jwt.secret 未配置")
	}
	if cfg.Auth.APIToken == "" {
		logger.Warn("auth.api_token 未配置, 管理接口不做认证")
	}

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("初始化数据库失败", zap.Error(err))
	}
	defer func() {
		_ = database.Close()
	}()

	logger.Info(fmt.Sprintf("数据库连接成功 %s:%v", cfg.Database.Host, cfg.Database.Port), zap.String("database", cfg.Database.Database))

	// chart 构建 sidecar
	var chartClient sidecar.Client
	if cfg.Sidecar.Mock {
		logger.Warn("sidecar 使用 mock 客户端, 仅用于本地开发")
		chartClient = sidecar.NewMockClient()
	} else {
		c, err := sidecar.NewGRPCClient(&cfg.Sidecar, logger.Log)
		if err != nil {
			logger.Fatal("连接 sidecar 失败", zap.Error(err))
		}
		chartClient = c
	}
	defer func() {
		_ = chartClient.Close()
	}()

	// helm 仓库对象存储
	store, err := blobstore.New(context.Background(), &cfg.Storage)
	if err != nil {
		logger.Fatal("初始化对象存储失败", zap.Error(err))
	}
	defer func() {
		_ = store.Close()
	}()
	logger.Info("对象存储初始化成功", zap.String("driver", cfg.Storage.Driver), zap.String("bucket", cfg.Storage.Bucket))

	notifier := notification.New(&cfg.Notification, logger.Log)

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(&cfg.RateLimit, logger.Log)
		defer func() {
			_ = limiter.Close()
		}()
	}

	// 初始化并启动定时任务调度器
	db := database.GetDB()
	taskScheduler := scheduler.NewScheduler(repository.NewVersionRepository(db), repository.NewAgentRepository(db), notifier, logger.Named("scheduler"), cfg)
	if err := taskScheduler.Start(); err != nil {
		logger.Warn("定时任务调度器启动失败", zap.Error(err))
	}

	// 设置路由
	r := router.Setup(cfg, &router.Dependencies{
		DB:       db,
		Sidecar:  chartClient,
		Store:    store,
		Notifier: notifier,
		Limiter:  limiter,
	}, logger.Log)

	// 创建HTTP服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		logger.Info(fmt.Sprintf("%s 服务启动成功", cfg.Server.Name),
			zap.String("address", addr),
			zap.String("mode", cfg.Server.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("服务正在关闭...")

	// 关闭定时任务调度器
	taskScheduler.Stop()
	logger.Info("定时任务调度器已停止")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	logger.Info("服务已关闭")
}

// getConfigPath 获取配置文件路径
// 优先级: 命令行参数 > 环境变量 > 默认路径
func getConfigPath() string {
	// 1. 命令行参数
	if *configFile != "" {
		return *configFile
	}

	// 2. 环境变量
	if envConfig := os.Getenv("CONFIG_FILE"); envConfig != "" {
		return envConfig
	}

	// 3. 默认路径
	return "configs/config.yaml"
}

// getConfigSource 获取配置来源说明
func getConfigSource() string {
	if *configFile != "" {
		return "命令行参数"
	}
	if os.Getenv("CONFIG_FILE") != "" {
		return "环境变量"
	}
	return "默认配置"
}

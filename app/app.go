package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	adapterhttp "vod-packager/ddd/adapter/http"
	"vod-packager/ddd/domain/gateway"
	"vod-packager/ddd/domain/service"
	"vod-packager/ddd/domain/vo"
	"vod-packager/ddd/infrastructure/database"
	"vod-packager/ddd/infrastructure/executor"
	"vod-packager/ddd/infrastructure/logstream"
	"vod-packager/ddd/infrastructure/notify"
	"vod-packager/ddd/infrastructure/storage"
	"vod-packager/ddd/infrastructure/worker"
	"vod-packager/internal/resource"
	"vod-packager/pkg/config"
	"vod-packager/pkg/logger"
	"vod-packager/pkg/manager"
	"vod-packager/pkg/middleware"
	"vod-packager/pkg/registry"
	"vod-packager/pkg/repository"
	"vod-packager/pkg/task"
)

func Run() {
	fmt.Println("[STARTUP] Starting vod-packager...")

	// 加载配置
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("[ERROR] Failed to load config (%s): %v\n", cfgPath, err)
		os.Exit(1)
	}
	config.SetGlobalConfig(cfg)
	fmt.Printf("[STARTUP] Config file loaded: %s\n", cfgPath)

	// 立即初始化日志服务
	logService := logger.NewLogger(cfg)
	logger.SetGlobalLogger(logService)
	logger.Infof("vod-packager starting version=%s", "1.0.0")

	// 检查FFmpeg是否可用，启动阶段直接失败
	ffmpegBin := strings.TrimSpace(cfg.Transcode.FFmpeg.BinaryPath)
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	if _, err := exec.LookPath(ffmpegBin); err != nil {
		logger.Fatal(fmt.Sprintf("FFmpeg binary not found, please install or set transcode.ffmpeg.binary_path binary=%s error=%s", ffmpegBin, err.Error()))
	}

	// 资源管理器初始化
	logger.Infof("Initializing resources...")
	manager.MustInitResources()
	defer manager.CloseResources()

	// 数据库可选：未配置时跳过历史持久化
	var outcomeRepo *database.OutcomeRepo
	var db *repository.Database
	if cfg.Database.Host != "" {
		db, err = repository.NewDatabase(&cfg.Database)
		if err != nil {
			logger.Fatal(fmt.Sprintf("Failed to initialize database error=%v", err))
		}
		defer db.Close()
		outcomeRepo, err = database.NewOutcomeRepo(db.Self)
		if err != nil {
			logger.Fatal(fmt.Sprintf("Failed to initialize outcome repo error=%v", err))
		}
		logger.Infof("Database connected")
	} else {
		logger.Warnf("database not configured, outcome history disabled")
	}

	// 组装核心组件
	storageGw := storage.NewMinioStorage(resource.DefaultMinioResource())
	encoder := executor.NewFFmpegEncoder(cfg.Transcode.FFmpeg, cfg.Transcode.SegmentDuration)
	engine := service.NewPackageEngine(storageGw, encoder, cfg.Transcode.FFmpeg.TempDir)

	logGateway := logstream.NewRedisLogGateway(resource.DefaultRedisResource().GetClient())
	progressLog := service.NewProgressLog(logGateway, cfg.ProgressLog.GroupName)

	var reporters []gateway.OutcomeReporter
	if kafkaClient := resource.DefaultKafkaResource().GetClient(); kafkaClient != nil {
		reporters = append(reporters, notify.NewKafkaReporter(kafkaClient, cfg.Kafka.Topics.PackageOutcomes))
	}
	if outcomeRepo != nil {
		reporters = append(reporters, outcomeRepo)
	}
	reporter := notify.NewCompositeReporter(reporters...)

	defaults := make([]vo.RenditionSpec, 0, len(cfg.Transcode.Renditions))
	for _, r := range cfg.Transcode.Renditions {
		spec, err := vo.NewRenditionSpec(r.Name, r.Resolution, r.Bitrate)
		if err != nil {
			logger.Fatal(fmt.Sprintf("Invalid rendition config name=%s error=%v", r.Name, err))
		}
		defaults = append(defaults, spec)
	}

	tracker := service.NewJobTracker(engine, progressLog, reporter, cfg.Transcode.DestinationPrefix, defaults)
	logger.Infof("Pipeline assembled renditions=%d segment_duration=%d dest_prefix=%s",
		len(defaults), cfg.Transcode.SegmentDuration, cfg.Transcode.DestinationPrefix)

	// 后台清理任务
	task.Register(worker.NewReaper(tracker, cfg.Tracker.Retention, cfg.Tracker.ReapInterval))
	if err := task.StartAll(context.Background()); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to start background tasks error=%v", err))
	}

	// 创建Gin引擎
	if strings.EqualFold(cfg.Server.Mode, "release") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(middleware.RequestContextMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   "vod-packager",
			"timestamp": time.Now().Unix(),
		})
	})

	controller := adapterhttp.NewConvertController(tracker, outcomeRepo, cfg.Public.StorageBase)
	adapterhttp.RegisterRoutes(router, controller, cfg)

	// 启动HTTP服务器，PORT环境变量优先于配置
	defaultPort := "8085"
	if cfg.Server.Port > 0 {
		defaultPort = strconv.Itoa(cfg.Server.Port)
	}
	port := getEnv("PORT", defaultPort)
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(fmt.Sprintf("Failed to start HTTP server error=%v", err))
		}
	}()
	logger.Infof("HTTP server started port=%s health_url=%s", port, fmt.Sprintf("http://localhost:%s/health", port))

	// 服务注册（可选）
	var serviceRegistry *registry.ServiceRegistry
	if cfg.ServiceRegistry.Enabled {
		addr := fmt.Sprintf("%s:%s", cfg.ServiceRegistry.RegisterHost, port)
		serviceRegistry, err = registry.NewServiceRegistry(cfg.ServiceRegistry, addr)
		if err != nil {
			logger.Errorf("create service registry failed error=%v", err)
		} else if err := serviceRegistry.Register(); err != nil {
			logger.Errorf("register service failed error=%v", err)
		}
	}

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Received shutdown signal, shutting down server...")

	if serviceRegistry != nil {
		_ = serviceRegistry.Deregister()
	}
	task.StopAll()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("Server forced to close error=%v", err))
	}

	logger.Infof("Server exited safely")
	logService.Close()
	fmt.Println("[SHUTDOWN] vod-packager exited safely")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// resolveConfigPath 根据环境选择配置文件，支持CONFIG_PATH覆盖、CONFIG_ENV区分环境
func resolveConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	env := strings.ToLower(strings.TrimSpace(os.Getenv("CONFIG_ENV")))
	if env == "" {
		env = "dev"
	}

	switch env {
	case "prod", "production":
		return "configs/config_prod.yaml"
	case "dev", "development":
		return "configs/config.dev.yaml"
	default:
		return fmt.Sprintf("configs/config.%s.yaml", env)
	}
}

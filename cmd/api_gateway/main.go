package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"video_pipeline_service/internal/gateway/api/handlers"
	"video_pipeline_service/internal/gateway/api/router"
	"video_pipeline_service/internal/gateway/app"
	"video_pipeline_service/internal/videos/domain"
	"video_pipeline_service/internal/videos/repository"
	"video_pipeline_service/pkg/config"
	"video_pipeline_service/pkg/database"
	"video_pipeline_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.APIGateway, config.EnvConfig.APIGatewayLogPath)
	cfg := config.LoadConfig[config.APIGateway](config.EnvConfig.APIGateway, config.EnvConfig.APIGatewayYAMLPath)

	// 1. 連線 PostgreSQL
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		cfg.PostgreSQL.Host, cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Database, cfg.PostgreSQL.Port)
	db, err := database.NewPGConnection(database.Connection{
		ConnectStr: dsn,

		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s]", dsn)),
			zap.Error(err),
		)
	}

	// 自動遷移影片資料表
	videoRepo := repository.NewVideoRepo(db)
	if err := videoRepo.AutoMigrate(); err != nil {
		log.Fatalf("資料表遷移失敗: %v", err)
	}

	// 2. 連線 RabbitMQ，先宣告 upload queue
	rabbitURL := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.IP, cfg.RabbitMQ.Port)
	bus, err := database.NewRabbitClient(database.Connection{
		ConnectStr:    rabbitURL,
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
	}, domain.UploadQueue)
	if err != nil {
		log.Fatalf("RabbitMQ 連線失敗: %v", err)
	}
	defer bus.Close()

	// 3. 建立三個檔案根目錄
	for _, dir := range []string{cfg.Storage.UploadDir, cfg.Storage.EncodedDir, cfg.Storage.ThumbnailDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("建立儲存目錄失敗 [%s]: %v", dir, err)
		}
	}

	// 4. 建立 Fiber 應用
	// 创建 Fiber 应用
	r := fiber.New(fiber.Config{
		BodyLimit: 1024 * 1024 * 1024, // 影片上傳上限 1GB
	})
	// 添加日志中间件
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.APIGatewayLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file, // 将日志输出到文件
	}))

	// 5. 設定 API 路由
	videoHandler := &handlers.VideoHandler{
		Ingest: app.NewIngestUseCase(videoRepo, bus, cfg.Storage.UploadDir),
		Query:  app.NewQueryUseCase(videoRepo, cfg.Storage),
	}
	router.RegisterRoutes(r, videoHandler)

	// 启动服务器
	if err := r.Listen(":" + cfg.Port); err != nil {
		logger.Log.Fatal("Server failed to start", zap.Error(err))
	}
}

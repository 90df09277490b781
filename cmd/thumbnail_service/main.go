package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"video_pipeline_service/internal/pipeline"
	"video_pipeline_service/internal/thumbnail/app"
	"video_pipeline_service/internal/videos/domain"
	"video_pipeline_service/pkg/config"
	"video_pipeline_service/pkg/database"
	"video_pipeline_service/pkg/logger"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ThumbnailService, config.EnvConfig.ThumbnailServiceLogPath)
	cfg := config.LoadConfig[config.Thumbnail](config.EnvConfig.ThumbnailService, config.EnvConfig.ThumbnailServiceYAMLPath)

	// 1. 連線 RabbitMQ
	rabbitURL := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.IP, cfg.RabbitMQ.Port)
	bus, err := database.NewRabbitClient(database.Connection{
		ConnectStr:    rabbitURL,
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
	}, domain.ThumbnailQueue)
	if err != nil {
		log.Fatalf("RabbitMQ 連線失敗: %v", err)
	}
	defer bus.Close()

	// 2. 啟動 Consumer
	extractor := app.NewFFmpegExtractor(cfg.Width, cfg.Height)
	usecase := app.NewThumbnailUseCase(extractor)
	consumer := pipeline.NewConsumer(bus, domain.ThumbnailQueue, cfg.Prefetch, app.NewThumbnailHandler(usecase))

	// 使用 context 控制 Consumer 的生命週期
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Log.Fatal(fmt.Sprintf("Consumer 啟動失敗: %v", err))
		}
	}()

	logger.Log.Info(fmt.Sprintf("ThumbnailService consuming queue : %s", domain.ThumbnailQueue))

	// 3. 等待關閉訊號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("ThumbnailService shutting down")
}

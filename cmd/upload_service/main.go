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
	"video_pipeline_service/internal/upload/app"
	"video_pipeline_service/internal/videos/domain"
	"video_pipeline_service/pkg/config"
	"video_pipeline_service/pkg/database"
	"video_pipeline_service/pkg/logger"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.UploadService, config.EnvConfig.UploadServiceLogPath)
	cfg := config.LoadConfig[config.Upload](config.EnvConfig.UploadService, config.EnvConfig.UploadServiceYAMLPath)

	// 1. 連線 RabbitMQ，宣告進出兩個 queue
	rabbitURL := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.IP, cfg.RabbitMQ.Port)
	bus, err := database.NewRabbitClient(database.Connection{
		ConnectStr:    rabbitURL,
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
	}, domain.UploadQueue, domain.ProcessingQueue)
	if err != nil {
		log.Fatalf("RabbitMQ 連線失敗: %v", err)
	}
	defer bus.Close()

	// 2. 啟動 Consumer
	usecase := app.NewForwardUseCase(bus, cfg.Storage.EncodedDir)
	consumer := pipeline.NewConsumer(bus, domain.UploadQueue, cfg.Prefetch, app.NewForwardHandler(usecase))

	// 使用 context 控制 Consumer 的生命週期
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Log.Fatal(fmt.Sprintf("Consumer 啟動失敗: %v", err))
		}
	}()

	logger.Log.Info(fmt.Sprintf("UploadService consuming queue : %s", domain.UploadQueue))

	// 3. 等待關閉訊號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("UploadService shutting down")
}

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
	"video_pipeline_service/internal/processing/app"
	"video_pipeline_service/internal/videos/domain"
	"video_pipeline_service/internal/videos/repository"
	"video_pipeline_service/pkg/config"
	"video_pipeline_service/pkg/database"
	"video_pipeline_service/pkg/logger"
	testtool "video_pipeline_service/pkg/test_tool"

	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ProcessingService, config.EnvConfig.ProcessingServiceLogPath)
	cfg := config.LoadConfig[config.Processing](config.EnvConfig.ProcessingService, config.EnvConfig.ProcessingServiceYAMLPath)
	testtool.StartPprof()

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

	videoRepo := repository.NewVideoRepo(db)
	if err := videoRepo.AutoMigrate(); err != nil {
		log.Fatalf("資料表遷移失敗: %v", err)
	}

	// 2. 連線 RabbitMQ，宣告進出兩個 queue
	rabbitURL := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.IP, cfg.RabbitMQ.Port)
	bus, err := database.NewRabbitClient(database.Connection{
		ConnectStr:    rabbitURL,
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
	}, domain.ProcessingQueue, domain.ThumbnailQueue)
	if err != nil {
		log.Fatalf("RabbitMQ 連線失敗: %v", err)
	}
	defer bus.Close()

	// 3. 建立 Kafka Writer 使用重試機制
	kafkaWriter, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.Topic,
		RetryCount:    cfg.Kafka.RetryCount,
		RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
	})
	if err != nil {
		log.Fatalf("Kafka Writer 建立失敗: %v", err)
	}
	defer kafkaWriter.Close()
	events := database.NewKafkaRepository(kafkaWriter)

	// 4. 組裝轉碼 usecase 與 Consumer
	presets := make([]domain.Preset, len(cfg.Presets))
	for i, p := range cfg.Presets {
		presets[i] = domain.Preset{Label: p.Label, Width: p.Width, Height: p.Height, Bitrate: p.Bitrate}
	}

	encoder := app.NewFFmpegEncoder(cfg.AudioBitrate)
	usecase := app.NewTranscodeUseCase(
		videoRepo,
		bus,
		events,
		encoder,
		presets,
		cfg.Storage.ThumbnailDir,
		cfg.EncodeTimeout,
	)
	consumer := pipeline.NewConsumer(bus, domain.ProcessingQueue, cfg.Prefetch, app.NewTranscodeHandler(usecase))

	// 使用 context 控制 Consumer 的生命週期
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Log.Fatal(fmt.Sprintf("Consumer 啟動失敗: %v", err))
		}
	}()

	logger.Log.Info(fmt.Sprintf("ProcessingService consuming queue : %s", domain.ProcessingQueue))

	// 5. 等待關閉訊號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("ProcessingService shutting down")
}

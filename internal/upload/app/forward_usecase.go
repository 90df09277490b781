package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"video_pipeline_service/internal/pipeline"
	"video_pipeline_service/internal/videos/domain"
	"video_pipeline_service/pkg/database"
	"video_pipeline_service/pkg/logger"

	"go.uber.org/zap"
)

// ForwardUseCase 這裡封裝了 upload stage 的應用服務：檢查原始檔並
// 轉送轉碼工作
type ForwardUseCase interface {
	Forward(ctx context.Context, job domain.UploadJob) pipeline.Result
}

type forwardUseCase struct {
	bus        database.RabbitRepo
	encodedDir string
}

// NewForwardUseCase 建立一個新的 ForwardUseCase
func NewForwardUseCase(bus database.RabbitRepo, encodedDir string) ForwardUseCase {
	return &forwardUseCase{bus: bus, encodedDir: encodedDir}
}

// NewForwardHandler wrap the usecase as a raw message handler
func NewForwardHandler(u ForwardUseCase) pipeline.Handler {
	return func(ctx context.Context, body []byte) pipeline.Result {
		var job domain.UploadJob
		if err := json.Unmarshal(body, &job); err != nil {
			return pipeline.Reject(fmt.Errorf("decode upload job: %w", err))
		}
		return u.Forward(ctx, job)
	}
}

// Forward verify the stored original, prepare the per-video encoded
// directory and hand the job to the transcode stage. The transcode
// message carries every path the next stage needs.
func (u *forwardUseCase) Forward(ctx context.Context, job domain.UploadJob) pipeline.Result {
	if err := job.Validate(); err != nil {
		return pipeline.Reject(err)
	}

	logger.Log.Info("received upload job",
		zap.Uint("video_id", job.VideoID),
		zap.String("file", job.FilePath))

	if _, err := os.Stat(job.FilePath); err != nil {
		return pipeline.Reject(fmt.Errorf("original file not found (video_id=%d): %w", job.VideoID, err))
	}

	processedDir := filepath.Join(u.encodedDir, fmt.Sprint(job.VideoID))
	if err := os.MkdirAll(processedDir, 0755); err != nil {
		return pipeline.Retry(job.VideoID, fmt.Errorf("create processed dir: %w", err))
	}

	next := domain.TranscodeJob{
		Version:       domain.MessageVersion,
		VideoID:       job.VideoID,
		Filename:      job.Filename,
		FilePath:      job.FilePath,
		ProcessedPath: domain.ProcessedBasePath(u.encodedDir, job.VideoID, job.Filename),
	}
	if err := u.bus.PublishJSON(domain.ProcessingQueue, next); err != nil {
		return pipeline.Retry(job.VideoID, fmt.Errorf("publish transcode job: %w", err))
	}

	logger.Log.Info("file sent to processing",
		zap.Uint("video_id", job.VideoID),
		zap.String("processed_path", next.ProcessedPath))
	return pipeline.Succeed(job.VideoID)
}

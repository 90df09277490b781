package app

import (
	"context"
	"encoding/json"
	"fmt"

	"video_pipeline_service/internal/pipeline"
	"video_pipeline_service/internal/videos/domain"
	"video_pipeline_service/pkg/logger"

	"go.uber.org/zap"
)

// ThumbnailUseCase 這裡封裝了縮圖 stage 的應用服務
type ThumbnailUseCase interface {
	Generate(ctx context.Context, job domain.ThumbnailJob) pipeline.Result
}

type thumbnailUseCase struct {
	extractor FrameExtractor
}

// NewThumbnailUseCase 建立一個新的 ThumbnailUseCase
func NewThumbnailUseCase(extractor FrameExtractor) ThumbnailUseCase {
	return &thumbnailUseCase{extractor: extractor}
}

// NewThumbnailHandler wrap the usecase as a raw message handler
func NewThumbnailHandler(u ThumbnailUseCase) pipeline.Handler {
	return func(ctx context.Context, body []byte) pipeline.Result {
		var job domain.ThumbnailJob
		if err := json.Unmarshal(body, &job); err != nil {
			return pipeline.Reject(fmt.Errorf("decode thumbnail job: %w", err))
		}
		return u.Generate(ctx, job)
	}
}

// Generate extract one still from the chosen variant to the job's
// thumbnail path. Failure is terminal for this job: it is reported with
// the video id and never retried; redelivery just overwrites the same path.
func (u *thumbnailUseCase) Generate(ctx context.Context, job domain.ThumbnailJob) pipeline.Result {
	if err := job.Validate(); err != nil {
		return pipeline.Reject(err)
	}

	logger.Log.Info("received thumbnail job",
		zap.Uint("video_id", job.VideoID),
		zap.String("source", job.ProcessedPath))

	if err := u.extractor.Extract(ctx, job.ProcessedPath, job.ThumbnailPath); err != nil {
		return pipeline.Fail(job.VideoID, fmt.Errorf("generate thumbnail (video_id=%d): %w", job.VideoID, err))
	}

	logger.Log.Info("thumbnail generated",
		zap.Uint("video_id", job.VideoID),
		zap.String("thumbnail", job.ThumbnailPath))
	return pipeline.Succeed(job.VideoID)
}

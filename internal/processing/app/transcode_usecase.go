package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"video_pipeline_service/internal/pipeline"
	"video_pipeline_service/internal/videos/domain"
	"video_pipeline_service/internal/videos/repository"
	"video_pipeline_service/pkg/database"
	"video_pipeline_service/pkg/logger"

	"go.uber.org/zap"
)

// TranscodeUseCase 這裡封裝了轉碼 stage 的應用服務
type TranscodeUseCase interface {
	Process(ctx context.Context, job domain.TranscodeJob) pipeline.Result
}

type transcodeUseCase struct {
	repo         repository.VideoRepo
	bus          database.RabbitRepo
	events       database.KafkaRepo // optional；nil 時不發布事件
	encoder      Encoder
	presets      []domain.Preset
	thumbnailDir string
	// encodeTimeout bounds one encoder invocation; 0 means unbounded
	encodeTimeout time.Duration
}

// NewTranscodeUseCase 建立一個新的 TranscodeUseCase
func NewTranscodeUseCase(
	repo repository.VideoRepo,
	bus database.RabbitRepo,
	events database.KafkaRepo,
	encoder Encoder,
	presets []domain.Preset,
	thumbnailDir string,
	encodeTimeout time.Duration,
) TranscodeUseCase {
	if len(presets) == 0 {
		presets = domain.DefaultPresets()
	}
	return &transcodeUseCase{
		repo:          repo,
		bus:           bus,
		events:        events,
		encoder:       encoder,
		presets:       presets,
		thumbnailDir:  thumbnailDir,
		encodeTimeout: encodeTimeout,
	}
}

// NewTranscodeHandler wrap the usecase as a raw message handler
func NewTranscodeHandler(u TranscodeUseCase) pipeline.Handler {
	return func(ctx context.Context, body []byte) pipeline.Result {
		var job domain.TranscodeJob
		if err := json.Unmarshal(body, &job); err != nil {
			return pipeline.Reject(fmt.Errorf("decode transcode job: %w", err))
		}
		return u.Process(ctx, job)
	}
}

// Process run one transcode job: status to PROCESSING, one encode per
// preset (failures tolerated), then one transaction with the quality
// upserts and the terminal status, then exactly one thumbnail job for
// the best produced variant. Safe to re-run on redelivery.
func (u *transcodeUseCase) Process(ctx context.Context, job domain.TranscodeJob) pipeline.Result {
	if err := job.Validate(); err != nil {
		return pipeline.Reject(err)
	}

	logger.Log.Info("received transcode job",
		zap.Uint("video_id", job.VideoID),
		zap.String("filename", job.Filename))

	// 先標記 PROCESSING，中途 crash 時狀態可供診斷
	if err := u.repo.UpdateStatus(job.VideoID, domain.StatusProcessing); err != nil {
		return pipeline.Retry(job.VideoID, fmt.Errorf("mark processing: %w", err))
	}

	var (
		produced []domain.VideoQuality
		failed   []string
	)
	for _, p := range u.presets {
		outputPath := domain.VariantPath(job.ProcessedPath, p.Label)
		if err := u.encode(ctx, job.FilePath, outputPath, p); err != nil {
			// 單一 preset 失敗不中斷整批
			logger.Log.Errorf(fmt.Sprintf("preset [%s] failed:", p.Label), err,
				zap.Uint("video_id", job.VideoID))
			failed = append(failed, p.Label)
			continue
		}
		produced = append(produced, domain.VideoQuality{
			VideoID:  job.VideoID,
			Quality:  p.Label,
			FilePath: outputPath,
		})
	}

	if len(produced) == 0 {
		if err := u.repo.FinishProcessing(job.VideoID, domain.StatusFailed, nil); err != nil {
			return pipeline.Retry(job.VideoID, fmt.Errorf("mark failed: %w", err))
		}
		u.emitEvent(ctx, job, domain.StatusFailed, nil)
		return pipeline.Fail(job.VideoID, fmt.Errorf("no preset was successfully processed (video_id=%d)", job.VideoID))
	}

	// 品質列與狀態在同一交易內落地，之後才允許發布縮圖工作
	if err := u.repo.FinishProcessing(job.VideoID, domain.StatusCompleted, produced); err != nil {
		return pipeline.Retry(job.VideoID, fmt.Errorf("persist qualities: %w", err))
	}

	// presets run in configured order, lowest to highest, so the last
	// produced variant is the best thumbnail source.
	best := produced[len(produced)-1]
	thumbJob := domain.ThumbnailJob{
		Version:       domain.MessageVersion,
		VideoID:       job.VideoID,
		Filename:      job.Filename,
		ProcessedPath: best.FilePath,
		ThumbnailPath: domain.ThumbnailPath(u.thumbnailDir, job.VideoID, job.Filename),
	}
	if err := u.bus.PublishJSON(domain.ThumbnailQueue, thumbJob); err != nil {
		// 發布失敗交由重投遞處理；encode 與 upsert 皆為冪等
		return pipeline.Retry(job.VideoID, fmt.Errorf("publish thumbnail job: %w", err))
	}

	labels := make([]string, len(produced))
	for i, q := range produced {
		labels[i] = q.Quality
	}
	u.emitEvent(ctx, job, domain.StatusCompleted, labels)

	logger.Log.Info("processing completed",
		zap.Uint("video_id", job.VideoID),
		zap.Strings("qualities", labels))

	if len(failed) > 0 {
		return pipeline.PartialSuccess(job.VideoID, failed)
	}
	return pipeline.Succeed(job.VideoID)
}

func (u *transcodeUseCase) encode(ctx context.Context, input, output string, p domain.Preset) error {
	if u.encodeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.encodeTimeout)
		defer cancel()
	}
	return u.encoder.Encode(ctx, input, output, p)
}

// emitEvent publish the terminal status to kafka, best effort
func (u *transcodeUseCase) emitEvent(ctx context.Context, job domain.TranscodeJob, status domain.VideoStatus, qualities []string) {
	if u.events == nil {
		return
	}
	event := domain.PipelineEvent{
		VideoID:    job.VideoID,
		Filename:   job.Filename,
		Status:     status,
		Qualities:  qualities,
		OccurredAt: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorf("marshal pipeline event failed:", err,
			zap.Uint("video_id", job.VideoID))
		return
	}
	if err := u.events.WriteMessage(ctx, fmt.Sprint(job.VideoID), data); err != nil {
		logger.Log.Errorf("publish pipeline event failed:", err,
			zap.Uint("video_id", job.VideoID))
	}
}

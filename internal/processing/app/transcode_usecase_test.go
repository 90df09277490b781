package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"video_pipeline_service/internal/pipeline"
	"video_pipeline_service/internal/videos/domain"
	"video_pipeline_service/pkg/logger"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockVideoRepo 是 VideoRepo 的 Mock
type MockVideoRepo struct {
	mock.Mock
}

func (m *MockVideoRepo) AutoMigrate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockVideoRepo) Create(video *domain.Video) error {
	args := m.Called(video)
	return args.Error(0)
}

func (m *MockVideoRepo) GetByID(id uint) (*domain.Video, error) {
	args := m.Called(id)
	return args.Get(0).(*domain.Video), args.Error(1)
}

func (m *MockVideoRepo) List() ([]domain.Video, error) {
	args := m.Called()
	return args.Get(0).([]domain.Video), args.Error(1)
}

func (m *MockVideoRepo) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockVideoRepo) UpdateStatus(id uint, status domain.VideoStatus) error {
	args := m.Called(id, status)
	return args.Error(0)
}

func (m *MockVideoRepo) FinishProcessing(id uint, status domain.VideoStatus, qualities []domain.VideoQuality) error {
	args := m.Called(id, status, qualities)
	return args.Error(0)
}

func (m *MockVideoRepo) GetQuality(videoID uint, quality string) (*domain.VideoQuality, error) {
	args := m.Called(videoID, quality)
	return args.Get(0).(*domain.VideoQuality), args.Error(1)
}

// MockRabbitRepo 是 RabbitRepo 的 Mock
type MockRabbitRepo struct {
	mock.Mock
}

func (m *MockRabbitRepo) PublishJSON(queue string, v interface{}) error {
	args := m.Called(queue, v)
	return args.Error(0)
}

func (m *MockRabbitRepo) Consume(queue string, prefetch int) (<-chan amqp.Delivery, error) {
	args := m.Called(queue, prefetch)
	return args.Get(0).(<-chan amqp.Delivery), args.Error(1)
}

func (m *MockRabbitRepo) Close() {
	m.Called()
}

// MockKafkaRepo 是 KafkaRepo 的 Mock
type MockKafkaRepo struct {
	mock.Mock
}

func (m *MockKafkaRepo) WriteMessage(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockKafkaRepo) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockEncoder 是 Encoder 的 Mock
type MockEncoder struct {
	mock.Mock
}

func (m *MockEncoder) Encode(ctx context.Context, inputPath, outputPath string, p domain.Preset) error {
	args := m.Called(ctx, inputPath, outputPath, p)
	return args.Error(0)
}

func testPresets() []domain.Preset {
	return []domain.Preset{
		{Label: "360p", Width: 640, Height: 360, Bitrate: "800k"},
		{Label: "480p", Width: 854, Height: 480, Bitrate: "1500k"},
		{Label: "720p", Width: 1280, Height: 720, Bitrate: "2500k"},
	}
}

func testJob() domain.TranscodeJob {
	return domain.TranscodeJob{
		Version:       domain.MessageVersion,
		VideoID:       7,
		Filename:      "clip.mp4",
		FilePath:      "/data/uploads/7/clip.mp4",
		ProcessedPath: "/data/encoded/7/clip.mp4",
	}
}

// 測試 Process
func TestProcess(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	// **情境 1: 全部 preset 成功**
	t.Run("全部 preset 成功", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		mockBus := new(MockRabbitRepo)
		mockEnc := new(MockEncoder)
		usecase := NewTranscodeUseCase(mockRepo, mockBus, nil, mockEnc, testPresets(), "/data/thumbnails", 0)

		job := testJob()
		mockRepo.On("UpdateStatus", uint(7), domain.StatusProcessing).Return(nil).Once()
		mockEnc.On("Encode", ctx, job.FilePath, "/data/encoded/7/clip_360p.mp4", mock.Anything).Return(nil).Once()
		mockEnc.On("Encode", ctx, job.FilePath, "/data/encoded/7/clip_480p.mp4", mock.Anything).Return(nil).Once()
		mockEnc.On("Encode", ctx, job.FilePath, "/data/encoded/7/clip_720p.mp4", mock.Anything).Return(nil).Once()

		mockRepo.On("FinishProcessing", uint(7), domain.StatusCompleted, mock.MatchedBy(func(qs []domain.VideoQuality) bool {
			return len(qs) == 3 && qs[0].Quality == "360p" && qs[2].Quality == "720p"
		})).Return(nil).Once()

		// 縮圖工作必須指向最後成功的 preset
		mockBus.On("PublishJSON", domain.ThumbnailQueue, mock.MatchedBy(func(j domain.ThumbnailJob) bool {
			return j.VideoID == 7 &&
				j.ProcessedPath == "/data/encoded/7/clip_720p.mp4" &&
				j.ThumbnailPath == "/data/thumbnails/7/clip.jpg"
		})).Return(nil).Once()

		res := usecase.Process(ctx, job)

		assert.Equal(t, pipeline.Success, res.Code)
		assert.Equal(t, uint(7), res.VideoID)
		mockRepo.AssertExpectations(t)
		mockBus.AssertExpectations(t)
		mockEnc.AssertExpectations(t)
	})

	// **情境 2: 單一 preset 失敗時其餘照常落地**
	t.Run("單一 preset 失敗時其餘照常落地", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		mockBus := new(MockRabbitRepo)
		mockEnc := new(MockEncoder)
		usecase := NewTranscodeUseCase(mockRepo, mockBus, nil, mockEnc, testPresets(), "/data/thumbnails", 0)

		job := testJob()
		mockRepo.On("UpdateStatus", uint(7), domain.StatusProcessing).Return(nil).Once()
		mockEnc.On("Encode", ctx, job.FilePath, "/data/encoded/7/clip_360p.mp4", mock.Anything).Return(nil).Once()
		mockEnc.On("Encode", ctx, job.FilePath, "/data/encoded/7/clip_480p.mp4", mock.Anything).Return(errors.New("ffmpeg exit 1")).Once()
		mockEnc.On("Encode", ctx, job.FilePath, "/data/encoded/7/clip_720p.mp4", mock.Anything).Return(nil).Once()

		mockRepo.On("FinishProcessing", uint(7), domain.StatusCompleted, mock.MatchedBy(func(qs []domain.VideoQuality) bool {
			return len(qs) == 2 && qs[0].Quality == "360p" && qs[1].Quality == "720p"
		})).Return(nil).Once()

		mockBus.On("PublishJSON", domain.ThumbnailQueue, mock.MatchedBy(func(j domain.ThumbnailJob) bool {
			return j.ProcessedPath == "/data/encoded/7/clip_720p.mp4"
		})).Return(nil).Once()

		res := usecase.Process(ctx, job)

		assert.Equal(t, pipeline.Partial, res.Code)
		assert.Equal(t, []string{"480p"}, res.FailedPresets)
		assert.True(t, res.Completed())
		mockRepo.AssertExpectations(t)
		mockBus.AssertExpectations(t)
	})

	// **情境 3: 全部 preset 失敗時標記 FAILED 且不發布縮圖工作**
	t.Run("全部 preset 失敗時標記 FAILED 且不發布縮圖工作", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		mockBus := new(MockRabbitRepo)
		mockEnc := new(MockEncoder)
		usecase := NewTranscodeUseCase(mockRepo, mockBus, nil, mockEnc, testPresets(), "/data/thumbnails", 0)

		job := testJob()
		mockRepo.On("UpdateStatus", uint(7), domain.StatusProcessing).Return(nil).Once()
		mockEnc.On("Encode", ctx, job.FilePath, mock.Anything, mock.Anything).Return(errors.New("ffmpeg exit 1")).Times(3)
		mockRepo.On("FinishProcessing", uint(7), domain.StatusFailed, []domain.VideoQuality(nil)).Return(nil).Once()

		res := usecase.Process(ctx, job)

		assert.Equal(t, pipeline.HardFailure, res.Code)
		assert.Equal(t, uint(7), res.VideoID)
		assert.Contains(t, res.Err.Error(), "video_id=7")
		mockRepo.AssertExpectations(t)
		mockBus.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything)
	})

	// **情境 4: 品質落地後才發布縮圖工作**
	t.Run("品質落地後才發布縮圖工作", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		mockBus := new(MockRabbitRepo)
		mockEnc := new(MockEncoder)
		usecase := NewTranscodeUseCase(mockRepo, mockBus, nil, mockEnc, testPresets()[:1], "/data/thumbnails", 0)

		job := testJob()
		persisted := false
		mockRepo.On("UpdateStatus", uint(7), domain.StatusProcessing).Return(nil).Once()
		mockEnc.On("Encode", ctx, job.FilePath, mock.Anything, mock.Anything).Return(nil).Once()
		mockRepo.On("FinishProcessing", uint(7), domain.StatusCompleted, mock.Anything).Return(nil).Run(func(mock.Arguments) {
			persisted = true
		}).Once()
		mockBus.On("PublishJSON", domain.ThumbnailQueue, mock.Anything).Return(nil).Run(func(mock.Arguments) {
			assert.True(t, persisted, "縮圖工作必須在品質落地之後才發布")
		}).Once()

		res := usecase.Process(ctx, job)
		assert.Equal(t, pipeline.Success, res.Code)
		mockRepo.AssertExpectations(t)
		mockBus.AssertExpectations(t)
	})

	// **情境 5: 落地失敗時回報 transient 等待重投遞**
	t.Run("落地失敗時回報 transient 等待重投遞", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		mockBus := new(MockRabbitRepo)
		mockEnc := new(MockEncoder)
		usecase := NewTranscodeUseCase(mockRepo, mockBus, nil, mockEnc, testPresets()[:1], "/data/thumbnails", 0)

		job := testJob()
		mockRepo.On("UpdateStatus", uint(7), domain.StatusProcessing).Return(nil).Once()
		mockEnc.On("Encode", ctx, job.FilePath, mock.Anything, mock.Anything).Return(nil).Once()
		mockRepo.On("FinishProcessing", uint(7), domain.StatusCompleted, mock.Anything).Return(errors.New("db down")).Once()

		res := usecase.Process(ctx, job)

		assert.Equal(t, pipeline.TransientFailure, res.Code)
		mockBus.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything)
	})

	// **情境 6: 發布縮圖工作失敗時回報 transient**
	t.Run("發布縮圖工作失敗時回報 transient", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		mockBus := new(MockRabbitRepo)
		mockEnc := new(MockEncoder)
		usecase := NewTranscodeUseCase(mockRepo, mockBus, nil, mockEnc, testPresets()[:1], "/data/thumbnails", 0)

		job := testJob()
		mockRepo.On("UpdateStatus", uint(7), domain.StatusProcessing).Return(nil).Once()
		mockEnc.On("Encode", ctx, job.FilePath, mock.Anything, mock.Anything).Return(nil).Once()
		mockRepo.On("FinishProcessing", uint(7), domain.StatusCompleted, mock.Anything).Return(nil).Once()
		mockBus.On("PublishJSON", domain.ThumbnailQueue, mock.Anything).Return(errors.New("rabbit error")).Once()

		res := usecase.Process(ctx, job)
		assert.Equal(t, pipeline.TransientFailure, res.Code)
	})

	// **情境 7: 標記 PROCESSING 失敗時不執行任何編碼**
	t.Run("標記 PROCESSING 失敗時不執行任何編碼", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		mockBus := new(MockRabbitRepo)
		mockEnc := new(MockEncoder)
		usecase := NewTranscodeUseCase(mockRepo, mockBus, nil, mockEnc, testPresets(), "/data/thumbnails", 0)

		mockRepo.On("UpdateStatus", uint(7), domain.StatusProcessing).Return(errors.New("db down")).Once()

		res := usecase.Process(ctx, testJob())

		assert.Equal(t, pipeline.TransientFailure, res.Code)
		mockEnc.AssertNotCalled(t, "Encode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	// **情境 8: 欄位不完整的訊息直接丟棄**
	t.Run("欄位不完整的訊息直接丟棄", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		mockBus := new(MockRabbitRepo)
		mockEnc := new(MockEncoder)
		usecase := NewTranscodeUseCase(mockRepo, mockBus, nil, mockEnc, testPresets(), "/data/thumbnails", 0)

		job := testJob()
		job.ProcessedPath = ""
		res := usecase.Process(ctx, job)

		assert.Equal(t, pipeline.BadMessage, res.Code)
		mockRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
	})

	// **情境 9: 終態透過 kafka 對外發布**
	t.Run("終態透過 kafka 對外發布", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		mockBus := new(MockRabbitRepo)
		mockEnc := new(MockEncoder)
		mockEvents := new(MockKafkaRepo)
		usecase := NewTranscodeUseCase(mockRepo, mockBus, mockEvents, mockEnc, testPresets()[:1], "/data/thumbnails", 0)

		job := testJob()
		mockRepo.On("UpdateStatus", uint(7), domain.StatusProcessing).Return(nil).Once()
		mockEnc.On("Encode", ctx, job.FilePath, mock.Anything, mock.Anything).Return(nil).Once()
		mockRepo.On("FinishProcessing", uint(7), domain.StatusCompleted, mock.Anything).Return(nil).Once()
		mockBus.On("PublishJSON", domain.ThumbnailQueue, mock.Anything).Return(nil).Once()
		mockEvents.On("WriteMessage", ctx, "7", mock.MatchedBy(func(data []byte) bool {
			var event domain.PipelineEvent
			if err := json.Unmarshal(data, &event); err != nil {
				return false
			}
			return event.VideoID == 7 && event.Status == domain.StatusCompleted && len(event.Qualities) == 1
		})).Return(nil).Once()

		res := usecase.Process(ctx, job)
		assert.Equal(t, pipeline.Success, res.Code)
		mockEvents.AssertExpectations(t)
	})
}

func TestNewTranscodeHandler(t *testing.T) {
	logger.SetNewNop()

	// **情境 1: 無法解析的訊息回報 BadMessage**
	t.Run("無法解析的訊息回報 BadMessage", func(t *testing.T) {
		handler := NewTranscodeHandler(nil)
		res := handler(context.Background(), []byte("not json"))
		assert.Equal(t, pipeline.BadMessage, res.Code)
	})

	// **情境 2: 合法訊息轉交 usecase**
	t.Run("合法訊息轉交 usecase", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		mockBus := new(MockRabbitRepo)
		mockEnc := new(MockEncoder)
		usecase := NewTranscodeUseCase(mockRepo, mockBus, nil, mockEnc, testPresets()[:1], "/data/thumbnails", 0)
		handler := NewTranscodeHandler(usecase)

		job := testJob()
		body, _ := json.Marshal(job)
		mockRepo.On("UpdateStatus", uint(7), domain.StatusProcessing).Return(nil).Once()
		mockEnc.On("Encode", mock.Anything, job.FilePath, mock.Anything, mock.Anything).Return(nil).Once()
		mockRepo.On("FinishProcessing", uint(7), domain.StatusCompleted, mock.Anything).Return(nil).Once()
		mockBus.On("PublishJSON", domain.ThumbnailQueue, mock.Anything).Return(nil).Once()

		res := handler(context.Background(), body)
		assert.Equal(t, pipeline.Success, res.Code)
	})
}

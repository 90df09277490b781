package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"video_pipeline_service/internal/videos/domain"
	"video_pipeline_service/pkg/config"
	"video_pipeline_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func testStorage(t *testing.T) config.StorageConfig {
	t.Helper()
	return config.StorageConfig{
		UploadDir:    t.TempDir(),
		EncodedDir:   t.TempDir(),
		ThumbnailDir: t.TempDir(),
	}
}

// 測試 Get
func TestGet(t *testing.T) {
	logger.SetNewNop()

	// **情境 1: 成功取得影片狀態與畫質清單**
	t.Run("成功取得影片狀態與畫質清單", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		usecase := NewQueryUseCase(mockRepo, testStorage(t))

		uploaded := time.Now()
		mockRepo.On("GetByID", uint(1)).Return(&domain.Video{
			ID:         1,
			Filename:   "clip.mp4",
			Status:     domain.StatusCompleted,
			UploadTime: uploaded,
			Qualities: []domain.VideoQuality{
				{VideoID: 1, Quality: "360p", FilePath: "/data/encoded/1/clip_360p.mp4"},
				{VideoID: 1, Quality: "720p", FilePath: "/data/encoded/1/clip_720p.mp4"},
			},
		}, nil).Once()

		detail, err := usecase.Get(1)

		assert.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, detail.Status)
		assert.Len(t, detail.Qualities, 2)
		assert.Equal(t, "/api/v1/videos/1/download?quality=720p", detail.Qualities[1].DownloadURL)
		mockRepo.AssertExpectations(t)
	})

	// **情境 2: 影片不存在**
	t.Run("影片不存在", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		usecase := NewQueryUseCase(mockRepo, testStorage(t))

		mockRepo.On("GetByID", uint(99)).Return(nil, gorm.ErrRecordNotFound).Once()

		detail, err := usecase.Get(99)
		assert.ErrorIs(t, err, ErrVideoNotFound)
		assert.Nil(t, detail)
	})
}

// 測試 Resolve，三種 not found 必須可區分
func TestResolve(t *testing.T) {
	logger.SetNewNop()

	// **情境 1: 成功解析檔案路徑**
	t.Run("成功解析檔案路徑", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		storage := testStorage(t)
		usecase := NewQueryUseCase(mockRepo, storage)

		filePath := filepath.Join(storage.EncodedDir, "clip_720p.mp4")
		assert.NoError(t, os.WriteFile(filePath, []byte("dummy"), 0644))

		mockRepo.On("GetByID", uint(1)).Return(&domain.Video{ID: 1}, nil).Once()
		mockRepo.On("GetQuality", uint(1), "720p").Return(&domain.VideoQuality{
			VideoID: 1, Quality: "720p", FilePath: filePath,
		}, nil).Once()

		path, err := usecase.Resolve(1, "720p")
		assert.NoError(t, err)
		assert.Equal(t, filePath, path)
	})

	// **情境 2: 影片不存在**
	t.Run("影片不存在", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		usecase := NewQueryUseCase(mockRepo, testStorage(t))

		mockRepo.On("GetByID", uint(99)).Return(nil, gorm.ErrRecordNotFound).Once()

		_, err := usecase.Resolve(99, "720p")
		assert.ErrorIs(t, err, ErrVideoNotFound)
	})

	// **情境 3: 影片存在但沒有該畫質**
	t.Run("影片存在但沒有該畫質", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		usecase := NewQueryUseCase(mockRepo, testStorage(t))

		mockRepo.On("GetByID", uint(1)).Return(&domain.Video{ID: 1}, nil).Once()
		mockRepo.On("GetQuality", uint(1), "1080p").Return(nil, gorm.ErrRecordNotFound).Once()

		_, err := usecase.Resolve(1, "1080p")
		assert.ErrorIs(t, err, ErrQualityNotFound)
	})

	// **情境 4: 品質列存在但檔案遺失**
	t.Run("品質列存在但檔案遺失", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		usecase := NewQueryUseCase(mockRepo, testStorage(t))

		mockRepo.On("GetByID", uint(1)).Return(&domain.Video{ID: 1}, nil).Once()
		mockRepo.On("GetQuality", uint(1), "720p").Return(&domain.VideoQuality{
			VideoID: 1, Quality: "720p", FilePath: "/nonexistent/clip_720p.mp4",
		}, nil).Once()

		_, err := usecase.Resolve(1, "720p")
		assert.ErrorIs(t, err, ErrFileMissing)
	})
}

// 測試 ResolveThumbnail
func TestResolveThumbnail(t *testing.T) {
	logger.SetNewNop()

	// **情境 1: 成功解析縮圖路徑**
	t.Run("成功解析縮圖路徑", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		storage := testStorage(t)
		usecase := NewQueryUseCase(mockRepo, storage)

		thumbPath := domain.ThumbnailPath(storage.ThumbnailDir, 1, "clip.mp4")
		assert.NoError(t, os.MkdirAll(filepath.Dir(thumbPath), 0755))
		assert.NoError(t, os.WriteFile(thumbPath, []byte("jpg"), 0644))

		mockRepo.On("GetByID", uint(1)).Return(&domain.Video{ID: 1, Filename: "clip.mp4"}, nil).Once()

		path, err := usecase.ResolveThumbnail(1)
		assert.NoError(t, err)
		assert.Equal(t, thumbPath, path)
	})

	// **情境 2: 縮圖尚未產生**
	t.Run("縮圖尚未產生", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		usecase := NewQueryUseCase(mockRepo, testStorage(t))

		mockRepo.On("GetByID", uint(1)).Return(&domain.Video{ID: 1, Filename: "clip.mp4"}, nil).Once()

		_, err := usecase.ResolveThumbnail(1)
		assert.ErrorIs(t, err, ErrFileMissing)
	})
}

// 測試 Delete
func TestDelete(t *testing.T) {
	logger.SetNewNop()

	// **情境 1: 成功刪除影片與三個目錄**
	t.Run("成功刪除影片與三個目錄", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		storage := testStorage(t)
		usecase := NewQueryUseCase(mockRepo, storage)

		for _, dir := range domain.VideoDirs(storage.UploadDir, storage.EncodedDir, storage.ThumbnailDir, 1) {
			assert.NoError(t, os.MkdirAll(dir, 0755))
		}

		mockRepo.On("GetByID", uint(1)).Return(&domain.Video{ID: 1}, nil).Once()
		mockRepo.On("Delete", uint(1)).Return(nil).Once()

		assert.NoError(t, usecase.Delete(1))

		for _, dir := range domain.VideoDirs(storage.UploadDir, storage.EncodedDir, storage.ThumbnailDir, 1) {
			_, err := os.Stat(dir)
			assert.True(t, os.IsNotExist(err))
		}
		mockRepo.AssertExpectations(t)
	})

	// **情境 2: 影片不存在**
	t.Run("影片不存在", func(t *testing.T) {
		mockRepo := new(MockVideoRepo)
		usecase := NewQueryUseCase(mockRepo, testStorage(t))

		mockRepo.On("GetByID", uint(99)).Return(nil, gorm.ErrRecordNotFound).Once()

		err := usecase.Delete(99)
		assert.ErrorIs(t, err, ErrVideoNotFound)
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything)
	})
}

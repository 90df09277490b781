package app

import (
	"errors"
	"fmt"
	"os"

	"video_pipeline_service/internal/videos/domain"
	"video_pipeline_service/internal/videos/repository"
	"video_pipeline_service/pkg/config"
	"video_pipeline_service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 查詢介面的三種 not found 必須可區分；ErrFileMissing 是資料修復訊號，
// 不是 client 錯誤
var (
	// ErrVideoNotFound the video id is unknown
	ErrVideoNotFound = errors.New("video not found")
	// ErrQualityNotFound the video exists but has no such quality
	ErrQualityNotFound = errors.New("quality not found for this video")
	// ErrFileMissing a quality row exists but its file is gone from disk
	ErrFileMissing = errors.New("video file missing on disk")
)

// QueryUseCase 這裡封裝了狀態查詢介面 (read path)
type QueryUseCase interface {
	Get(videoID uint) (*domain.VideoDetail, error)
	List() ([]domain.VideoDetail, error)
	// Resolve a (video, quality) pair to the variant's file path
	Resolve(videoID uint, quality string) (string, error)
	// ResolveThumbnail resolve the thumbnail path of a video
	ResolveThumbnail(videoID uint) (string, error)
	// Delete remove the video's rows and its three per-root directories
	Delete(videoID uint) error
}

type queryUseCase struct {
	repo    repository.VideoRepo
	storage config.StorageConfig
}

// NewQueryUseCase 建立一個新的 QueryUseCase
func NewQueryUseCase(repo repository.VideoRepo, storage config.StorageConfig) QueryUseCase {
	return &queryUseCase{repo: repo, storage: storage}
}

// DownloadRef build the download reference for one quality of a video
func DownloadRef(videoID uint, quality string) string {
	return fmt.Sprintf("/api/v1/videos/%d/download?quality=%s", videoID, quality)
}

func toDetail(v *domain.Video) *domain.VideoDetail {
	detail := &domain.VideoDetail{
		ID:         v.ID,
		Filename:   v.Filename,
		Status:     v.Status,
		UploadTime: v.UploadTime,
		Qualities:  make([]domain.QualityRef, len(v.Qualities)),
	}
	for i, q := range v.Qualities {
		detail.Qualities[i] = domain.QualityRef{
			Quality:     q.Quality,
			DownloadURL: DownloadRef(v.ID, q.Quality),
		}
	}
	return detail
}

// Get current status and available qualities of one video
func (s *queryUseCase) Get(videoID uint) (*domain.VideoDetail, error) {
	video, err := s.repo.GetByID(videoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("load video %d: %w", videoID, err)
	}
	return toDetail(video), nil
}

// List all videos
func (s *queryUseCase) List() ([]domain.VideoDetail, error) {
	videos, err := s.repo.List()
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	details := make([]domain.VideoDetail, len(videos))
	for i := range videos {
		details[i] = *toDetail(&videos[i])
	}
	return details, nil
}

// Resolve map a (video, quality) pair to a file path, keeping the three
// not-found classes distinct.
func (s *queryUseCase) Resolve(videoID uint, quality string) (string, error) {
	if _, err := s.repo.GetByID(videoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrVideoNotFound
		}
		return "", fmt.Errorf("load video %d: %w", videoID, err)
	}

	q, err := s.repo.GetQuality(videoID, quality)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrQualityNotFound
		}
		return "", fmt.Errorf("load quality %s of video %d: %w", quality, videoID, err)
	}

	if _, err := os.Stat(q.FilePath); err != nil {
		logger.Log.Error("quality row without backing file",
			zap.Uint("video_id", videoID),
			zap.String("quality", quality),
			zap.String("path", q.FilePath))
		return "", fmt.Errorf("%w: %s", ErrFileMissing, q.FilePath)
	}
	return q.FilePath, nil
}

// ResolveThumbnail map a video to its thumbnail path
func (s *queryUseCase) ResolveThumbnail(videoID uint) (string, error) {
	video, err := s.repo.GetByID(videoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrVideoNotFound
		}
		return "", fmt.Errorf("load video %d: %w", videoID, err)
	}

	path := domain.ThumbnailPath(s.storage.ThumbnailDir, videoID, video.Filename)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrFileMissing, path)
	}
	return path, nil
}

// Delete remove rows and the per-video directory under each storage root
func (s *queryUseCase) Delete(videoID uint) error {
	if _, err := s.repo.GetByID(videoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVideoNotFound
		}
		return fmt.Errorf("load video %d: %w", videoID, err)
	}

	dirs := domain.VideoDirs(s.storage.UploadDir, s.storage.EncodedDir, s.storage.ThumbnailDir, videoID)
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			logger.Log.Errorf("delete video directory failed:", err,
				zap.Uint("video_id", videoID),
				zap.String("dir", dir))
		}
	}

	if err := s.repo.Delete(videoID); err != nil {
		return fmt.Errorf("delete video %d rows: %w", videoID, err)
	}
	logger.Log.Info("video deleted", zap.Uint("video_id", videoID))
	return nil
}

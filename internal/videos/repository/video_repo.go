package repository

import (
	"video_pipeline_service/internal/videos/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VideoRepo definition video status store
type VideoRepo interface {
	AutoMigrate() error
	Create(video *domain.Video) error
	GetByID(id uint) (*domain.Video, error)
	List() ([]domain.Video, error)
	Delete(id uint) error
	UpdateStatus(id uint, status domain.VideoStatus) error
	// FinishProcessing upserts the produced quality rows and flips the
	// status in one transaction, so the flip and its rows are never
	// visibly split.
	FinishProcessing(id uint, status domain.VideoStatus, qualities []domain.VideoQuality) error
	GetQuality(videoID uint, quality string) (*domain.VideoQuality, error)
}

type videoRepo struct {
	db *gorm.DB
}

// NewVideoRepo create VideoRepo
func NewVideoRepo(db *gorm.DB) VideoRepo {
	return &videoRepo{db: db}
}

// AutoMigrate 自動建立/更新 videos 與 video_qualities 資料表
func (r *videoRepo) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Video{}, &domain.VideoQuality{})
}

// Create insert a video row
func (r *videoRepo) Create(video *domain.Video) error {
	return r.db.Create(video).Error
}

// GetByID get a video with its qualities, ordered by insertion
func (r *videoRepo) GetByID(id uint) (*domain.Video, error) {
	var v domain.Video
	err := r.db.
		Preload("Qualities", func(db *gorm.DB) *gorm.DB {
			return db.Order("video_qualities.id ASC")
		}).
		First(&v, id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// List all videos with their qualities
func (r *videoRepo) List() ([]domain.Video, error) {
	var videos []domain.Video
	err := r.db.
		Preload("Qualities", func(db *gorm.DB) *gorm.DB {
			return db.Order("video_qualities.id ASC")
		}).
		Order("id ASC").
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// Delete remove a video and its quality rows in one transaction
func (r *videoRepo) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", id).Delete(&domain.VideoQuality{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Video{}, id).Error
	})
}

// UpdateStatus set the status of one video
func (r *videoRepo) UpdateStatus(id uint, status domain.VideoStatus) error {
	return r.db.Model(&domain.Video{}).Where("id = ?", id).
		Update("status", status).Error
}

// FinishProcessing upsert produced qualities and set the terminal status.
// ON CONFLICT (video_id, quality) keeps redelivered jobs from duplicating rows.
func (r *videoRepo) FinishProcessing(id uint, status domain.VideoStatus, qualities []domain.VideoQuality) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range qualities {
			q := qualities[i]
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "video_id"}, {Name: "quality"}},
				DoUpdates: clause.AssignmentColumns([]string{"file_path"}),
			}).Create(&q).Error
			if err != nil {
				return err
			}
		}
		return tx.Model(&domain.Video{}).Where("id = ?", id).
			Update("status", status).Error
	})
}

// GetQuality get one quality row of a video
func (r *videoRepo) GetQuality(videoID uint, quality string) (*domain.VideoQuality, error) {
	var q domain.VideoQuality
	err := r.db.Where("video_id = ? AND quality = ?", videoID, quality).First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

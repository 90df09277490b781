package domain

import "time"

// VideoStatus definition video lifecycle status
type VideoStatus string

const (
	// StatusUploaded video row created and original bytes stored
	StatusUploaded VideoStatus = "UPLOADED"
	// StatusProcessing transcode stage picked the job up
	StatusProcessing VideoStatus = "PROCESSING"
	// StatusCompleted at least one variant was produced
	StatusCompleted VideoStatus = "COMPLETED"
	// StatusFailed no preset produced a variant
	StatusFailed VideoStatus = "FAILED"
)

// Video 定義影片模型
type Video struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Filename   string         `gorm:"size:255" json:"filename"`
	Status     VideoStatus    `gorm:"size:20" json:"status"`
	UploadTime time.Time      `gorm:"autoCreateTime" json:"upload_time"`
	Qualities  []VideoQuality `gorm:"foreignKey:VideoID" json:"qualities"`
}

// VideoQuality one produced resolution variant of a video.
// (video_id, quality) is unique so redelivered jobs upsert instead of duplicating.
type VideoQuality struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	VideoID  uint   `gorm:"uniqueIndex:idx_video_quality" json:"-"`
	Quality  string `gorm:"size:10;uniqueIndex:idx_video_quality" json:"quality"`
	FilePath string `gorm:"size:255" json:"file_path"`
}

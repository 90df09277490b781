package domain

import "fmt"

const (
	// UploadQueue gateway -> upload stage
	UploadQueue = "upload_queue"
	// ProcessingQueue upload stage -> transcode stage
	ProcessingQueue = "processing_queue"
	// ThumbnailQueue transcode stage -> thumbnail stage
	ThumbnailQueue = "thumbnail_queue"

	// MessageVersion current schema version carried by every queue message
	MessageVersion = 1
)

// UploadJob 定義上傳完成訊息 (upload_queue)
type UploadJob struct {
	Version  int    `json:"version"`
	VideoID  uint   `json:"video_id"`
	Filename string `json:"filename"`
	FilePath string `json:"file_path"`
}

// Validate check required fields
func (j UploadJob) Validate() error {
	if j.Version != MessageVersion {
		return fmt.Errorf("upload job: unsupported version %d", j.Version)
	}
	if j.VideoID == 0 {
		return fmt.Errorf("upload job: missing video_id")
	}
	if j.Filename == "" || j.FilePath == "" {
		return fmt.Errorf("upload job: missing filename or file_path (video_id=%d)", j.VideoID)
	}
	return nil
}

// TranscodeJob 定義轉碼工作訊息 (processing_queue)
type TranscodeJob struct {
	Version  int    `json:"version"`
	VideoID  uint   `json:"video_id"`
	Filename string `json:"filename"`
	FilePath string `json:"file_path"`
	// ProcessedPath is the base output path; variant paths derive from it.
	ProcessedPath string `json:"processed_path"`
}

// Validate check required fields
func (j TranscodeJob) Validate() error {
	if j.Version != MessageVersion {
		return fmt.Errorf("transcode job: unsupported version %d", j.Version)
	}
	if j.VideoID == 0 {
		return fmt.Errorf("transcode job: missing video_id")
	}
	if j.Filename == "" || j.FilePath == "" || j.ProcessedPath == "" {
		return fmt.Errorf("transcode job: missing path field (video_id=%d)", j.VideoID)
	}
	return nil
}

// ThumbnailJob 定義縮圖工作訊息 (thumbnail_queue)
type ThumbnailJob struct {
	Version       int    `json:"version"`
	VideoID       uint   `json:"video_id"`
	Filename      string `json:"filename"`
	ProcessedPath string `json:"processed_path"`
	ThumbnailPath string `json:"thumbnail_path"`
}

// Validate check required fields
func (j ThumbnailJob) Validate() error {
	if j.Version != MessageVersion {
		return fmt.Errorf("thumbnail job: unsupported version %d", j.Version)
	}
	if j.VideoID == 0 {
		return fmt.Errorf("thumbnail job: missing video_id")
	}
	if j.ProcessedPath == "" || j.ThumbnailPath == "" {
		return fmt.Errorf("thumbnail job: missing path field (video_id=%d)", j.VideoID)
	}
	return nil
}

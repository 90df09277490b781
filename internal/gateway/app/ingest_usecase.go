package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"video_pipeline_service/internal/videos/domain"
	"video_pipeline_service/internal/videos/repository"
	"video_pipeline_service/pkg/database"
	errprocess "video_pipeline_service/pkg/err"
	"video_pipeline_service/pkg/logger"

	"go.uber.org/zap"
)

// IngestUseCase 這裡封裝了 ingest stage：建立狀態列、落地原始檔、
// 發布 upload 工作。任一步失敗時回補，不留孤兒狀態列。
type IngestUseCase interface {
	Upload(req domain.UploadVideoReq) (*domain.Video, error)
}

type ingestUseCase struct {
	repo      repository.VideoRepo
	bus       database.RabbitRepo
	uploadDir string
}

// NewIngestUseCase 建立一個新的 IngestUseCase
func NewIngestUseCase(repo repository.VideoRepo, bus database.RabbitRepo, uploadDir string) IngestUseCase {
	return &ingestUseCase{repo: repo, bus: bus, uploadDir: uploadDir}
}

// 讓 unit test mock 檔案操作使用的包裝函數
var (
	createDir = func(path string) error {
		return os.MkdirAll(path, 0755)
	}

	createFile = func(name string) (*os.File, error) {
		return os.Create(name)
	}

	copyFile = func(dst *os.File, src io.Reader) (written int64, err error) {
		return io.Copy(dst, src)
	}
)

// Upload create the status row first to obtain the id, store the bytes
// under the per-video upload directory, then publish exactly one upload
// job. A failure after row creation deletes the row (and any partial
// file) so no status record survives without backing bytes; a publish
// failure is reported to the caller, who must not assume the job was queued.
func (s *ingestUseCase) Upload(req domain.UploadVideoReq) (*domain.Video, error) {
	video := domain.Video{
		Filename: req.Filename,
		Status:   domain.StatusUploaded,
	}
	if err := s.repo.Create(&video); err != nil {
		errMsg := fmt.Sprintf("fileName[%s] 資料庫建立影片失敗 : %v", req.Filename, err)
		return nil, errprocess.Set(errMsg)
	}

	videoDir := filepath.Join(s.uploadDir, fmt.Sprint(video.ID))
	if err := createDir(videoDir); err != nil {
		s.compensate(video.ID, videoDir)
		errMsg := fmt.Sprintf("fileName[%s] 建立上傳目錄失敗 : %v", req.Filename, err)
		return nil, errprocess.Set(errMsg)
	}

	filePath := domain.UploadPath(s.uploadDir, video.ID, req.Filename)
	dst, err := createFile(filePath)
	if err != nil {
		s.compensate(video.ID, videoDir)
		errMsg := fmt.Sprintf("fileName[%s] 建立檔案失敗 : %v", req.Filename, err)
		return nil, errprocess.Set(errMsg)
	}
	if _, err := copyFile(dst, req.File); err != nil {
		dst.Close()
		s.compensate(video.ID, videoDir)
		errMsg := fmt.Sprintf("fileName[%s] 儲存檔案失敗 : %v", req.Filename, err)
		return nil, errprocess.Set(errMsg)
	}
	if err := dst.Close(); err != nil {
		s.compensate(video.ID, videoDir)
		errMsg := fmt.Sprintf("fileName[%s] 關閉檔案失敗 : %v", req.Filename, err)
		return nil, errprocess.Set(errMsg)
	}

	job := domain.UploadJob{
		Version:  domain.MessageVersion,
		VideoID:  video.ID,
		Filename: req.Filename,
		FilePath: filePath,
	}
	if err := s.bus.PublishJSON(domain.UploadQueue, job); err != nil {
		s.compensate(video.ID, videoDir)
		errMsg := fmt.Sprintf("fileName[%s] 發送 RabbitMQ 訊息失敗 : %v", req.Filename, err)
		return nil, errprocess.Set(errMsg)
	}

	logger.Log.Info("video ingested",
		zap.Uint("video_id", video.ID),
		zap.String("filename", req.Filename))
	return &video, nil
}

// compensate roll the partial ingest back: remove the per-video upload
// directory and delete the status row.
func (s *ingestUseCase) compensate(videoID uint, videoDir string) {
	if err := os.RemoveAll(videoDir); err != nil {
		logger.Log.Errorf("cleanup upload dir failed:", err,
			zap.Uint("video_id", videoID))
	}
	if err := s.repo.Delete(videoID); err != nil {
		logger.Log.Errorf("rollback video row failed:", err,
			zap.Uint("video_id", videoID))
	}
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"video_pipeline_service/internal/gateway/app"
	"video_pipeline_service/internal/videos/domain"
	"video_pipeline_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// VideoHandler definition video handler
// VideoHandler 定義影片上傳與查詢處理器
type VideoHandler struct {
	Ingest app.IngestUseCase
	Query  app.QueryUseCase
}

// UploadVideo 接收上傳請求，完成存檔、資料庫寫入與發布上傳工作訊息
func (h *VideoHandler) UploadVideo(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "未檢測到檔案"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "讀取上傳檔案失敗"})
	}
	defer src.Close()

	video, err := h.Ingest.Upload(domain.UploadVideoReq{
		Filename: fileHeader.Filename,
		File:     src,
	})
	if err != nil {
		logger.Log.Errorf("UploadVideo 上傳失敗:", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "上傳失敗"})
	}

	return c.JSON(fiber.Map{
		"msg":      "上傳成功，等待轉碼",
		"video_id": video.ID,
		"status":   video.Status,
	})
}

// ListVideos list all videos with their status
func (h *VideoHandler) ListVideos(c *fiber.Ctx) error {
	videos, err := h.Query.List()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "查詢失敗"})
	}
	return c.JSON(videos)
}

// GetVideo get one video's status and available qualities
func (h *VideoHandler) GetVideo(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "影片 id 格式錯誤"})
	}

	detail, err := h.Query.Get(uint(id))
	if err != nil {
		if errors.Is(err, app.ErrVideoNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "找不到影片"})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "查詢失敗"})
	}
	return c.JSON(detail)
}

// DownloadVideo 下載指定畫質的影片；未帶 quality 參數時回傳可用畫質清單
func (h *VideoHandler) DownloadVideo(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "影片 id 格式錯誤"})
	}

	quality := c.Query("quality")
	if quality == "" {
		detail, err := h.Query.Get(uint(id))
		if err != nil {
			if errors.Is(err, app.ErrVideoNotFound) {
				return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "找不到影片"})
			}
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "查詢失敗"})
		}
		return c.JSON(fiber.Map{
			"video_id":  detail.ID,
			"status":    detail.Status,
			"qualities": detail.Qualities,
		})
	}

	path, err := h.Query.Resolve(uint(id), quality)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrVideoNotFound):
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "找不到影片"})
		case errors.Is(err, app.ErrQualityNotFound):
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "此影片沒有該畫質"})
		default:
			logger.Log.Errorf("DownloadVideo 檔案遺失:", err)
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "影片檔案遺失"})
		}
	}

	c.Set("Content-Type", "video/mp4")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filepath.Base(path)))
	return c.SendFile(path)
}

// StreamVideo 以支援 Range 的方式回放指定畫質的影片
func (h *VideoHandler) StreamVideo(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "影片 id 格式錯誤"})
	}

	path, err := h.Query.Resolve(uint(id), c.Query("quality"))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrVideoNotFound):
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "找不到影片"})
		case errors.Is(err, app.ErrQualityNotFound):
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "此影片沒有該畫質"})
		default:
			logger.Log.Errorf("StreamVideo 檔案遺失:", err)
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "影片檔案遺失"})
		}
	}

	c.Set("Content-Type", "video/mp4")
	return c.SendFile(path)
}

// GetThumbnail 回傳影片縮圖
func (h *VideoHandler) GetThumbnail(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "影片 id 格式錯誤"})
	}

	path, err := h.Query.ResolveThumbnail(uint(id))
	if err != nil {
		if errors.Is(err, app.ErrVideoNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "找不到影片"})
		}
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "縮圖尚未產生"})
	}

	c.Set("Content-Type", "image/jpeg")
	return c.SendFile(path)
}

// DeleteVideo 刪除影片記錄與所有相關檔案
func (h *VideoHandler) DeleteVideo(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "影片 id 格式錯誤"})
	}

	if err := h.Query.Delete(uint(id)); err != nil {
		if errors.Is(err, app.ErrVideoNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "找不到影片"})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "刪除失敗"})
	}
	return c.JSON(fiber.Map{"msg": "刪除成功", "video_id": id})
}

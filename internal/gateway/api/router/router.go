package router

import (
	"video_pipeline_service/internal/gateway/api/handlers"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 注册影片相关的路由
func RegisterRoutes(app *fiber.App, videoHandler *handlers.VideoHandler) {
	v1 := app.Group("/api/v1")
	v1.Post("/videos", videoHandler.UploadVideo)
	v1.Get("/videos", videoHandler.ListVideos)
	v1.Get("/videos/:id", videoHandler.GetVideo)
	v1.Get("/videos/:id/download", videoHandler.DownloadVideo)
	v1.Get("/videos/:id/stream", videoHandler.StreamVideo)
	v1.Get("/videos/:id/thumbnail", videoHandler.GetThumbnail)
	v1.Delete("/videos/:id", videoHandler.DeleteVideo)
}

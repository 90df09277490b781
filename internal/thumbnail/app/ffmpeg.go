package app

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// FrameExtractor invokes the external single-frame extraction tool.
type FrameExtractor interface {
	Extract(ctx context.Context, inputPath, outputPath string) error
}

// FFmpegExtractor extract one frame with the ffmpeg binary on PATH
type FFmpegExtractor struct {
	Width  int
	Height int
	// SeekOffset position of the extracted frame
	SeekOffset string
}

// NewFFmpegExtractor create a FFmpegExtractor; zero sizes fall back to 320x180
func NewFFmpegExtractor(width, height int) *FFmpegExtractor {
	if width <= 0 || height <= 0 {
		width, height = 320, 180 // 16:9
	}
	return &FFmpegExtractor{Width: width, Height: height, SeekOffset: "00:00:02"}
}

// Extract 從影片第 2 秒擷取單一張縮圖，-y 確保重投遞時覆寫舊檔
func (e *FFmpegExtractor) Extract(ctx context.Context, inputPath, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create thumbnail dir: %w", err)
	}

	cmdArgs := []string{
		"-ss", e.SeekOffset,
		"-i", inputPath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:%d", e.Width, e.Height),
		"-y",
		outputPath,
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg 縮圖錯誤: %v, output: %s", err, string(output))
	}
	return nil
}

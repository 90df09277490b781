package app

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"video_pipeline_service/internal/videos/domain"
)

// Encoder invokes the external transcode tool for one preset.
// Non-zero exit is the sole failure signal.
type Encoder interface {
	Encode(ctx context.Context, inputPath, outputPath string, p domain.Preset) error
}

// FFmpegEncoder encode with the ffmpeg binary on PATH
type FFmpegEncoder struct {
	AudioBitrate string
}

// NewFFmpegEncoder create a FFmpegEncoder
func NewFFmpegEncoder(audioBitrate string) *FFmpegEncoder {
	if audioBitrate == "" {
		audioBitrate = domain.DefaultAudioBitrate
	}
	return &FFmpegEncoder{AudioBitrate: audioBitrate}
}

// Encode 將 inputPath 轉成指定 preset 的 MP4，輸出到 outputPath。
// +faststart 讓 moov 前置以支援漸進式播放，-y 確保重投遞時覆寫舊檔。
func (e *FFmpegEncoder) Encode(ctx context.Context, inputPath, outputPath string, p domain.Preset) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	cmdArgs := []string{
		"-i", inputPath,
		"-c:v", "libx264",
		"-preset", "medium",
		"-b:v", p.Bitrate,
		"-vf", fmt.Sprintf("scale=%d:%d", p.Width, p.Height),
		"-c:a", "aac",
		"-b:a", e.AudioBitrate,
		"-movflags", "+faststart",
		"-y",
		outputPath,
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg [%s] 錯誤: %v, output: %s", p.Label, err, string(output))
	}
	return nil
}

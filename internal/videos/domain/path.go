package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// UploadPath original file location: <uploadDir>/<videoID>/<filename>
func UploadPath(uploadDir string, videoID uint, filename string) string {
	return filepath.Join(uploadDir, fmt.Sprint(videoID), filename)
}

// ProcessedBasePath base output path the variant paths derive from:
// <encodedDir>/<videoID>/<filename>
func ProcessedBasePath(encodedDir string, videoID uint, filename string) string {
	return filepath.Join(encodedDir, fmt.Sprint(videoID), filename)
}

// VariantPath derive one variant path from the base output path,
// e.g. ("/encoded/7/clip.mp4", "720p") -> "/encoded/7/clip_720p.mp4"
func VariantPath(basePath, label string) string {
	dir := filepath.Dir(basePath)
	ext := filepath.Ext(basePath)
	name := strings.TrimSuffix(filepath.Base(basePath), ext)
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", name, label, ext))
}

// ThumbnailPath thumbnail location: <thumbnailDir>/<videoID>/<base>.jpg
func ThumbnailPath(thumbnailDir string, videoID uint, filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return filepath.Join(thumbnailDir, fmt.Sprint(videoID), base+".jpg")
}

// VideoDirs the three per-video directories, one under each storage root
func VideoDirs(uploadDir, encodedDir, thumbnailDir string, videoID uint) []string {
	id := fmt.Sprint(videoID)
	return []string{
		filepath.Join(uploadDir, id),
		filepath.Join(encodedDir, id),
		filepath.Join(thumbnailDir, id),
	}
}

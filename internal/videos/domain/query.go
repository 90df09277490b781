package domain

import (
	"io"
	"time"
)

// UploadVideoReq usecase upload video request
type UploadVideoReq struct {
	Filename string
	File     io.Reader
}

// QualityRef one available quality with a constructible download reference
type QualityRef struct {
	Quality     string `json:"quality"`
	DownloadURL string `json:"download_url"`
}

// VideoDetail read model returned by the status query interface
type VideoDetail struct {
	ID         uint         `json:"id"`
	Filename   string       `json:"filename"`
	Status     VideoStatus  `json:"status"`
	UploadTime time.Time    `json:"upload_time"`
	Qualities  []QualityRef `json:"qualities"`
}

package domain

import "time"

// PipelineTopic kafka topic carrying pipeline completion events
const PipelineTopic = "video.pipeline"

// PipelineEvent emitted by the transcode stage when a video reaches a
// terminal status, so external consumers can tell total failure from
// completion without polling the status store.
type PipelineEvent struct {
	VideoID    uint        `json:"video_id"`
	Filename   string      `json:"filename"`
	Status     VideoStatus `json:"status"`
	Qualities  []string    `json:"qualities"`
	OccurredAt time.Time   `json:"occurred_at"`
}

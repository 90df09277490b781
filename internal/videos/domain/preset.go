package domain

// Preset 定義一組轉碼目標 (解析度 + 碼率)
type Preset struct {
	Label   string
	Width   int
	Height  int
	Bitrate string
}

// DefaultPresets returns the built-in preset table, ordered lowest to
// highest resolution. The order matters: the last preset that succeeds
// is treated as the best variant for the thumbnail source.
func DefaultPresets() []Preset {
	return []Preset{
		{Label: "360p", Width: 640, Height: 360, Bitrate: "800k"},
		{Label: "480p", Width: 854, Height: 480, Bitrate: "1500k"},
		{Label: "720p", Width: 1280, Height: 720, Bitrate: "2500k"},
		{Label: "1080p", Width: 1920, Height: 1080, Bitrate: "4000k"},
	}
}

// DefaultAudioBitrate audio bitrate applied to every preset
const DefaultAudioBitrate = "128k"

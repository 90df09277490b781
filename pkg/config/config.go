package config

import "time"

// APIGateway definition api_gateway YAML structure
type APIGateway struct {
	Port string `mapstructure:"port"`

	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	RabbitMQ   RabbitMQConfig `mapstructure:"rabbitmq"`
	Storage    StorageConfig  `mapstructure:"storage"`
}

// Upload definition upload_service YAML structure
type Upload struct {
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Prefetch int            `mapstructure:"prefetch"`
}

// Processing definition processing_service YAML structure
type Processing struct {
	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	RabbitMQ   RabbitMQConfig `mapstructure:"rabbitmq"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
	Storage    StorageConfig  `mapstructure:"storage"`

	Presets      []PresetConfig `mapstructure:"presets"`
	AudioBitrate string         `mapstructure:"audio_bitrate"`
	// EncodeTimeout bounds one external encode invocation; 0 disables the bound.
	EncodeTimeout time.Duration `mapstructure:"encode_timeout"`
	Prefetch      int           `mapstructure:"prefetch"`
}

// Thumbnail definition thumbnail_service YAML structure
type Thumbnail struct {
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Storage  StorageConfig  `mapstructure:"storage"`

	Width    int `mapstructure:"width"`
	Height   int `mapstructure:"height"`
	Prefetch int `mapstructure:"prefetch"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// RabbitMQConfig definition rabbitmq setting
type RabbitMQConfig struct {
	IP            string `mapstructure:"ip"`
	Port          string `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// KafkaConfig definition kafka setting
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	RetryInterval int      `mapstructure:"retry_interval"`
	RetryCount    int      `mapstructure:"retry_count"`
}

// StorageConfig definition the three per-video file roots
type StorageConfig struct {
	UploadDir    string `mapstructure:"upload_dir"`
	EncodedDir   string `mapstructure:"encoded_dir"`
	ThumbnailDir string `mapstructure:"thumbnail_dir"`
}

// PresetConfig definition one transcode resolution preset
type PresetConfig struct {
	Label   string `mapstructure:"label"`
	Width   int    `mapstructure:"width"`
	Height  int    `mapstructure:"height"`
	Bitrate string `mapstructure:"bitrate"`
}

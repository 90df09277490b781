package config

import (
	"bytes"
	"errors"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvInfo 集合服務端口 from .env
type EnvInfo struct {
	// image name
	APIGateway        string
	UploadService     string
	ProcessingService string
	ThumbnailService  string

	// service ports
	APIGatewayPort string

	// service yaml path
	APIGatewayYAMLPath        string
	UploadServiceYAMLPath     string
	ProcessingServiceYAMLPath string
	ThumbnailServiceYAMLPath  string

	// service log path
	APIGatewayLogPath        string
	UploadServiceLogPath     string
	ProcessingServiceLogPath string
	ThumbnailServiceLogPath  string
}

// EnvConfig 集合服務端口
var (
	EnvConfig = initEnv()
	envConfig EnvInfo
	once      sync.Once
	env       string
)

func initEnv() EnvInfo {
	once.Do(func() {

		path, err := GetPath(".env", 5)
		if err != nil {
			log.Printf("Warning: Could not get .env path: %v", err)
		}

		if err := godotenv.Load(path); err != nil {
			log.Printf("Warning: Could not load .env file: %v", err)
		}

		env = os.Getenv("ENV")

		envConfig = EnvInfo{
			APIGateway:        os.Getenv("API_GATEWAY"),
			UploadService:     os.Getenv("UPLOAD_SERVICE"),
			ProcessingService: os.Getenv("PROCESSING_SERVICE"),
			ThumbnailService:  os.Getenv("THUMBNAIL_SERVICE"),

			APIGatewayPort: os.Getenv("API_GATEWAY_PORT"),

			APIGatewayYAMLPath:        os.Getenv("API_GATEWAY_YAML"),
			UploadServiceYAMLPath:     os.Getenv("UPLOAD_SERVICE_YAML"),
			ProcessingServiceYAMLPath: os.Getenv("PROCESSING_SERVICE_YAML"),
			ThumbnailServiceYAMLPath:  os.Getenv("THUMBNAIL_SERVICE_YAML"),

			APIGatewayLogPath:        os.Getenv("API_GATEWAY_LOG"),
			UploadServiceLogPath:     os.Getenv("UPLOAD_SERVICE_LOG"),
			ProcessingServiceLogPath: os.Getenv("PROCESSING_SERVICE_LOG"),
			ThumbnailServiceLogPath:  os.Getenv("THUMBNAIL_SERVICE_LOG"),
		}
	})

	return envConfig
}

// IsProduction check run env
func IsProduction() bool {
	var b bool
	if env == "production" {
		b = true
	}
	return b
}

// IsLocal check run env
func IsLocal() bool {
	var b bool
	if env == "local" {
		b = true
	}
	return b
}

// LoadConfig 加載配置
func LoadConfig[T any](serviceName string, configPath string) T {
	v := viper.New()
	// 設置配置文件基本信息
	v.SetConfigName(serviceName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	// 自動讀取環境變數
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 讀取配置文件
	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error loading config file: %v", err)
	}

	// 獲取配置文件的內容
	rawConfig, err := os.ReadFile(v.ConfigFileUsed())
	if err != nil {
		log.Fatalf("Error reading raw config file: %v", err)
	}

	// 替換 ${} 占位符為環境變數的值
	expandedConfig := os.ExpandEnv(string(rawConfig))

	// 使用 Viper 再次解析替換後的配置
	if err := v.ReadConfig(bytes.NewBuffer([]byte(expandedConfig))); err != nil {
		log.Fatalf("Error reading expanded config: %v", err)
	}

	// 解構到 Config 結構
	var cfg T
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("Error unmarshaling config: %v", err)
	}
	return cfg
}

// GetPath use fileName loop maxCount find file path
func GetPath(fileName string, maxCount int) (string, error) {
	path := "./" + fileName

	for i := 0; i < maxCount; i++ {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = "../" + path
	}
	return "", errors.New(fileName + "can't find path ")
}

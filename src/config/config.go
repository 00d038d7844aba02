package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config アプリケーション設定
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Task     TaskConfig
	Log      LogConfig
	S3       S3Config
}

// ServerConfig サーバー設定
type ServerConfig struct {
	Port string
}

// DatabaseConfig データベース設定
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// AuthConfig 認証設定
type AuthConfig struct {
	JWTSecret        string
	JWTExpiresIn     time.Duration
	RefreshExpiresIn time.Duration
}

// TaskConfig タスク関連の設定
type TaskConfig struct {
	// DueSoonWindow 期限がこの範囲内に入ると「まもなく期限」と判定する
	DueSoonWindow time.Duration
}

// LogConfig ログ設定
type LogConfig struct {
	Level          string
	Directory      string
	UploadEnabled  bool
	UploadMaxAge   time.Duration
	UploadInterval time.Duration
}

// S3Config S3設定
type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	UseSSL          bool
}

// LoadConfig 環境変数から設定を読み込み
func LoadConfig() *Config {
	// .env があれば読み込む（無くてもエラーにしない）
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getIntEnv("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "todo_app"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret:        getEnv("JWT_SECRET", "your-secret-key-here"),
			JWTExpiresIn:     getDurationEnv("JWT_EXPIRES_IN", 24*time.Hour),
			RefreshExpiresIn: getDurationEnv("REFRESH_EXPIRES_IN", 7*24*time.Hour),
		},
		Task: TaskConfig{
			DueSoonWindow: getDurationEnv("DUE_SOON_WINDOW", 24*time.Hour),
		},
		Log: LogConfig{
			Level:          getEnv("LOG_LEVEL", "info"),
			Directory:      getEnv("LOG_DIRECTORY", "logs"),
			UploadEnabled:  getBoolEnv("LOG_UPLOAD_ENABLED", false),
			UploadMaxAge:   getDurationEnv("LOG_UPLOAD_MAX_AGE", 24*time.Hour),
			UploadInterval: getDurationEnv("LOG_UPLOAD_INTERVAL", 1*time.Hour),
		},
		S3: S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", "http://localhost:9000"), // MinIO用のデフォルト
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", "todo-app-logs"),
			UseSSL:          getBoolEnv("S3_USE_SSL", false),
		},
	}
}

// getEnv 環境変数を取得（デフォルト値付き）
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv 環境変数をintで取得
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getBoolEnv 環境変数をboolで取得
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv 環境変数をtime.Durationで取得
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

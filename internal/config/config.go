package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL settings for the optional case catalog.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// Enabled reports whether a catalog database has been configured.
func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ServerConfig is the bind address of one HTTP service.
type ServerConfig struct {
	Host string
	Port int
}

// Addr returns host:port suitable for fiber's Listen.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

const (
	BackendLocal = "local"
	BackendMinIO = "minio"
)

// defaultBodyLimit fits five base64-encoded 10 MiB documents plus JSON framing.
const defaultBodyLimit = 5*10*1024*1024*4/3 + 1024*1024

// AppConfig is the centralized configuration struct for both services.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	StorageRoot    string
	StorageBackend string
	Upload         ServerConfig
	View           ServerConfig
	FrontendOrigin string
	BodyLimit      int
	LogLevel       string
	LogFormat      string
	Location       *time.Location
	Database       DatabaseConfig
	MinIO          MinIOConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		StorageRoot:    getEnv("STORAGE_ROOT", "storage"),
		StorageBackend: getEnv("STORAGE_BACKEND", BackendLocal),
		Upload: ServerConfig{
			Host: getEnv("UPLOAD_HOST", "0.0.0.0"),
			Port: getEnvInt("UPLOAD_PORT", 8001),
		},
		View: ServerConfig{
			Host: getEnv("VIEW_HOST", "0.0.0.0"),
			Port: getEnvInt("VIEW_PORT", 8002),
		},
		FrontendOrigin: getEnv("FRONTEND_ORIGIN", "*"),
		BodyLimit:      getEnvInt("UPLOAD_BODY_LIMIT", defaultBodyLimit),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		Location:       getEnvLocation("APP_TIMEZONE", time.UTC),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvLocation(key string, def *time.Location) *time.Location {
	if v := os.Getenv(key); v != "" {
		loc, err := time.LoadLocation(v)
		if err == nil {
			return loc
		}
	}
	return def
}

package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	devAccessSecret  = "dev-access-secret-change-me"
	devRefreshSecret = "dev-refresh-secret-change-me"

	defaultAccessTTLMinutes = 15
	defaultRefreshTTLDays   = 10
	defaultMaxUploadMB      = 512
)

type Config struct {
	Port                  string
	Env                   string
	LogLevel              string
	MongoURI              string
	MongoDatabase         string
	AccessTokenSecret     string
	RefreshTokenSecret    string
	AccessTokenTTLMinutes int
	RefreshTokenTTLDays   int
	CORSOrigin            string
	UploadTempDir         string
	MaxUploadMB           int
	Media                 MediaConfig
}

// MediaConfig points at the S3-compatible bucket that holds avatars, covers,
// thumbnails and video files.
type MediaConfig struct {
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
	FFProbePath   string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getPositiveInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// Load reads the configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:                  getenv("APP_PORT", "8000"),
		Env:                   getenv("APP_ENV", "dev"),
		LogLevel:              getenv("LOG_LEVEL", "info"),
		MongoURI:              getenv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:         getenv("MONGODB_DATABASE", "videotube"),
		AccessTokenSecret:     getenv("ACCESS_TOKEN_SECRET", devAccessSecret),
		RefreshTokenSecret:    getenv("REFRESH_TOKEN_SECRET", devRefreshSecret),
		AccessTokenTTLMinutes: getPositiveInt("ACCESS_TOKEN_TTL_MINUTES", defaultAccessTTLMinutes),
		RefreshTokenTTLDays:   getPositiveInt("REFRESH_TOKEN_TTL_DAYS", defaultRefreshTTLDays),
		CORSOrigin:            getenv("CORS_ORIGIN", "*"),
		UploadTempDir:         getenv("UPLOAD_TEMP_DIR", "./public/temp"),
		MaxUploadMB:           getPositiveInt("MAX_UPLOAD_MB", defaultMaxUploadMB),
		Media: MediaConfig{
			Bucket:        getenv("MEDIA_BUCKET", ""),
			Region:        getenv("MEDIA_REGION", "us-east-1"),
			Endpoint:      getenv("MEDIA_ENDPOINT", ""),
			PublicBaseURL: getenv("MEDIA_PUBLIC_BASE_URL", ""),
			FFProbePath:   getenv("FFPROBE_PATH", "ffprobe"),
		},
	}
}

// Validate rejects configurations that cannot run safely.
func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("config: APP_PORT is required")
	}
	if cfg.MongoURI == "" || cfg.MongoDatabase == "" {
		return errors.New("config: MONGODB_URI and MONGODB_DATABASE are required")
	}
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return errors.New("config: token secrets are required")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return errors.New("config: access and refresh token secrets must differ")
	}
	if cfg.Env != "dev" && (cfg.AccessTokenSecret == devAccessSecret || cfg.RefreshTokenSecret == devRefreshSecret) {
		return errors.New("config: default token secrets are only allowed in dev")
	}
	return nil
}

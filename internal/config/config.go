package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"`

	DBDriver   string `yaml:"db_driver"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBPath     string `yaml:"db_path"`

	RedisHost     string `yaml:"redis_host"`
	RedisPort     string `yaml:"redis_port"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	SessionSecret string        `yaml:"session_secret"`
	JWTSecret     string        `yaml:"jwt_secret"`
	JWTTTL        time.Duration `yaml:"jwt_ttl"`
	AdminToken    string        `yaml:"admin_token"`

	Timezone              string  `yaml:"timezone"`
	DefaultDailyHourLimit float64 `yaml:"default_daily_hour_limit"`

	PhotoStorage      string `yaml:"photo_storage"`
	PhotoBucket       string `yaml:"photo_bucket"`
	PhotoPrefix       string `yaml:"photo_prefix"`
	PhotoMaxBytes     int    `yaml:"photo_max_bytes"`
	PhotoMaxDimension int    `yaml:"photo_max_dimension"`
	S3Region          string `yaml:"s3_region"`
	S3Endpoint        string `yaml:"s3_endpoint"`
	S3AccessKey       string `yaml:"s3_access_key"`
	S3SecretKey       string `yaml:"s3_secret_key"`

	OpenAIAPIKey string `yaml:"openai_api_key"`
	OpenAIModel  string `yaml:"openai_model"`

	CORSOrigins     []string `yaml:"cors_origins"`
	AuthRateLimit   int      `yaml:"auth_rate_limit"`
	MaxRequestBytes int64    `yaml:"max_request_bytes"`

	LogLevel      string `yaml:"log_level"`
	LogFile       string `yaml:"log_file"`
	LogConsole    bool   `yaml:"log_console"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`
}

// DefaultSearchPaths are tried in order when no config file is given.
var DefaultSearchPaths = []string{"etc/config.yaml", "/etc/timecard/config.yaml"}

func defaults() *Config {
	return &Config{
		Port:                  "8080",
		GinMode:               "debug",
		DBDriver:              "mysql",
		DBHost:                "localhost",
		DBPort:                "3306",
		DBUser:                "timecard",
		DBPassword:            "timecard",
		DBName:                "timecard",
		DBPath:                "data/timecard.db",
		RedisPort:             "6379",
		SessionSecret:         "default-secret-key-change-me",
		JWTSecret:             "default-jwt-secret-change-me",
		JWTTTL:                7 * 24 * time.Hour,
		Timezone:              "Asia/Taipei",
		DefaultDailyHourLimit: 8,
		PhotoStorage:          "inline",
		PhotoPrefix:           "photos/",
		PhotoMaxBytes:         5 << 20,
		PhotoMaxDimension:     1024,
		OpenAIModel:           "gpt-4o",
		CORSOrigins:           []string{"*"},
		AuthRateLimit:         30,
		MaxRequestBytes:       10 << 20,
		LogLevel:              "info",
		LogConsole:            true,
		LogMaxSizeMB:          100,
		LogMaxBackups:         3,
		LogMaxAgeDays:         30,
	}
}

// Load builds the configuration from defaults, an optional YAML file, a .env
// file and finally the process environment.
func Load(configFile string) (*Config, error) {
	cfg := defaults()

	paths := DefaultSearchPaths
	if configFile != "" {
		paths = []string{configFile}
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if configFile != "" {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		break
	}

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)
	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.RedisHost = getEnv("REDIS_HOST", cfg.RedisHost)
	cfg.RedisPort = getEnv("REDIS_PORT", cfg.RedisPort)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("REDIS_DB", cfg.RedisDB)
	cfg.SessionSecret = getEnv("SESSION_SECRET", cfg.SessionSecret)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTTTL = getEnvDuration("JWT_TTL", cfg.JWTTTL)
	cfg.AdminToken = getEnv("ADMIN_TOKEN", cfg.AdminToken)
	cfg.Timezone = getEnv("TIMEZONE", cfg.Timezone)
	cfg.DefaultDailyHourLimit = getEnvFloat("DEFAULT_DAILY_HOUR_LIMIT", cfg.DefaultDailyHourLimit)
	cfg.PhotoStorage = getEnv("PHOTO_STORAGE", cfg.PhotoStorage)
	cfg.PhotoBucket = getEnv("PHOTO_BUCKET", cfg.PhotoBucket)
	cfg.PhotoPrefix = getEnv("PHOTO_PREFIX", cfg.PhotoPrefix)
	cfg.PhotoMaxBytes = getEnvInt("PHOTO_MAX_BYTES", cfg.PhotoMaxBytes)
	cfg.PhotoMaxDimension = getEnvInt("PHOTO_MAX_DIMENSION", cfg.PhotoMaxDimension)
	cfg.S3Region = getEnv("S3_REGION", cfg.S3Region)
	cfg.S3Endpoint = getEnv("S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3AccessKey = getEnv("S3_ACCESS_KEY", cfg.S3AccessKey)
	cfg.S3SecretKey = getEnv("S3_SECRET_KEY", cfg.S3SecretKey)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIModel = getEnv("OPENAI_MODEL", cfg.OpenAIModel)
	if v := getEnv("CORS_ORIGINS", ""); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	cfg.AuthRateLimit = getEnvInt("AUTH_RATE_LIMIT", cfg.AuthRateLimit)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported db_driver %q", c.DBDriver)
	}
	switch c.PhotoStorage {
	case "inline":
	case "s3":
		if c.PhotoBucket == "" {
			return fmt.Errorf("photo_bucket is required when photo_storage is s3")
		}
	default:
		return fmt.Errorf("unsupported photo_storage %q", c.PhotoStorage)
	}
	if c.DefaultDailyHourLimit <= 0 {
		return fmt.Errorf("default_daily_hour_limit must be positive")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("jwt_ttl must be positive")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// RedisAddr returns host:port, or an empty string when Redis is not configured.
func (c *Config) RedisAddr() string {
	if c.RedisHost == "" {
		return ""
	}
	return c.RedisHost + ":" + c.RedisPort
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

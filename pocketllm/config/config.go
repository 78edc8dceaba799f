package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBName     string `yaml:"db_name"`

	JWTSecret  string   `yaml:"jwt_secret"`
	AdminUsers []string `yaml:"admin_users"`

	// Inference backend. Provider is one of "simulated", "ollama",
	// "openai"; an empty provider with no endpoint falls back to the
	// simulated engine so the portal runs without any external service.
	LLMProvider string `yaml:"llm_provider"`
	LLMEndpoint string `yaml:"llm_endpoint"`
	LLMAPIKey   string `yaml:"llm_api_key"`
	LLMModel    string `yaml:"llm_model"`

	CacheTTLSeconds   int   `yaml:"cache_ttl_seconds"`
	CacheMaxSizeBytes int64 `yaml:"cache_max_size_bytes"`

	TelemetryCapacity int `yaml:"telemetry_capacity"`

	// DataDir holds guest-mode session files for the CLI client.
	DataDir string `yaml:"data_dir"`
	// PortalURL points the CLI client at a running portal. Empty means the
	// CLI talks to the inference backend directly.
	PortalURL string `yaml:"portal_url"`

	MinIOEndpoint  string `yaml:"minio_endpoint"`
	MinIOAccessKey string `yaml:"minio_access_key"`
	MinIOSecretKey string `yaml:"minio_secret_key"`
	MinIOBucket    string `yaml:"minio_bucket"`
}

func defaults() Config {
	return Config{
		ListenAddr:        ":8000",
		DBPort:            "5432",
		LLMModel:          "llama3:8b",
		CacheTTLSeconds:   1800,
		CacheMaxSizeBytes: 4 << 20,
		TelemetryCapacity: 500,
		DataDir:           "./data",
		MinIOBucket:       "pocketllm",
	}
}

// LoadConfig builds the runtime configuration. Precedence, lowest to
// highest: built-in defaults, config.yaml (or CONFIG_FILE), environment
// variables. A .env file is loaded first when present.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := defaults()
	loadYAML(&cfg)

	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	if admins := os.Getenv("ADMIN_USERS"); admins != "" {
		cfg.AdminUsers = splitList(admins)
	}
	cfg.LLMProvider = getEnv("LLM_PROVIDER", cfg.LLMProvider)
	cfg.LLMEndpoint = getEnv("LLM_ENDPOINT", cfg.LLMEndpoint)
	cfg.LLMAPIKey = getEnv("LLM_API_KEY", cfg.LLMAPIKey)
	cfg.LLMModel = getEnv("LLM_MODEL", cfg.LLMModel)
	cfg.CacheTTLSeconds = getEnvInt("CACHE_TTL_SECONDS", cfg.CacheTTLSeconds)
	cfg.CacheMaxSizeBytes = getEnvInt64("CACHE_MAX_SIZE_BYTES", cfg.CacheMaxSizeBytes)
	cfg.TelemetryCapacity = getEnvInt("TELEMETRY_CAPACITY", cfg.TelemetryCapacity)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.PortalURL = getEnv("PORTAL_URL", cfg.PortalURL)
	cfg.MinIOEndpoint = getEnv("MINIO_ENDPOINT", cfg.MinIOEndpoint)
	cfg.MinIOAccessKey = getEnv("MINIO_ACCESS_KEY", cfg.MinIOAccessKey)
	cfg.MinIOSecretKey = getEnv("MINIO_SECRET_KEY", cfg.MinIOSecretKey)
	cfg.MinIOBucket = getEnv("MINIO_BUCKET", cfg.MinIOBucket)

	return cfg
}

// IsAdminUser reports whether username appears in the configured admin list.
func (c Config) IsAdminUser(username string) bool {
	for _, u := range c.AdminUsers {
		if strings.EqualFold(u, username) {
			return true
		}
	}
	return false
}

func loadYAML(cfg *Config) {
	path := getEnv("CONFIG_FILE", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	// Best effort: a broken config file falls back to defaults + env.
	_ = yaml.Unmarshal(data, cfg)
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

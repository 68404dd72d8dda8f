package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	LLM       LLMConfig       `yaml:"llm"`
	Assistant AssistantConfig `yaml:"assistant"`
	Document  DocumentConfig  `yaml:"document"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Session   SessionConfig   `yaml:"session"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	CORSOrigins  []string        `yaml:"corsOrigins"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
	Retry        RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// LLM providers.
const (
	ProviderChatAPI = "chatapi"
	ProviderGenAI   = "genai"
	ProviderEcho    = "echo"
)

// LLMConfig selects and tunes the inference backend.
type LLMConfig struct {
	Provider        string        `yaml:"provider"`
	APIKey          string        `yaml:"apiKey"`
	GoogleAPIKey    string        `yaml:"googleApiKey"`
	BaseURL         string        `yaml:"baseUrl"`
	Model           string        `yaml:"model"`
	Temperature     float32       `yaml:"temperature"`
	TopP            float32       `yaml:"topP"`
	Stream          bool          `yaml:"stream"`
	StreamCharLimit int           `yaml:"streamCharLimit"`
	Timeout         time.Duration `yaml:"timeout"`
	TokenEncoding   string        `yaml:"tokenEncoding"`

	streamSet bool
}

// Default models per provider, used when llm.model is left empty.
const (
	DefaultChatAPIModel = "HuggingFaceH4/zephyr-7b-beta"
	DefaultGenAIModel   = "gemini-2.0-flash"
)

// AssistantConfig tunes the chat endpoint.
type AssistantConfig struct {
	InlineErrors     bool `yaml:"inlineErrors"`
	LogCannedReplies bool `yaml:"logCannedReplies"`
	ContentLimit     int  `yaml:"contentLimit"`
}

// DocumentConfig tunes uploads.
type DocumentConfig struct {
	MaxFileBytes int64  `yaml:"maxFileBytes"`
	DefaultMode  string `yaml:"defaultMode"`
}

// MongoConfig locates the document database. An empty URI selects in-memory storage.
type MongoConfig struct {
	URI      string        `yaml:"uri"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

// StorageConfig describes the S3-compatible upload archive.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// Auth providers.
const (
	AuthLocal    = "local"
	AuthFirebase = "firebase"
)

// AuthConfig drives authentication.
type AuthConfig struct {
	Provider          string         `yaml:"provider"`
	Secret            string         `yaml:"secret"`
	TokenTTL          time.Duration  `yaml:"tokenTtl"`
	SessionTTL        time.Duration  `yaml:"sessionTtl"`
	MinPasswordLength int            `yaml:"minPasswordLength"`
	RequireIdentity   bool           `yaml:"requireIdentity"`
	CookieName        string         `yaml:"cookieName"`
	CookieSecure      bool           `yaml:"cookieSecure"`
	Firebase          FirebaseConfig `yaml:"firebase"`
	Postgres          PostgresConfig `yaml:"postgres"`
}

// FirebaseConfig holds Identity Toolkit settings.
type FirebaseConfig struct {
	APIKey          string `yaml:"apiKey"`
	ProjectID       string `yaml:"projectId"`
	CredentialsFile string `yaml:"credentialsFile"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// SessionConfig locates the web session store. An empty address selects in-memory sessions.
type SessionConfig struct {
	ValkeyAddr string `yaml:"valkeyAddr"`
	Prefix     string `yaml:"prefix"`
}

// Load reads configuration from a YAML file, a .env file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	applyProviderDefaults(&cfg.LLM)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	var explicit struct {
		LLM struct {
			Stream *bool `yaml:"stream"`
		} `yaml:"llm"`
	}
	if err := yaml.Unmarshal(data, &explicit); err == nil && explicit.LLM.Stream != nil {
		cfg.LLM.streamSet = true
	}
	return nil
}

// applyProviderDefaults fills the model, and the streaming mode unless it was
// configured, for the selected provider when no model was given.
func applyProviderDefaults(llm *LLMConfig) {
	if strings.TrimSpace(llm.Model) != "" {
		return
	}
	switch llm.Provider {
	case ProviderChatAPI:
		llm.Model = DefaultChatAPIModel
		if !llm.streamSet {
			llm.Stream = true
		}
	case ProviderGenAI:
		llm.Model = DefaultGenAIModel
		if !llm.streamSet {
			llm.Stream = false
		}
	}
}

func applyEnvOverrides(cfg *Config) {
	setString("HTTP_ADDRESS", &cfg.HTTP.Address)
	if v := os.Getenv("PORT"); v != "" && os.Getenv("HTTP_ADDRESS") == "" {
		cfg.HTTP.Address = ":" + v
	}
	if v := os.Getenv("HTTP_CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}
	setBool("HTTP_RATE_LIMIT_ENABLED", &cfg.HTTP.RateLimit.Enabled)
	setInt("HTTP_RATE_LIMIT_RPM", &cfg.HTTP.RateLimit.RequestsPerMinute)
	setInt("HTTP_RATE_LIMIT_BURST", &cfg.HTTP.RateLimit.Burst)
	setBool("HTTP_RETRY_ENABLED", &cfg.HTTP.Retry.Enabled)
	setInt("HTTP_RETRY_MAX_ATTEMPTS", &cfg.HTTP.Retry.MaxAttempts)
	setDuration("HTTP_RETRY_BASE_BACKOFF", &cfg.HTTP.Retry.BaseBackoff)

	setString("LLM_PROVIDER", &cfg.LLM.Provider)
	setString("HFE_API_TOKEN", &cfg.LLM.APIKey)
	setString("LLM_API_KEY", &cfg.LLM.APIKey)
	setString("GOOGLE_API_KEY", &cfg.LLM.GoogleAPIKey)
	setString("LLM_BASE_URL", &cfg.LLM.BaseURL)
	setString("LLM_MODEL", &cfg.LLM.Model)
	setFloat32("LLM_TEMPERATURE", &cfg.LLM.Temperature)
	setFloat32("LLM_TOP_P", &cfg.LLM.TopP)
	if os.Getenv("LLM_STREAM") != "" {
		setBool("LLM_STREAM", &cfg.LLM.Stream)
		cfg.LLM.streamSet = true
	}
	setInt("LLM_STREAM_CHAR_LIMIT", &cfg.LLM.StreamCharLimit)
	setDuration("LLM_TIMEOUT", &cfg.LLM.Timeout)

	setBool("ASSISTANT_INLINE_ERRORS", &cfg.Assistant.InlineErrors)
	setBool("ASSISTANT_LOG_CANNED_REPLIES", &cfg.Assistant.LogCannedReplies)
	setInt("ASSISTANT_CONTENT_LIMIT", &cfg.Assistant.ContentLimit)

	if v := os.Getenv("DOCUMENT_MAX_FILE_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Document.MaxFileBytes = parsed
		}
	}
	setString("DOCUMENT_DEFAULT_MODE", &cfg.Document.DefaultMode)

	setString("MONGODB_URI", &cfg.Mongo.URI)
	setString("MONGODB_DATABASE", &cfg.Mongo.Database)

	setString("STORAGE_ENDPOINT", &cfg.Storage.Endpoint)
	setString("STORAGE_ACCESS_KEY", &cfg.Storage.AccessKey)
	setString("STORAGE_SECRET_KEY", &cfg.Storage.SecretKey)
	setString("STORAGE_BUCKET", &cfg.Storage.Bucket)
	setString("STORAGE_REGION", &cfg.Storage.Region)

	setString("AUTH_PROVIDER", &cfg.Auth.Provider)
	setString("AUTH_SECRET", &cfg.Auth.Secret)
	setDuration("AUTH_TOKEN_TTL", &cfg.Auth.TokenTTL)
	setDuration("AUTH_SESSION_TTL", &cfg.Auth.SessionTTL)
	setBool("AUTH_REQUIRE_IDENTITY", &cfg.Auth.RequireIdentity)
	setBool("AUTH_COOKIE_SECURE", &cfg.Auth.CookieSecure)
	setString("FIREBASE_API_KEY", &cfg.Auth.Firebase.APIKey)
	setString("FIREBASE_PROJECT_ID", &cfg.Auth.Firebase.ProjectID)
	setString("FIREBASE_CREDENTIALS", &cfg.Auth.Firebase.CredentialsFile)
	setString("AUTH_POSTGRES_DSN", &cfg.Auth.Postgres.DSN)

	setString("SESSION_VALKEY_ADDR", &cfg.Session.ValkeyAddr)
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setFloat32(key string, dst *float32) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			*dst = float32(parsed)
		}
	}
}

func setBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
			CORSOrigins:  []string{"*"},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     false,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/generate",
					"/get-suggestions",
					"/upload-pdf",
					"/upload-docx",
				},
			},
		},
		LLM: LLMConfig{
			Provider:        ProviderChatAPI,
			Temperature:     0.7,
			TopP:            0.9,
			StreamCharLimit: 3500,
			Timeout:         2 * time.Minute,
			TokenEncoding:   "cl100k_base",
		},
		Assistant: AssistantConfig{
			ContentLimit: 4000,
		},
		Document: DocumentConfig{
			MaxFileBytes: 20 << 20,
			DefaultMode:  "summary",
		},
		Mongo: MongoConfig{
			Database: "edusolve",
			Timeout:  10 * time.Second,
		},
		Auth: AuthConfig{
			Provider:          AuthLocal,
			TokenTTL:          time.Hour,
			SessionTTL:        24 * time.Hour,
			MinPasswordLength: 6,
			CookieName:        "edusolve_session",
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
		Session: SessionConfig{
			Prefix: "edusolve:session",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	switch c.LLM.Provider {
	case ProviderChatAPI, ProviderGenAI, ProviderEcho:
	default:
		return fmt.Errorf("llm.provider %q is not one of chatapi, genai, echo", c.LLM.Provider)
	}
	if strings.TrimSpace(c.LLM.Model) == "" && c.LLM.Provider != ProviderEcho {
		return errors.New("llm.model cannot be empty")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	if c.LLM.TopP <= 0 || c.LLM.TopP > 1 {
		return errors.New("llm.topP must be in (0, 1]")
	}
	if c.LLM.StreamCharLimit <= 0 {
		return errors.New("llm.streamCharLimit must be positive")
	}
	if c.Assistant.ContentLimit <= 0 {
		return errors.New("assistant.contentLimit must be positive")
	}
	if c.Document.MaxFileBytes <= 0 {
		return errors.New("document.maxFileBytes must be positive")
	}
	if c.Document.DefaultMode != "summary" && c.Document.DefaultMode != "structured" {
		return errors.New("document.defaultMode must be summary or structured")
	}
	if strings.TrimSpace(c.Mongo.URI) != "" && strings.TrimSpace(c.Mongo.Database) == "" {
		return errors.New("mongo.database cannot be empty when mongo.uri is set")
	}
	switch c.Auth.Provider {
	case AuthLocal:
		if strings.TrimSpace(c.Auth.Secret) == "" {
			return errors.New("auth.secret cannot be empty for the local provider")
		}
	case AuthFirebase:
		if strings.TrimSpace(c.Auth.Firebase.APIKey) == "" || strings.TrimSpace(c.Auth.Firebase.ProjectID) == "" {
			return errors.New("auth.firebase.apiKey and auth.firebase.projectId are required for the firebase provider")
		}
	default:
		return fmt.Errorf("auth.provider %q is not one of local, firebase", c.Auth.Provider)
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("auth.sessionTtl must be positive")
	}
	if strings.TrimSpace(c.Auth.CookieName) == "" {
		return errors.New("auth.cookieName cannot be empty")
	}
	return nil
}

package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/heartthread-backend/internal/modules/chat/steps"
	"github.com/yungbote/heartthread-backend/internal/platform/envutil"
	"github.com/yungbote/heartthread-backend/internal/platform/logger"
)

const configPathEnv = "HEARTTHREAD_CONFIG_PATH"

// Config is resolved in three layers: built-in defaults, the optional YAML file named by
// HEARTTHREAD_CONFIG_PATH, then environment variables.
type Config struct {
	Env     string `yaml:"env"`
	Port    string `yaml:"port"`
	LogMode string `yaml:"log_mode"`

	OpenAI OpenAIConfig `yaml:"openai"`
	Chat   ChatConfig   `yaml:"chat"`
	DB     DBConfig     `yaml:"db"`
	Redis  RedisConfig  `yaml:"redis"`
	HTTP   HTTPConfig   `yaml:"http"`
	Otel   OtelConfig   `yaml:"otel"`
}

type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	ExtractModel   string `yaml:"extract_model"`
	MaxRetries     int    `yaml:"max_retries"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type ChatConfig struct {
	FreeAssistantID    string   `yaml:"assistant_id_free"`
	PremiumAssistantID string   `yaml:"assistant_id_premium"`
	PremiumUserIDs     []string `yaml:"premium_user_ids"`
	FreeCredits        int      `yaml:"free_credits"`

	RunTimeoutSeconds     int `yaml:"run_timeout_seconds"`
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
	PollInitialMS         int `yaml:"poll_initial_ms"`
	PollMaxMS             int `yaml:"poll_max_ms"`
	LockWaitSeconds       int `yaml:"lock_wait_seconds"`

	MemoryExtraction  string `yaml:"memory_extraction"`
	ExtractMaxRetries int    `yaml:"extract_max_retries"`
}

type DBConfig struct {
	Driver     string `yaml:"driver"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	SSLMode    string `yaml:"sslmode"`
	SQLitePath string `yaml:"sqlite_path"`
}

type RedisConfig struct {
	Addr             string `yaml:"addr"`
	Password         string `yaml:"password"`
	DB               int    `yaml:"db"`
	HandleTTLSeconds int    `yaml:"handle_ttl_seconds"`
}

type HTTPConfig struct {
	JWTSecretKey   string   `yaml:"jwt_secret_key"`
	CORSOrigins    []string `yaml:"cors_allowed_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	Headers     string  `yaml:"headers"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

func defaultConfig() Config {
	poll := steps.DefaultPollPolicy()
	return Config{
		Env:     "development",
		Port:    "8080",
		LogMode: "development",
		OpenAI: OpenAIConfig{
			MaxRetries:     3,
			TimeoutSeconds: 60,
		},
		Chat: ChatConfig{
			RunTimeoutSeconds:     int(poll.Deadline / time.Second),
			RequestTimeoutSeconds: 60,
			PollInitialMS:         int(poll.Initial / time.Millisecond),
			PollMaxMS:             int(poll.Max / time.Millisecond),
			LockWaitSeconds:       10,
			MemoryExtraction:      steps.ExtractionKeyword,
			ExtractMaxRetries:     2,
		},
		DB: DBConfig{
			Driver:  "postgres",
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "heartthread",
			SSLMode: "disable",
		},
		Redis: RedisConfig{HandleTTLSeconds: 86400},
		HTTP: HTTPConfig{
			RateLimitRPS:   5,
			RateLimitBurst: 20,
		},
		Otel: OtelConfig{
			ServiceName: "heartthread-backend",
			SampleRatio: 0.1,
		},
	}
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()
	if path := strings.TrimSpace(os.Getenv(configPathEnv)); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return cfg, err
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}
	cfg.overlayEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) overlayEnv() {
	c.Env = envutil.String("APP_ENV", c.Env)
	c.Port = envutil.String("PORT", c.Port)
	c.LogMode = envutil.String("LOG_MODE", c.LogMode)

	c.OpenAI.APIKey = envutil.String("OPENAI_API_KEY", c.OpenAI.APIKey)
	c.OpenAI.BaseURL = envutil.String("OPENAI_BASE_URL", c.OpenAI.BaseURL)
	c.OpenAI.ExtractModel = envutil.String("OPENAI_EXTRACT_MODEL", c.OpenAI.ExtractModel)
	c.OpenAI.MaxRetries = envutil.Int("OPENAI_MAX_RETRIES", c.OpenAI.MaxRetries)
	c.OpenAI.TimeoutSeconds = envutil.Int("OPENAI_TIMEOUT_SECONDS", c.OpenAI.TimeoutSeconds)

	c.Chat.FreeAssistantID = envutil.String("ASSISTANT_ID_FREE", c.Chat.FreeAssistantID)
	c.Chat.PremiumAssistantID = envutil.String("ASSISTANT_ID_PREMIUM", c.Chat.PremiumAssistantID)
	c.Chat.PremiumUserIDs = envutil.CSV("PREMIUM_USER_IDS", c.Chat.PremiumUserIDs)
	c.Chat.FreeCredits = envutil.Int("FREE_CREDITS", c.Chat.FreeCredits)
	c.Chat.RunTimeoutSeconds = envutil.Int("RUN_TIMEOUT_SECONDS", c.Chat.RunTimeoutSeconds)
	c.Chat.RequestTimeoutSeconds = envutil.Int("REQUEST_TIMEOUT_SECONDS", c.Chat.RequestTimeoutSeconds)
	c.Chat.PollInitialMS = envutil.Int("POLL_INITIAL_MS", c.Chat.PollInitialMS)
	c.Chat.PollMaxMS = envutil.Int("POLL_MAX_MS", c.Chat.PollMaxMS)
	c.Chat.LockWaitSeconds = envutil.Int("LOCK_WAIT_SECONDS", c.Chat.LockWaitSeconds)
	c.Chat.MemoryExtraction = strings.ToLower(envutil.String("MEMORY_EXTRACTION", c.Chat.MemoryExtraction))
	c.Chat.ExtractMaxRetries = envutil.Int("EXTRACT_MAX_RETRIES", c.Chat.ExtractMaxRetries)

	c.DB.Driver = strings.ToLower(envutil.String("DB_DRIVER", c.DB.Driver))
	c.DB.Host = envutil.String("POSTGRES_HOST", c.DB.Host)
	c.DB.Port = envutil.String("POSTGRES_PORT", c.DB.Port)
	c.DB.User = envutil.String("POSTGRES_USER", c.DB.User)
	c.DB.Password = envutil.String("POSTGRES_PASSWORD", c.DB.Password)
	c.DB.Name = envutil.String("POSTGRES_NAME", c.DB.Name)
	c.DB.SSLMode = envutil.String("POSTGRES_SSLMODE", c.DB.SSLMode)
	c.DB.SQLitePath = envutil.String("SQLITE_PATH", c.DB.SQLitePath)

	c.Redis.Addr = envutil.String("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = envutil.String("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = envutil.Int("REDIS_DB", c.Redis.DB)
	c.Redis.HandleTTLSeconds = envutil.Int("REDIS_HANDLE_TTL_SECONDS", c.Redis.HandleTTLSeconds)

	c.HTTP.JWTSecretKey = envutil.String("JWT_SECRET_KEY", c.HTTP.JWTSecretKey)
	c.HTTP.CORSOrigins = envutil.CSV("CORS_ALLOWED_ORIGINS", c.HTTP.CORSOrigins)
	c.HTTP.RateLimitRPS = envutil.Float("RATE_LIMIT_RPS", c.HTTP.RateLimitRPS)
	c.HTTP.RateLimitBurst = envutil.Int("RATE_LIMIT_BURST", c.HTTP.RateLimitBurst)

	c.Otel.Enabled = envutil.Bool("OTEL_ENABLED", c.Otel.Enabled)
	c.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", c.Otel.ServiceName)
	c.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", c.Otel.Endpoint)
	c.Otel.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", c.Otel.Headers)
	c.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", c.Otel.Insecure)
	c.Otel.SampleRatio = envutil.Float("OTEL_SAMPLE_RATIO", c.Otel.SampleRatio)
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if strings.TrimSpace(c.Chat.FreeAssistantID) == "" {
		errs = append(errs, errors.New("ASSISTANT_ID_FREE is required"))
	}
	if strings.TrimSpace(c.Chat.PremiumAssistantID) == "" {
		errs = append(errs, errors.New("ASSISTANT_ID_PREMIUM is required"))
	}
	switch c.Chat.MemoryExtraction {
	case steps.ExtractionKeyword, steps.ExtractionModel:
	default:
		errs = append(errs, fmt.Errorf("MEMORY_EXTRACTION must be %q or %q, got %q", steps.ExtractionKeyword, steps.ExtractionModel, c.Chat.MemoryExtraction))
	}
	switch c.DB.Driver {
	case "postgres", "postgresql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DB.Driver))
	}
	if c.Chat.RunTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("RUN_TIMEOUT_SECONDS must be positive"))
	}
	if c.Chat.RequestTimeoutSeconds <= c.Chat.RunTimeoutSeconds {
		errs = append(errs, errors.New("REQUEST_TIMEOUT_SECONDS must exceed RUN_TIMEOUT_SECONDS"))
	}
	if c.Chat.LockWaitSeconds <= 0 {
		errs = append(errs, errors.New("LOCK_WAIT_SECONDS must be positive"))
	}
	if c.Chat.FreeCredits < 0 {
		errs = append(errs, errors.New("FREE_CREDITS must not be negative"))
	}
	return errors.Join(errs...)
}

func (c Config) PollPolicy() steps.PollPolicy {
	return steps.PollPolicy{
		Initial:  time.Duration(c.Chat.PollInitialMS) * time.Millisecond,
		Max:      time.Duration(c.Chat.PollMaxMS) * time.Millisecond,
		Factor:   steps.DefaultPollPolicy().Factor,
		Deadline: c.RunTimeout(),
	}
}

func (c Config) RunTimeout() time.Duration {
	return time.Duration(c.Chat.RunTimeoutSeconds) * time.Second
}

func (c Config) LockWait() time.Duration {
	return time.Duration(c.Chat.LockWaitSeconds) * time.Second
}

// RequestTimeout bounds a chat request from the moment it holds the user lock.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Chat.RequestTimeoutSeconds) * time.Second
}

const timeoutSlack = 15 * time.Second

// LockTTL outlives the request budget, which starts once the lock is held.
func (c Config) LockTTL() time.Duration {
	return c.RequestTimeout() + timeoutSlack
}

// WriteTimeout covers the lock wait plus the request budget, leaving room for the
// refund and the response write after the budget ends.
func (c Config) WriteTimeout() time.Duration {
	return c.LockWait() + c.RequestTimeout() + timeoutSlack
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ignite/beehiiv-forecast/internal/forecast"
)

// deadlineLayout is the date format used for targets.deadline.
const deadlineLayout = "2006-01-02"

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Beehiiv  BeehiivConfig  `yaml:"beehiiv"`
	Targets  TargetsConfig  `yaml:"targets"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Storage  StorageConfig  `yaml:"storage"`
	Cache    CacheConfig    `yaml:"cache"`
	Notify   NotifyConfig   `yaml:"notify"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port for http.Server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// BeehiivConfig holds Beehiiv API configuration
type BeehiivConfig struct {
	APIKey           string   `yaml:"api_key"`
	BaseURL          string   `yaml:"base_url"`
	TimeoutSeconds   int      `yaml:"timeout_seconds"`
	RateLimitDelayMs int      `yaml:"rate_limit_delay_ms"`
	MaxRetries       int      `yaml:"max_retries"`
	PageSize         int      `yaml:"page_size"`
	MaxPosts         int      `yaml:"max_posts"`      // posts fetched, before qualification
	SubscriberCap    int      `yaml:"subscriber_cap"` // stop paging subscriptions here
	ContentDomains   []string `yaml:"content_domains"`
}

// Timeout returns the configured timeout as a duration
func (c BeehiivConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RateLimitDelay returns the pause between API calls
func (c BeehiivConfig) RateLimitDelay() time.Duration {
	return time.Duration(c.RateLimitDelayMs) * time.Millisecond
}

// TargetsConfig holds the goals the forecast measures against.
// Rates are percentages.
type TargetsConfig struct {
	Subscribers    int     `yaml:"subscribers"`
	OpenRateMin    float64 `yaml:"open_rate_min"`
	OpenRateMax    float64 `yaml:"open_rate_max"`
	CTORMin        float64 `yaml:"ctor_min"`
	CTORMax        float64 `yaml:"ctor_max"`
	TrafficPerSend float64 `yaml:"traffic_per_send"`
	Deadline       string  `yaml:"deadline"` // YYYY-MM-DD, UTC midnight
}

// DeadlineTime parses Deadline.
func (c TargetsConfig) DeadlineTime() (time.Time, error) {
	return time.ParseInLocation(deadlineLayout, c.Deadline, time.UTC)
}

// AnalysisConfig holds engine tuning
type AnalysisConfig struct {
	GrowthWindowDays int `yaml:"growth_window_days"`
	MaxPosts         int `yaml:"max_posts"`
	MinRecipients    int `yaml:"min_recipients"`
	TopArticles      int `yaml:"top_articles"`
}

// StorageConfig holds report output configuration
type StorageConfig struct {
	Type       string `yaml:"type"` // local or s3
	LocalPath  string `yaml:"local_path"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Prefix   string `yaml:"s3_prefix"`
	AWSRegion  string `yaml:"aws_region"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// CacheConfig holds snapshot cache configuration for the dashboard server
type CacheConfig struct {
	Type                 string  `yaml:"type"` // file or redis
	FilePath             string  `yaml:"file_path"`
	RedisAddr            string  `yaml:"redis_addr"`
	RedisDB              int     `yaml:"redis_db"`
	Key                  string  `yaml:"key"`
	RefreshIntervalHours float64 `yaml:"refresh_interval_hours"`
}

// RefreshInterval returns the auto-refresh period. Never below one minute.
func (c CacheConfig) RefreshInterval() time.Duration {
	d := time.Duration(c.RefreshIntervalHours * float64(time.Hour))
	if d < time.Minute {
		return time.Minute
	}
	return d
}

// NotifyConfig holds e-mail delivery of the text report via SES
type NotifyConfig struct {
	Enabled bool     `yaml:"enabled"`
	Region  string   `yaml:"region"`
	From    string   `yaml:"from"`
	To      []string `yaml:"to"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Redact bool   `yaml:"redact"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// defaults holds the settings where zero is a meaningful value. YAML is
// decoded on top of it, so only keys absent from the file keep these.
func defaults() Config {
	return Config{
		Beehiiv: BeehiivConfig{
			RateLimitDelayMs: 200,
			MaxRetries:       3,
			MaxPosts:         100,
			SubscriberCap:    10000,
		},
		Targets: TargetsConfig{
			Subscribers:    30000,
			OpenRateMin:    35,
			OpenRateMax:    40,
			CTORMin:        16,
			CTORMax:        17,
			TrafficPerSend: 3000,
			Deadline:       "2026-03-31",
		},
		Analysis: AnalysisConfig{
			GrowthWindowDays: 30,
			MaxPosts:         20,
			MinRecipients:    100,
			TopArticles:      15,
		},
	}
}

// applyDefaults fills settings where zero or empty means unset.
func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3001
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}

	if cfg.Beehiiv.BaseURL == "" {
		cfg.Beehiiv.BaseURL = "https://api.beehiiv.com/v2"
	}
	if cfg.Beehiiv.TimeoutSeconds == 0 {
		cfg.Beehiiv.TimeoutSeconds = 30
	}
	if cfg.Beehiiv.PageSize == 0 {
		cfg.Beehiiv.PageSize = 100
	}
	if len(cfg.Beehiiv.ContentDomains) == 0 {
		cfg.Beehiiv.ContentDomains = []string{"inquisitr.com", "www.inquisitr.com"}
	}

	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "output"
	}
	if cfg.Storage.S3Prefix == "" {
		cfg.Storage.S3Prefix = "beehiiv-forecast"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-west-2"
	}

	if cfg.Cache.Type == "" {
		cfg.Cache.Type = "file"
	}
	if cfg.Cache.FilePath == "" {
		cfg.Cache.FilePath = "output/cache.json"
	}
	if cfg.Cache.Key == "" {
		cfg.Cache.Key = "beehiiv:forecast:snapshot"
	}
	if cfg.Cache.RefreshIntervalHours == 0 {
		cfg.Cache.RefreshIntervalHours = 2
	}

	if cfg.Notify.Region == "" {
		cfg.Notify.Region = cfg.Storage.AWSRegion
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if apiKey := os.Getenv("BEEHIIV_API_KEY"); apiKey != "" {
		cfg.Beehiiv.APIKey = apiKey
	}
	if baseURL := os.Getenv("BEEHIIV_BASE_URL"); baseURL != "" {
		cfg.Beehiiv.BaseURL = baseURL
	}
	if v := os.Getenv("REFRESH_INTERVAL_HOURS"); v != "" {
		if hours, err := strconv.ParseFloat(v, 64); err == nil && hours > 0 {
			cfg.Cache.RefreshIntervalHours = hours
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
		cfg.Cache.Type = "redis"
	}
	if v := os.Getenv("REPORT_S3_BUCKET"); v != "" {
		cfg.Storage.S3Bucket = v
		cfg.Storage.Type = "s3"
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	return cfg, nil
}

// Validate checks the settings a run cannot proceed without.
func (cfg *Config) Validate() error {
	var errs []error
	if cfg.Beehiiv.APIKey == "" {
		errs = append(errs, errors.New("beehiiv.api_key is required (or set BEEHIIV_API_KEY)"))
	}
	if cfg.Targets.Subscribers <= 0 {
		errs = append(errs, errors.New("targets.subscribers must be positive"))
	}
	if cfg.Targets.TrafficPerSend <= 0 {
		errs = append(errs, errors.New("targets.traffic_per_send must be positive"))
	}
	if cfg.Targets.OpenRateMin > cfg.Targets.OpenRateMax {
		errs = append(errs, errors.New("targets.open_rate_min exceeds open_rate_max"))
	}
	if cfg.Targets.CTORMin > cfg.Targets.CTORMax {
		errs = append(errs, errors.New("targets.ctor_min exceeds ctor_max"))
	}
	if _, err := cfg.Targets.DeadlineTime(); err != nil {
		errs = append(errs, fmt.Errorf("targets.deadline: %w", err))
	}
	if cfg.Storage.Type == "s3" && cfg.Storage.S3Bucket == "" {
		errs = append(errs, errors.New("storage.s3_bucket is required for s3 storage"))
	}
	if cfg.Notify.Enabled && (cfg.Notify.From == "" || len(cfg.Notify.To) == 0) {
		errs = append(errs, errors.New("notify.from and notify.to are required when notify is enabled"))
	}
	return errors.Join(errs...)
}

// Forecast builds the immutable engine configuration.
func (cfg *Config) Forecast() (forecast.Config, error) {
	deadline, err := cfg.Targets.DeadlineTime()
	if err != nil {
		return forecast.Config{}, fmt.Errorf("parsing deadline: %w", err)
	}

	domains := make([]string, len(cfg.Beehiiv.ContentDomains))
	copy(domains, cfg.Beehiiv.ContentDomains)

	return forecast.Config{
		Targets: forecast.Targets{
			Subscribers:    cfg.Targets.Subscribers,
			OpenRate:       forecast.Range{Min: cfg.Targets.OpenRateMin, Max: cfg.Targets.OpenRateMax},
			CTOR:           forecast.Range{Min: cfg.Targets.CTORMin, Max: cfg.Targets.CTORMax},
			TrafficPerSend: cfg.Targets.TrafficPerSend,
			Deadline:       deadline,
		},
		GrowthWindowDays: cfg.Analysis.GrowthWindowDays,
		MaxPosts:         cfg.Analysis.MaxPosts,
		MinRecipients:    cfg.Analysis.MinRecipients,
		TopArticles:      cfg.Analysis.TopArticles,
		ContentDomains:   domains,
	}, nil
}

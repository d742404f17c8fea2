package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Timezone    string `yaml:"timezone"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Providers struct {
		FinnhubAPIKey      string        `yaml:"finnhub_api_key"`
		TwelveDataAPIKey   string        `yaml:"twelvedata_api_key"`
		AlphaVantageAPIKey string        `yaml:"alphavantage_api_key"`
		Timeout            time.Duration `yaml:"timeout"`
		CandleLimit        int           `yaml:"candle_limit"`
	} `yaml:"providers"`
	Ensemble struct {
		Mode      string  `yaml:"mode"` // pro | balanced | aggressive
		MinADX    float64 `yaml:"min_adx"`
		MinATRPct float64 `yaml:"min_atr_pct"`
		MaxATRPct float64 `yaml:"max_atr_pct"`
	} `yaml:"ensemble"`
	// Filter toggles are pointers so an absent key defaults to on.
	Filters struct {
		StrictSession *bool `yaml:"strict_session"`
		StrictNews    *bool `yaml:"strict_news"`
	} `yaml:"filters"`
	Cache struct {
		Backend string        `yaml:"backend"` // memory | redis
		TTL     time.Duration `yaml:"ttl"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
	Stream struct {
		Enabled        bool          `yaml:"enabled"`
		URL            string        `yaml:"url"`
		Pairs          []string      `yaml:"pairs"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"stream"`
	Evaluator struct {
		Interval  time.Duration `yaml:"interval"`
		BatchSize int           `yaml:"batch_size"`
	} `yaml:"evaluator"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// These are the knobs operators historically set without editing the file.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Providers.FinnhubAPIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("TWELVEDATA_API_KEY"); v != "" {
		c.Providers.TwelveDataAPIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		c.Providers.AlphaVantageAPIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("ENSEMBLE_MODE"); v != "" {
		c.Ensemble.Mode = v
	}
	if v := os.Getenv("ENSEMBLE_MIN_ADX"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Ensemble.MinADX = f
		}
	}
	if v := os.Getenv("ENSEMBLE_MIN_ATR_PCT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Ensemble.MinATRPct = f
		}
	}
	if v := os.Getenv("ENSEMBLE_MAX_ATR_PCT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Ensemble.MaxATRPct = f
		}
	}
	if v := os.Getenv("STRICT_SESSION_FILTER"); v != "" {
		b := parseBool(v, *c.Filters.StrictSession)
		c.Filters.StrictSession = &b
	}
	if v := os.Getenv("STRICT_NEWS_FILTER"); v != "" {
		b := parseBool(v, *c.Filters.StrictNews)
		c.Filters.StrictNews = &b
	}
	if v := os.Getenv("FAST_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = d
		} else if secs, serr := strconv.Atoi(v); serr == nil {
			c.Cache.TTL = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Providers.Timeout <= 0 {
		c.Providers.Timeout = 8 * time.Second
	}
	if c.Providers.CandleLimit <= 0 {
		c.Providers.CandleLimit = 200
	}
	if c.Ensemble.Mode == "" {
		c.Ensemble.Mode = "pro"
	}
	if c.Ensemble.MinADX == 0 {
		c.Ensemble.MinADX = 18
	}
	if c.Ensemble.MinATRPct == 0 {
		c.Ensemble.MinATRPct = 0.02
	}
	if c.Ensemble.MaxATRPct == 0 {
		c.Ensemble.MaxATRPct = 2.5
	}
	if c.Filters.StrictSession == nil {
		on := true
		c.Filters.StrictSession = &on
	}
	if c.Filters.StrictNews == nil {
		on := true
		c.Filters.StrictNews = &on
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 4 * time.Second
	}
	if c.Evaluator.Interval <= 0 {
		c.Evaluator.Interval = time.Minute
	}
	if c.Evaluator.BatchSize <= 0 {
		c.Evaluator.BatchSize = 100
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Ensemble.Mode {
	case "pro", "balanced", "aggressive":
	default:
		return fmt.Errorf("ensemble.mode must be 'pro', 'balanced' or 'aggressive', got '%s'", c.Ensemble.Mode)
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache.backend must be 'memory' or 'redis', got '%s'", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required for redis backend")
	}
	if c.Ensemble.MinATRPct >= c.Ensemble.MaxATRPct {
		return fmt.Errorf("ensemble.min_atr_pct must be below max_atr_pct")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	return nil
}

func parseBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=json console"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Roster struct {
		Path string `yaml:"path" default:"data/companies.csv" validate:"required"`
	} `yaml:"roster"`
	Market struct {
		ChartURL         string        `yaml:"chart_url" default:"https://query1.finance.yahoo.com" validate:"required,url"`
		SummaryURL       string        `yaml:"summary_url" default:"https://query2.finance.yahoo.com" validate:"required,url"`
		Suffix           string        `yaml:"suffix" default:".SR"`
		LookbackPeriod   string        `yaml:"lookback_period" default:"6mo" validate:"required"`
		LookbackInterval string        `yaml:"lookback_interval" default:"1d" validate:"oneof=1d 1wk 1mo"`
		FetchTimeout     time.Duration `yaml:"fetch_timeout" default:"20s" validate:"gt=0"`
		UserAgent        string        `yaml:"user_agent" default:"Mozilla/5.0 (compatible; FinCast/1.0)"`
	} `yaml:"market"`
	Model struct {
		ServerURL     string        `yaml:"server_url" default:"http://localhost:8501" validate:"required,url"`
		Name          string        `yaml:"name" default:"stock_lstm" validate:"required"`
		Window        int           `yaml:"window" default:"60" validate:"gte=2"`
		ScalerPath    string        `yaml:"scaler_path"`
		Timeout       time.Duration `yaml:"timeout" default:"5s" validate:"gt=0"`
		RetryAttempts int           `yaml:"retry_attempts" default:"1" validate:"gte=1,lte=5"`
	} `yaml:"model"`
	Refresh struct {
		Interval   time.Duration `yaml:"interval" default:"3600s" validate:"gte=1s"`
		Workers    int           `yaml:"workers" default:"1" validate:"gte=1,lte=32"`
		RunOnStart bool          `yaml:"run_on_start" default:"true"`
	} `yaml:"refresh"`
	Detail struct {
		Mode        string `yaml:"mode" default:"cache" validate:"oneof=cache live"`
		HistoryDays int    `yaml:"history_days" default:"30" validate:"gte=1"`
		RateLimit   struct {
			Capacity     float64 `yaml:"capacity" default:"20"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"5"`
		} `yaml:"rate_limit"`
	} `yaml:"detail"`
	Cache struct {
		Backend string        `yaml:"backend" default:"memory" validate:"oneof=memory redis"`
		InfoTTL time.Duration `yaml:"info_ttl" default:"15m"`
		Redis   struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	History struct {
		Backend    string `yaml:"backend" default:"none" validate:"oneof=none clickhouse sqlite"`
		SQLitePath string `yaml:"sqlite_path" default:"data/fincast.db"`
	} `yaml:"history"`
	Kafka struct {
		Enabled          bool     `yaml:"enabled"`
		Brokers          []string `yaml:"brokers"`
		PredictionsTopic string   `yaml:"predictions_topic" default:"fincast.predictions"`
		RefreshTopic     string   `yaml:"refresh_topic" default:"fincast.refresh"`
		LogTopic         string   `yaml:"log_topic"`
		RequiredAcks     int      `yaml:"required_acks" default:"1"`
		Compression      string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		Producer         struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"fincast"`
			Workers    int           `yaml:"workers" default:"1" validate:"gte=1"`
			BufferSize int           `yaml:"buffer_size" default:"16"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"1048576"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"fincast"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse applies defaults, decodes YAML over them and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with FINCAST_* environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("FINCAST_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("FINCAST_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FINCAST_PORT: %w", err)
		}
		c.Server.Port = p
	}
	if v := os.Getenv("FINCAST_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("FINCAST_ROSTER_PATH"); v != "" {
		c.Roster.Path = v
	}
	if v := os.Getenv("FINCAST_MODEL_URL"); v != "" {
		c.Model.ServerURL = v
	}
	if v := os.Getenv("FINCAST_REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FINCAST_REFRESH_INTERVAL: %w", err)
		}
		c.Refresh.Interval = d
	}
	if v := os.Getenv("FINCAST_REDIS_ADDR"); v != "" {
		c.Cache.Backend = "redis"
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("FINCAST_KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("FINCAST_CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required for the redis backend")
	}
	if c.History.Backend == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required for the clickhouse history backend")
	}
	if c.History.Backend == "sqlite" && c.History.SQLitePath == "" {
		return fmt.Errorf("history.sqlite_path is required for the sqlite history backend")
	}
	return nil
}

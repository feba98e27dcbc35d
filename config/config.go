package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type GRPC struct {
	Addr string `yaml:"addr"` // пусто — gRPC не поднимаем
}

type HTTP struct {
	Addr           string        `yaml:"addr"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	StaticDir      string        `yaml:"static_dir"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // watch-party
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	Level     string `yaml:"level"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true

	// семплирование zap в секунду на сообщение, 0 — выключено
	SampleInitial    int `yaml:"sample_initial"`
	SampleThereafter int `yaml:"sample_thereafter"`
}

type Clock struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	TickStep     int64         `yaml:"tick_step"`
}

type Reaper struct {
	Interval    time.Duration `yaml:"interval"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

type RateLimit struct {
	Backend  string        `yaml:"backend"` // memory|redis
	Window   time.Duration `yaml:"window"`
	RedisURL string        `yaml:"redis_url"`
}

type Chat struct {
	MaxHistory int `yaml:"max_history"` // 0 — без ограничения
	MaxLength  int `yaml:"max_length"`  // 0 — без ограничения
}

type Config struct {
	HTTP      HTTP      `yaml:"http"`
	GRPC      GRPC      `yaml:"grpc"`
	Logging   Logging   `yaml:"logging"`
	Clock     Clock     `yaml:"clock"`
	Reaper    Reaper    `yaml:"reaper"`
	RateLimit RateLimit `yaml:"ratelimit"`
	Chat      Chat      `yaml:"chat"`
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// LoadConfig читает .env (если есть), yaml из CONFIG_PATH и применяет PORT.
// Отсутствующий yaml не ошибка: работаем на дефолтах.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // .env необязателен

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.HTTP.Addr = ":" + port
	}
	if url := os.Getenv("REDIS_URL"); url != "" && cfg.RateLimit.RedisURL == "" {
		cfg.RateLimit.RedisURL = url
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":3000"
	}
	if c.HTTP.MaxBodyBytes == 0 {
		c.HTTP.MaxBodyBytes = 10 << 20
	}
	if c.HTTP.RequestTimeout == 0 {
		c.HTTP.RequestTimeout = 30 * time.Second
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"*"}
	}

	if c.Logging.Service == "" {
		c.Logging.Service = "watch-party"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}

	if c.Clock.TickInterval == 0 {
		c.Clock.TickInterval = 5 * time.Second
	}
	if c.Clock.TickStep == 0 {
		c.Clock.TickStep = 5
	}
	if c.Reaper.Interval == 0 {
		c.Reaper.Interval = time.Minute
	}
	if c.Reaper.IdleTimeout == 0 {
		c.Reaper.IdleTimeout = time.Minute
	}

	if c.RateLimit.Backend == "" {
		c.RateLimit.Backend = BackendMemory
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = 5 * time.Second
	}
}

func (c *Config) validate() error {
	var errs []error
	if c.HTTP.MaxBodyBytes < 0 {
		errs = append(errs, errors.New("http.max_body_bytes must be positive"))
	}
	if c.HTTP.RequestTimeout < 0 {
		errs = append(errs, errors.New("http.request_timeout must be positive"))
	}
	if c.Clock.TickInterval < 0 {
		errs = append(errs, errors.New("clock.tick_interval must be positive"))
	}
	if c.Clock.TickStep < 0 {
		errs = append(errs, errors.New("clock.tick_step must be positive"))
	}
	if c.Reaper.Interval < 0 {
		errs = append(errs, errors.New("reaper.interval must be positive"))
	}
	if c.Reaper.IdleTimeout < 0 {
		errs = append(errs, errors.New("reaper.idle_timeout must be positive"))
	}
	if c.RateLimit.Window < 0 {
		errs = append(errs, errors.New("ratelimit.window must be positive"))
	}
	if c.Logging.SampleInitial < 0 || c.Logging.SampleThereafter < 0 {
		errs = append(errs, errors.New("logging sampling must not be negative"))
	}
	if c.Chat.MaxHistory < 0 || c.Chat.MaxLength < 0 {
		errs = append(errs, errors.New("chat limits must not be negative"))
	}
	switch c.RateLimit.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.RateLimit.RedisURL == "" {
			errs = append(errs, errors.New("ratelimit.redis_url is required for redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("ratelimit.backend %q: want memory or redis", c.RateLimit.Backend))
	}
	switch c.Logging.Backend {
	case "std", "zap":
	default:
		errs = append(errs, fmt.Errorf("logging.backend %q: want std or zap", c.Logging.Backend))
	}
	return errors.Join(errs...)
}

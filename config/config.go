package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config агрегирует конфигурацию из необязательного YAML файла (TMI_CONFIG)
// и переменных окружения. Переменные окружения имеют приоритет.
type Config struct {
	Twitch   TwitchConfig   `yaml:"twitch"`
	Postgres PostgresConfig `yaml:"postgres"`
	Batch    BatchConfig    `yaml:"batch"`
	Breaker  BreakerConfig  `yaml:"breaker"`
	Log      LogConfig      `yaml:"log"`
}

// TwitchConfig содержит учётные данные и каналы Twitch IRC клиента. Если
// OAuthToken пуст, токен и логин берутся из TokenFile.
type TwitchConfig struct {
	Username   string   `yaml:"username"`
	OAuthToken string   `yaml:"oauth_token"`
	Channels   []string `yaml:"channels"`
	TokenFile  string   `yaml:"token_file"`
}

// PostgresConfig хранит параметры подключения к пулу базы данных.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	DB       string `yaml:"db"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// DSN собирает строку подключения для pgx/pgxpool.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", p.User, p.Password, p.Host, p.Port, p.DB)
}

// BatchConfig задаёт параметры батчинга и флашей при записи чатов.
type BatchConfig struct {
	MaxBatch      int           `yaml:"max_batch"`
	FlushEvery    time.Duration `yaml:"flush_every"`
	ChanBuffer    int           `yaml:"chan_buffer"`
	StatsLogEvery time.Duration `yaml:"stats_log_every"`
	FlushTimeout  time.Duration `yaml:"flush_timeout"`
}

// BreakerConfig задаёт параметры circuit breaker для записи событий.
type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Defaults возвращает значения по умолчанию, до применения файла и окружения.
func Defaults() Config {
	return Config{
		Batch: BatchConfig{
			MaxBatch:      100,
			FlushEvery:    1500 * time.Millisecond,
			ChanBuffer:    4096,
			StatsLogEvery: 5 * time.Minute,
			FlushTimeout:  5 * time.Second,
		},
		Breaker: BreakerConfig{
			MaxFailures: 5,
			OpenTimeout: 30 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load читает TMI_CONFIG (если задан), применяет переменные окружения и
// возвращает валидированную Config.
func Load() (Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("TMI_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Twitch.Channels = normalizeChannels(cfg.Twitch.Channels)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyEnv(c *Config) error {
	setString(&c.Twitch.Username, "TWITCH_USERNAME")
	setString(&c.Twitch.OAuthToken, "TWITCH_OAUTH_TOKEN")
	setString(&c.Twitch.TokenFile, "TWITCH_TOKEN_FILE")
	if v := strings.TrimSpace(os.Getenv("TWITCH_CHANNELS")); v != "" {
		c.Twitch.Channels = strings.Split(v, ",")
	}

	setString(&c.Postgres.Host, "POSTGRES_HOST")
	setString(&c.Postgres.Port, "POSTGRES_PORT")
	setString(&c.Postgres.DB, "POSTGRES_DB")
	setString(&c.Postgres.User, "POSTGRES_USER")
	setString(&c.Postgres.Password, "POSTGRES_PASSWORD")

	setString(&c.Log.Level, "LOG_LEVEL")

	if v := strings.TrimSpace(os.Getenv("BATCH_MAX")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: BATCH_MAX: %w", err)
		}
		c.Batch.MaxBatch = n
	}
	if v := strings.TrimSpace(os.Getenv("BATCH_FLUSH_EVERY")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: BATCH_FLUSH_EVERY: %w", err)
		}
		c.Batch.FlushEvery = d
	}

	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func (c Config) validate() error {
	if c.Twitch.OAuthToken == "" && c.Twitch.TokenFile == "" {
		return errors.New("требуется TWITCH_OAUTH_TOKEN или TWITCH_TOKEN_FILE")
	}
	if c.Twitch.OAuthToken != "" && c.Twitch.Username == "" {
		return errors.New("требуется TWITCH_USERNAME")
	}
	if len(c.Twitch.Channels) == 0 {
		return errors.New("требуется TWITCH_CHANNELS")
	}

	if c.Postgres.Host == "" {
		return errors.New("требуется POSTGRES_HOST")
	}
	if c.Postgres.Port == "" {
		return errors.New("требуется POSTGRES_PORT")
	}
	if c.Postgres.DB == "" {
		return errors.New("требуется POSTGRES_DB")
	}
	if c.Postgres.User == "" {
		return errors.New("требуется POSTGRES_USER")
	}
	if c.Postgres.Password == "" {
		return errors.New("требуется POSTGRES_PASSWORD")
	}

	if c.Batch.MaxBatch <= 0 {
		return errors.New("Batch.MaxBatch должен быть больше нуля")
	}
	if c.Batch.FlushEvery <= 0 {
		return errors.New("Batch.FlushEvery должен быть больше нуля")
	}
	if c.Batch.ChanBuffer <= 0 {
		return errors.New("Batch.ChanBuffer должен быть больше нуля")
	}
	if c.Batch.StatsLogEvery <= 0 {
		return errors.New("Batch.StatsLogEvery должен быть больше нуля")
	}
	if c.Batch.FlushTimeout <= 0 {
		return errors.New("Batch.FlushTimeout должен быть больше нуля")
	}
	if c.Breaker.MaxFailures == 0 {
		return errors.New("Breaker.MaxFailures должен быть больше нуля")
	}

	return nil
}

func normalizeChannels(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(p), "#"))
		if p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}

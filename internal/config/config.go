package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// APIConfig holds HTTP server configuration.
type APIConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	PoolMin        int32         `mapstructure:"pool_min"`
	PoolMax        int32         `mapstructure:"pool_max"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// WhatsAppConfig holds WhatsApp Cloud API configuration.
type WhatsAppConfig struct {
	// Provider selects the outbound provider: "whatsapp" (default) or
	// "stdout" for local development.
	Provider           string        `mapstructure:"provider"`
	APIVersion         string        `mapstructure:"api_version"`
	PhoneNumberID      string        `mapstructure:"phone_number_id"`
	Token              string        `mapstructure:"token"`
	Endpoint           string        `mapstructure:"endpoint"`
	Timeout            time.Duration `mapstructure:"timeout"`
	WebhookVerifyToken string        `mapstructure:"webhook_verify_token"`
}

// QueueConfig holds the outbound message queue configuration.
type QueueConfig struct {
	// BatchSize is the maximum number of messages leased per tick.
	BatchSize int32 `mapstructure:"batch_size"`
	// MaxAttempts is the delivery attempt budget before a message is
	// marked failed.
	MaxAttempts int32 `mapstructure:"max_attempts"`
	// PollInterval is the delay between dispatcher ticks.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// SendInterval is the minimum delay between two consecutive sends.
	// This is what keeps the aggregate rate under the provider ceiling.
	SendInterval time.Duration `mapstructure:"send_interval"`
	// LeaseTimeout requeues messages stuck in processing longer than this.
	// Zero disables reclaim.
	LeaseTimeout time.Duration `mapstructure:"lease_timeout"`
	// Pacer selects the send pacer: "interval" (per-process, default) or
	// "redis" (coordinated across dispatcher instances).
	Pacer string `mapstructure:"pacer"`
	// RunInAPI starts a dispatcher inside the API server process.
	RunInAPI bool `mapstructure:"run_in_api"`
}

// RedisConfig holds Redis connection configuration, used by the redis pacer.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Load reads configuration from the given config directory path.
// It looks for a file named "config.yaml" in that directory.
// Environment variables with prefix ZAPCAST_ override file values.
// For example, ZAPCAST_DATABASE_URL overrides database.url.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetEnvPrefix("ZAPCAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 3000)
	v.SetDefault("api.read_timeout", 15*time.Second)
	v.SetDefault("api.write_timeout", 15*time.Second)

	v.SetDefault("database.pool_min", 2)
	v.SetDefault("database.pool_max", 10)
	v.SetDefault("database.connect_timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")

	v.SetDefault("whatsapp.provider", "whatsapp")
	v.SetDefault("whatsapp.api_version", "v19.0")
	v.SetDefault("whatsapp.timeout", 30*time.Second)

	v.SetDefault("queue.batch_size", 20)
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("queue.poll_interval", 1*time.Second)
	v.SetDefault("queue.send_interval", 1*time.Second)
	v.SetDefault("queue.lease_timeout", 0)
	v.SetDefault("queue.pacer", "interval")

	v.SetDefault("redis.addr", "localhost:6379")
}

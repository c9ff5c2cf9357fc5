package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Kafka         KafkaConfig
	Redis         RedisConfig
	Logging       LoggingConfig
	Notifications NotificationConfig
	Subscription  SubscriptionConfig
	Queue         QueueConfig
	Reminder      ReminderConfig
	Audio         AudioConfig
	Overlay       OverlayConfig
	Push          PushConfig
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	Port         string `validate:"required,numeric"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	ServiceKey   string
}

// DatabaseConfig holds database specific configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// AuthConfig holds authentication specific configuration
type AuthConfig struct {
	JWTSecret string
}

// KafkaConfig holds Kafka specific configuration
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// RedisConfig holds Redis specific configuration
type RedisConfig struct {
	Enabled  bool
	URL      string
	Password string
	DB       int
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// NotificationConfig holds in-app alert lifecycle configuration
type NotificationConfig struct {
	MaxVisible       int           `validate:"required,min=1"`
	DismissTimeout   time.Duration `validate:"required"`
	SweepInterval    time.Duration `validate:"required"`
	MaxAge           time.Duration `validate:"required"`
	MaxPersistentAge time.Duration `validate:"required"`
	MaxReadAge       time.Duration `validate:"required"`
}

// SubscriptionConfig holds subscription store configuration
type SubscriptionConfig struct {
	PermissionTimeout time.Duration
}

// QueueConfig holds delivery queue configuration
type QueueConfig struct {
	MaxRetries int           `validate:"min=0"`
	RetryDelay time.Duration `validate:"required"`
}

// ReminderConfig holds task reminder scheduler configuration
type ReminderConfig struct {
	ScanInterval time.Duration
	Debounce     time.Duration
}

// AudioConfig holds audio cue player configuration
type AudioConfig struct {
	PlaybackTimeout time.Duration
	CacheDuration   time.Duration
}

// OverlayConfig holds interaction guard configuration
type OverlayConfig struct {
	WebDelay    time.Duration
	IOSPWADelay time.Duration
}

// PushConfig holds outbound push delivery configuration
type PushConfig struct {
	FunctionURL      string
	VAPIDPublicKey   string
	VAPIDPrivateKey  string
	VAPIDSubscriber  string
	RequestTimeout   time.Duration
	ServiceWorkerTTL int
}

// LoadConfig loads the configuration from file and environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Read from environment variables
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "10s")
	v.SetDefault("server.idleTimeout", "120s")

	// Database defaults
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", "30m")

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "notification-events")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// Notification lifecycle defaults
	v.SetDefault("notifications.maxVisible", 4)
	v.SetDefault("notifications.dismissTimeout", "15s")
	v.SetDefault("notifications.sweepInterval", "1h")
	v.SetDefault("notifications.maxAge", "48h")
	v.SetDefault("notifications.maxPersistentAge", "168h")
	v.SetDefault("notifications.maxReadAge", "24h")

	// Subscription defaults
	v.SetDefault("subscription.permissionTimeout", "3s")

	// Delivery queue defaults
	v.SetDefault("queue.maxRetries", 3)
	v.SetDefault("queue.retryDelay", "5s")

	// Reminder scheduler defaults
	v.SetDefault("reminder.scanInterval", "30s")
	v.SetDefault("reminder.debounce", "5s")

	// Audio defaults
	v.SetDefault("audio.playbackTimeout", "2s")
	v.SetDefault("audio.cacheDuration", "60s")

	// Overlay guard defaults
	v.SetDefault("overlay.webDelay", "800ms")
	v.SetDefault("overlay.iosPWADelay", "1500ms")

	// Push defaults
	v.SetDefault("push.requestTimeout", "10s")
	v.SetDefault("push.serviceWorkerTTL", 30)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

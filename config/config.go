package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/spf13/pflag"

	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/Temutjin2k/ride-realtime/pkg/configparser"
	"github.com/Temutjin2k/ride-realtime/pkg/logger"
)

// Errors
var (
	ErrInvalidStorage  = errors.New("invalid storage driver")
	ErrInvalidDelivery = errors.New("invalid status delivery policy")
	ErrWeakJWTSecret   = errors.New("jwt secret must be at least 16 characters")
)

// Config contains all configuration variables of the application
type (
	Config struct {
		ServiceName string `env:"SERVICE_NAME" default:"ride-realtime"`
		LogLevel    string `env:"LOG_LEVEL" default:"INFO"`

		Server    ServerConfig
		Database  DatabaseConfig
		RabbitMQ  RabbitMQConfig
		Redis     RedisConfig
		Kafka     KafkaConfig
		WebSocket WebSocketConfig
		Auth      Auth
		Geocoder  GeocoderConfig
	}

	ServerConfig struct {
		Host            string        `env:"SERVER_HOST" default:"0.0.0.0"`
		Port            string        `env:"SERVER_PORT" default:"3000"`
		ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"10s"`
		WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"15s"`
		IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
		ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	}

	DatabaseConfig struct {
		Driver types.StorageDriver `env:"DATABASE_DRIVER" default:"postgres"`

		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"ride_user"`
		Password string `env:"DATABASE_PASSWORD" default:"ride_pass"`
		Database string `env:"DATABASE_DATABASE" default:"ride_db"`
		SSLMode  string `env:"DATABASE_SSLMODE" default:"disable"`

		MaxConns        int32         `env:"DATABASE_MAXCONNS" default:"20"`         // максимум открытых соединений
		MinConns        int32         `env:"DATABASE_MINCONNS" default:"2"`          // минимум соединений в пуле
		MaxConnLifetime time.Duration `env:"DATABASE_MAXCONNLIFETIME" default:"30m"` // макс. "время жизни" соединения
	}

	RabbitMQConfig struct {
		Enabled  bool   `env:"RABBITMQ_ENABLED" default:"false"`
		Host     string `env:"RABBITMQ_HOST" default:"localhost"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`
		Exchange string `env:"RABBITMQ_EXCHANGE" default:"ride_topic"`
	}

	RedisConfig struct {
		Enabled     bool          `env:"REDIS_ENABLED" default:"false"`
		Addr        string        `env:"REDIS_ADDR" default:"localhost:6379"`
		Password    string        `env:"REDIS_PASSWORD"`
		DB          int           `env:"REDIS_DB" default:"0"`
		GeoKey      string        `env:"REDIS_GEO_KEY" default:"drivers:locations"`
		LocationTTL time.Duration `env:"REDIS_LOCATION_TTL" default:"10m"`
	}

	KafkaConfig struct {
		Enabled bool     `env:"KAFKA_ENABLED" default:"false"`
		Brokers []string `env:"KAFKA_BROKERS" default:"localhost:9092"`
		Topic   string   `env:"KAFKA_LOCATION_TOPIC" default:"driver-locations"`
	}

	WebSocketConfig struct {
		StatusDelivery types.StatusDelivery `env:"WEBSOCKET_STATUS_DELIVERY" default:"broadcast"`
		WriteTimeout   time.Duration        `env:"WEBSOCKET_WRITE_TIMEOUT" default:"5s"`
		PingInterval   time.Duration        `env:"WEBSOCKET_PING_INTERVAL" default:"30s"`
		ReadLimit      int64                `env:"WEBSOCKET_READ_LIMIT" default:"4096"`

		// входящих сообщений в секунду на соединение, 0 выключает лимит
		MessageRate  float64 `env:"WEBSOCKET_MESSAGE_RATE" default:"10"`
		MessageBurst int     `env:"WEBSOCKET_MESSAGE_BURST" default:"20"`

		AllowUnverifiedBind bool `env:"WEBSOCKET_ALLOW_UNVERIFIED_BIND" default:"false"`
	}

	Auth struct {
		AccessTokenTTL time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" default:"15m"`
		JWTSecret      string        `env:"AUTH_JWT_SECRET" default:"supersecretkey-change-me"`
	}

	// пустой ключ выключает геокодер
	GeocoderConfig struct {
		APIKey  string        `env:"LOCATIONIQ_API_KEY"`
		BaseURL string        `env:"LOCATIONIQ_BASE_URL" default:"https://us1.locationiq.com"`
		Timeout time.Duration `env:"LOCATIONIQ_TIMEOUT" default:"3s"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
	)
}

func (c DatabaseConfig) PoolLimits() (int32, int32, time.Duration) {
	return c.MaxConns, c.MinConns, c.MaxConnLifetime
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

func (c RedisConfig) GetAddr() string     { return c.Addr }
func (c RedisConfig) GetPassword() string { return c.Password }
func (c RedisConfig) GetDB() int          { return c.DB }

func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// NewConfig loads the yaml file into the environment and parses the config from it
func NewConfig(filepath string) (*Config, error) {
	cfg := &Config{}

	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if !logger.ValidateLogLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("invalid log level %q, expected DEBUG, INFO, WARN or ERROR", c.LogLevel))
	}
	if c.Database.Driver != types.StoragePostgres && c.Database.Driver != types.StorageMemory {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidStorage, c.Database.Driver))
	}
	if !c.WebSocket.StatusDelivery.IsValid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidDelivery, c.WebSocket.StatusDelivery))
	}
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, ErrWeakJWTSecret)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka enabled without brokers"))
	}

	return errors.Join(errs...)
}

// Flags are the command line flags shared by the binaries
type Flags struct {
	Help       bool
	ConfigPath string
}

func ParseFlags(args []string) (Flags, error) {
	var f Flags

	fs := pflag.NewFlagSet("ride", pflag.ContinueOnError)
	fs.BoolVarP(&f.Help, "help", "h", false, "Show help message")
	fs.StringVar(&f.ConfigPath, "config-path", "config.yaml", "Path to the config yaml file")

	if err := fs.Parse(args); err != nil {
		return f, err
	}
	return f, nil
}

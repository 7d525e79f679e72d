package config

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const HelpMessage = `
ride-realtime: ride lifecycle and real-time event routing service

Usage:
  ride [--config-path <file>] [--help]

Options:
  --config-path   Path to the config yaml file (default: config.yaml)
  -h, --help      Show this help message

Every setting can be overridden with an environment variable, e.g.
  DATABASE_DRIVER=memory            in-process storage, no postgres needed
  WEBSOCKET_STATUS_DELIVERY=targeted send status events only to rider and driver
  WEBSOCKET_ALLOW_UNVERIFIED_BIND=true accept ?userId= without a token (development)
  RABBITMQ_ENABLED, REDIS_ENABLED, KAFKA_ENABLED  turn on the side channels
  LOCATIONIQ_API_KEY                fill empty ride addresses by reverse geocoding
`

func PrintHelp() {
	fmt.Fprint(os.Stdout, HelpMessage)
}

// PrintConfig prints the effective configuration, secrets are masked
func PrintConfig(cfg *Config) {
	printConfig(os.Stdout, cfg)
}

func printConfig(w io.Writer, cfg *Config) {
	var b strings.Builder

	fmt.Fprintf(&b, "service:        %s (log level %s)\n", cfg.ServiceName, cfg.LogLevel)
	fmt.Fprintf(&b, "http:           %s\n", cfg.Server.Addr())
	fmt.Fprintf(&b, "storage:        %s", cfg.Database.Driver)
	if cfg.Database.Driver == "postgres" {
		fmt.Fprintf(&b, " %s@%s:%s/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "rabbitmq:       %s\n", enabled(cfg.RabbitMQ.Enabled, cfg.RabbitMQ.Host+":"+cfg.RabbitMQ.Port+" exchange="+cfg.RabbitMQ.Exchange))
	fmt.Fprintf(&b, "redis:          %s\n", enabled(cfg.Redis.Enabled, cfg.Redis.Addr))
	fmt.Fprintf(&b, "kafka:          %s\n", enabled(cfg.Kafka.Enabled, strings.Join(cfg.Kafka.Brokers, ",")+" topic="+cfg.Kafka.Topic))
	fmt.Fprintf(&b, "geocoder:       %s\n", enabled(cfg.Geocoder.APIKey != "", cfg.Geocoder.BaseURL))
	fmt.Fprintf(&b, "status events:  %s\n", cfg.WebSocket.StatusDelivery)
	fmt.Fprintf(&b, "unverified ws:  %t\n", cfg.WebSocket.AllowUnverifiedBind)
	fmt.Fprintf(&b, "jwt secret:     %s\n", mask(cfg.Auth.JWTSecret))

	fmt.Fprint(w, b.String())
}

func enabled(on bool, detail string) string {
	if !on {
		return "disabled"
	}
	return detail
}

func mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

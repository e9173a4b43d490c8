package config

import (
	"errors"
	"fmt"
	"strings"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
)

// Config is the relay runtime configuration.
// Environment values are read first, command-line flags override them.
type Config struct {
	APIListenAddr  string  `env:"RELAY_API_LISTEN_ADDR,default=:8080" validate:"required"`
	WSListenAddr   string  `env:"RELAY_WS_LISTEN_ADDR,default=:8888" validate:"required"`
	LogLevel       string  `env:"RELAY_LOG_LEVEL,default=debug" validate:"required"`
	CORSOrigins    string  `env:"RELAY_CORS_ORIGINS,default=*"`
	SendQueueSize  int     `env:"RELAY_SEND_QUEUE_SIZE,default=64" validate:"gte=1"`
	MaxMessageSize int     `env:"RELAY_MAX_MESSAGE_SIZE,default=65536" validate:"gte=1024"`
	EventRate      float64 `env:"RELAY_EVENT_RATE,default=50" validate:"gte=0"`
	EventBurst     int     `env:"RELAY_EVENT_BURST,default=100" validate:"gte=0"`

	ICEServersJSON string `env:"RELAY_ICE_SERVERS_JSON"`
	STUNURLs       string `env:"RELAY_STUN_URLS,default=stun:stun.l.google.com:19302"`
	TURNURLs       string `env:"RELAY_TURN_URLS"`
	TURNUsername   string `env:"RELAY_TURN_USERNAME"`
	TURNCredential string `env:"RELAY_TURN_CREDENTIAL"`

	Level      zerolog.Level
	ICEServers []webrtc.ICEServer
}

// Load reads the environment, applies command-line args on top and validates the result.
func Load(args []string) (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	fs := pflag.NewFlagSet("signal-relay", pflag.ContinueOnError)
	fs.StringVarP(&cfg.APIListenAddr, "api-listen-addr", "a", cfg.APIListenAddr, "api listen address")
	fs.StringVarP(&cfg.WSListenAddr, "ws-listen-addr", "w", cfg.WSListenAddr, "websocket signaling listen address")
	fs.StringVarP(&cfg.LogLevel, "log-level", "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.CORSOrigins, "cors-origins", cfg.CORSOrigins, "comma-separated list of allowed origins")
	fs.IntVar(&cfg.SendQueueSize, "send-queue-size", cfg.SendQueueSize, "per-connection outbound queue size")
	fs.IntVar(&cfg.MaxMessageSize, "max-message-size", cfg.MaxMessageSize, "max inbound websocket frame size in bytes")
	fs.Float64Var(&cfg.EventRate, "event-rate", cfg.EventRate, "inbound events per second per connection, 0 disables limiting")
	fs.IntVar(&cfg.EventBurst, "event-burst", cfg.EventBurst, "inbound event burst per connection")
	if err := fs.Parse(args); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) validate() error {
	if err := validator.New().Struct(cfg); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("log level: %w", err))
	}
	cfg.Level = lvl

	servers, err := ParseICEServers(cfg.ICEServersJSON, cfg.STUNURLs, cfg.TURNURLs, cfg.TURNUsername, cfg.TURNCredential)
	if err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	cfg.ICEServers = servers
	return nil
}

// AllowedOrigins returns the CORS origin list. Empty means any origin.
func (cfg *Config) AllowedOrigins() []string {
	return splitCSV(cfg.CORSOrigins)
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Package server provides configuration helpers that define runtime defaults,
// validation, and environment loading for the relay.
package server

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	// DefaultName is the display name of a participant that never renamed.
	DefaultName = "Unknown User"
	// NameCapacity is the name storage size including the terminator slot,
	// so a stored name holds at most NameCapacity-1 bytes.
	NameCapacity = 24
	// DefaultMaxMessageSize bounds one inbound message payload.
	DefaultMaxMessageSize = 1023
)

// RateLimitConfig defines the parameters for per-client chat rate limiting.
// A zero Burst disables limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// Config holds the relay settings.
type Config struct {
	Host             string        `env:"RELAY_HOST"`
	Port             int           `env:"RELAY_PORT,default=9000" validate:"gte=0,lte=65535"`
	PollInterval     time.Duration `env:"POLL_INTERVAL,default=1s" validate:"gt=0"`
	ReadWindow       time.Duration `env:"READ_WINDOW,default=5ms" validate:"gt=0"`
	WriteTimeout     time.Duration `env:"WRITE_TIMEOUT,default=5s" validate:"gt=0"`
	MaxMessageSize   int           `env:"MAX_MESSAGE_SIZE,default=1023" validate:"gt=0"`
	Framing          string        `env:"FRAMING,default=read" validate:"oneof=read line"`
	RateLimitBurst   int           `env:"RATE_LIMIT_BURST,default=0" validate:"gte=0"`
	RateLimitRefill  time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL,default=1s" validate:"gt=0"`
	CensoredWords    string        `env:"CENSORED_WORDS"`
	CensorCharacter  string        `env:"CENSOR_CHARACTER,default=*"`
	HTTPAddr         string        `env:"HTTP_ADDR"`
	AllowedOrigins   string        `env:"ALLOWED_ORIGINS,default=http://localhost:8080"`
	WebSocketBacklog int           `env:"WEBSOCKET_BACKLOG,default=16" validate:"gt=0"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s" validate:"gt=0"`
	LogLevel         string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

// DefaultConfig returns a Config populated with default values for all settings.
func DefaultConfig() Config {
	return Config{
		Port:             9000,
		PollInterval:     time.Second,
		ReadWindow:       5 * time.Millisecond,
		WriteTimeout:     5 * time.Second,
		MaxMessageSize:   DefaultMaxMessageSize,
		Framing:          string(FramingRead),
		RateLimitRefill:  time.Second,
		CensorCharacter:  "*",
		AllowedOrigins:   "http://localhost:8080",
		WebSocketBacklog: 16,
		ShutdownTimeout:  5 * time.Second,
		LogLevel:         "INFO",
	}
}

// LoadConfig reads an optional .env file, then the environment, then validates.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	cfg = sanitizeConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.CensorRune(); err != nil {
		return err
	}
	return nil
}

// sanitizeConfig fills zero values left by programmatic construction.
func sanitizeConfig(cfg Config) Config {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.ReadWindow <= 0 {
		cfg.ReadWindow = def.ReadWindow
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.Framing == "" {
		cfg.Framing = def.Framing
	}
	if cfg.RateLimitRefill <= 0 {
		cfg.RateLimitRefill = def.RateLimitRefill
	}
	if cfg.CensorCharacter == "" {
		cfg.CensorCharacter = def.CensorCharacter
	}
	if cfg.WebSocketBacklog <= 0 {
		cfg.WebSocketBacklog = def.WebSocketBacklog
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	return cfg
}

// RateLimit groups the token bucket settings.
func (c Config) RateLimit() RateLimitConfig {
	return RateLimitConfig{Burst: c.RateLimitBurst, RefillInterval: c.RateLimitRefill}
}

// WithPort overrides the port from a command line argument.
func (c Config) WithPort(arg string) (Config, error) {
	port, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || port < 0 || port > 65535 {
		return c, fmt.Errorf("invalid port %q", arg)
	}
	c.Port = port
	return c, nil
}

// ListenAddr is the TCP address the relay binds; an empty host means all interfaces.
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// CensoredWordList splits CENSORED_WORDS on commas.
func (c Config) CensoredWordList() []string {
	return parseList(c.CensoredWords)
}

// OriginList splits ALLOWED_ORIGINS on commas.
func (c Config) OriginList() []string {
	return parseList(c.AllowedOrigins)
}

// CensorRune returns the single replacement character used by moderation.
func (c Config) CensorRune() (rune, error) {
	r := []rune(c.CensorCharacter)
	if len(r) != 1 {
		return 0, fmt.Errorf("CENSOR_CHARACTER must be a single character, got %q", c.CensorCharacter)
	}
	return r[0], nil
}

func parseList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	req := require.New(t)
	cfg := DefaultConfig()

	req.NoError(cfg.Validate())
	req.Equal(9000, cfg.Port)
	req.Equal(time.Second, cfg.PollInterval)
	req.Equal(DefaultMaxMessageSize, cfg.MaxMessageSize)
	req.Equal(string(FramingRead), cfg.Framing)
	req.Equal(":9000", cfg.ListenAddr())
	req.Zero(cfg.RateLimitBurst, "chat rate limiting is opt-in")
}

func TestLoadConfig_RateLimitOptIn(t *testing.T) {
	req := require.New(t)
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")

	cfg, err := LoadConfig()

	req.NoError(err)
	req.Equal(RateLimitConfig{Burst: 3, RefillInterval: 2 * time.Second}, cfg.RateLimit())
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	req := require.New(t)

	// Given a relay configured through the environment
	t.Setenv("RELAY_HOST", "127.0.0.1")
	t.Setenv("RELAY_PORT", "7000")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("FRAMING", "line")
	t.Setenv("CENSORED_WORDS", "badger, snake ,")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("LOG_LEVEL", "DEBUG")

	// When it is loaded
	cfg, err := LoadConfig()

	// Then every variable is applied and the rest keeps its default
	req.NoError(err)
	req.Equal("127.0.0.1:7000", cfg.ListenAddr())
	req.Equal(250*time.Millisecond, cfg.PollInterval)
	req.Equal(string(FramingLine), cfg.Framing)
	req.Equal([]string{"badger", "snake"}, cfg.CensoredWordList())
	req.Equal([]string{"http://a.example", "http://b.example"}, cfg.OriginList())
	req.Equal(DefaultMaxMessageSize, cfg.MaxMessageSize)
	req.Equal(RateLimitConfig{Burst: 0, RefillInterval: time.Second}, cfg.RateLimit())
	req.Equal("DEBUG", cfg.LogLevel)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown framing", key: "FRAMING", value: "frames"},
		{name: "port out of range", key: "RELAY_PORT", value: "70000"},
		{name: "unknown log level", key: "LOG_LEVEL", value: "LOUD"},
		{name: "multi character censor", key: "CENSOR_CHARACTER", value: "**"},
		{name: "negative rate limit burst", key: "RATE_LIMIT_BURST", value: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

func TestConfig_WithPort(t *testing.T) {
	req := require.New(t)
	cfg := DefaultConfig()

	updated, err := cfg.WithPort(" 4242 ")
	req.NoError(err)
	req.Equal(4242, updated.Port)
	req.Equal(9000, cfg.Port)

	for _, arg := range []string{"", "abc", "-1", "65536"} {
		_, err := cfg.WithPort(arg)
		req.Error(err, "arg=%q", arg)
	}
}

func TestConfig_CensorRune(t *testing.T) {
	req := require.New(t)
	cfg := DefaultConfig()

	cfg.CensorCharacter = "#"
	r, err := cfg.CensorRune()
	req.NoError(err)
	req.Equal('#', r)

	cfg.CensorCharacter = "€"
	r, err = cfg.CensorRune()
	req.NoError(err)
	req.Equal('€', r)

	cfg.CensorCharacter = ""
	_, err = cfg.CensorRune()
	req.Error(err)
}

func TestSanitizeConfig_FillsZeroValues(t *testing.T) {
	req := require.New(t)

	cfg := sanitizeConfig(Config{Port: 1234})

	req.Equal(1234, cfg.Port)
	req.Equal(time.Second, cfg.PollInterval)
	req.Equal(DefaultMaxMessageSize, cfg.MaxMessageSize)
	req.Equal(string(FramingRead), cfg.Framing)
	req.Equal(16, cfg.WebSocketBacklog)
	req.NoError(cfg.Validate())
}

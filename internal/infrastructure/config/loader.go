package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	StateDir     string  `env:"PLADDER_STATE_DIR" envDefault:"data"`
	Prefix       string  `env:"PLADDER_PREFIX" envDefault:"~"`
	FuseLimit    int     `env:"PLADDER_FUSE_LIMIT" envDefault:"1000"`
	MaxDepth     int     `env:"PLADDER_MAX_DEPTH" envDefault:"64"`
	OutputFilter string  `env:"PLADDER_OUTPUT_FILTER"`
	APIAddr      string  `env:"PLADDER_API_ADDR" envDefault:":8080"`
	APIRate      float64 `env:"PLADDER_API_RATE" envDefault:"5"`
	RedisAddr    string  `env:"PLADDER_REDIS_ADDR"`
	LogLevel     string  `env:"PLADDER_LOG_LEVEL" envDefault:"info"`

	Twitch Twitch
	Kick   Kick
}

type Twitch struct {
	Username string   `env:"TWITCH_BOT_USERNAME"`
	Token    string   `env:"TWITCH_BOT_ACCESS_TOKEN"`
	Channels []string `env:"TWITCH_BOT_CHANNELS" envSeparator:","`
}

func (t Twitch) Enabled() bool {
	return t.Username != "" && t.Token != "" && len(t.Channels) > 0
}

type Kick struct {
	Token             string `env:"KICK_BOT_TOKEN"`
	BroadcasterUserID int    `env:"KICK_BROADCASTER_USER_ID"`
	ChatroomID        int    `env:"KICK_CHATROOM_ID"`
}

func (k Kick) Enabled() bool {
	return k.Token != "" && k.ChatroomID > 0
}

// Load lee los archivos .env indicados (".env" si no se indica ninguno) y
// después el entorno. Las variables ya definidas en el entorno ganan.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	channels := c.Twitch.Channels[:0]
	for _, ch := range c.Twitch.Channels {
		if ch = strings.TrimSpace(ch); ch != "" {
			channels = append(channels, ch)
		}
	}
	c.Twitch.Channels = channels
	c.Prefix = strings.TrimSpace(c.Prefix)
	c.OutputFilter = strings.TrimSpace(c.OutputFilter)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Prefix == "" {
		errs = append(errs, errors.New("PLADDER_PREFIX must not be empty"))
	}
	if c.FuseLimit <= 0 {
		errs = append(errs, errors.New("PLADDER_FUSE_LIMIT must be positive"))
	}
	if c.MaxDepth <= 0 {
		errs = append(errs, errors.New("PLADDER_MAX_DEPTH must be positive"))
	}
	if c.APIRate <= 0 {
		errs = append(errs, errors.New("PLADDER_API_RATE must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

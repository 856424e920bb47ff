package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	LogLevel   string        `mapstructure:"log_level"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	SendBuffer int           `mapstructure:"send_buffer"`

	DBPath         string `mapstructure:"db_path"`
	UploadDir      string `mapstructure:"upload_dir"`
	UploadURL      string `mapstructure:"upload_url"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`

	HistoryLimit int           `mapstructure:"history_limit"`
	BcryptCost   int           `mapstructure:"bcrypt_cost"`
	PendingTTL   time.Duration `mapstructure:"pending_ttl"`
	// Backpressure is "drop" or "kick".
	Backpressure     string        `mapstructure:"backpressure"`
	ChatRateLimit    int           `mapstructure:"chat_rate_limit"`
	ChatRateInterval time.Duration `mapstructure:"chat_rate_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("db_path", "lobby.db")
	v.SetDefault("upload_dir", "./uploads")
	v.SetDefault("upload_url", "/uploads")
	v.SetDefault("max_upload_bytes", 25<<20)
	v.SetDefault("history_limit", 200)
	v.SetDefault("bcrypt_cost", 12)
	v.SetDefault("pending_ttl", "0s")
	v.SetDefault("backpressure", "drop")
	v.SetDefault("chat_rate_limit", 20)
	v.SetDefault("chat_rate_interval", "10s")
}

// Load reads config/config.<CONFIG_ENV>.yaml (CONFIG_ENV defaults to dev).
// Every key can be overridden with a LOBBY_ prefixed variable, e.g. LOBBY_PORT.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("LOBBY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("db", cfg.DBPath).Msg("config ready")
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Backpressure {
	case "drop", "kick":
	default:
		return fmt.Errorf("invalid backpressure %q: want drop or kick", c.Backpressure)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.PendingTTL < 0 {
		return fmt.Errorf("invalid pending_ttl %s", c.PendingTTL)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "STAGEHAND"

var ErrMissingCredentials = errors.New("tls credentials missing")

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Bind       string        `mapstructure:"bind"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	PublicURL  string        `mapstructure:"public_url"`
	TLSCert    string        `mapstructure:"tls_cert"`
	TLSKey     string        `mapstructure:"tls_key"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	SendBuffer int           `mapstructure:"send_buffer"`

	Backpressure          string  `mapstructure:"backpressure"`
	RateLimit             float64 `mapstructure:"rate_limit"`
	RateBurst             int     `mapstructure:"rate_burst"`
	ResetPhotosOnShooting bool    `mapstructure:"reset_photos_on_shooting"`

	Metrics   bool   `mapstructure:"metrics"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("bind", "0.0.0.0")
	v.SetDefault("port", 3000)
	v.SetDefault("static_path", "./public")
	v.SetDefault("public_url", "")
	v.SetDefault("tls_cert", "server-cert.pem")
	v.SetDefault("tls_key", "server-key.pem")
	v.SetDefault("read_limit", 16<<20)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("backpressure", "drop")
	v.SetDefault("rate_limit", 0)
	v.SetDefault("rate_burst", 20)
	v.SetDefault("reset_photos_on_shooting", false)
	v.SetDefault("metrics", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// BindFlags declares the command line flags. Every flag is also readable
// from the environment as STAGEHAND_<NAME> and from the config file.
func BindFlags(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.String("mode", "release", "gin mode: release or debug (env: STAGEHAND_MODE)")
	fs.StringP("bind", "b", "0.0.0.0", "address to bind to (env: STAGEHAND_BIND)")
	fs.IntP("port", "p", 3000, "port to listen on (env: STAGEHAND_PORT)")
	fs.String("static-path", "./public", "directory holding the camera, control and navi bundles (env: STAGEHAND_STATIC_PATH)")
	fs.String("public-url", "", "base URL clients use to reach the server, detected when empty (env: STAGEHAND_PUBLIC_URL)")
	fs.String("tls-cert", "server-cert.pem", "path to tls certificate (env: STAGEHAND_TLS_CERT)")
	fs.String("tls-key", "server-key.pem", "path to tls keyfile (env: STAGEHAND_TLS_KEY)")
	fs.Int64("read-limit", 16<<20, "maximum inbound message size in bytes (env: STAGEHAND_READ_LIMIT)")
	fs.Duration("ping-period", 54*time.Second, "websocket keepalive interval (env: STAGEHAND_PING_PERIOD)")
	fs.Int("send-buffer", 64, "queued outbound frames per connection (env: STAGEHAND_SEND_BUFFER)")
	fs.String("backpressure", "drop", "full send queue handling: drop or kick (env: STAGEHAND_BACKPRESSURE)")
	fs.Float64("rate-limit", 0, "inbound messages per second per connection, 0 disables (env: STAGEHAND_RATE_LIMIT)")
	fs.Int("rate-burst", 20, "inbound burst size per connection (env: STAGEHAND_RATE_BURST)")
	fs.Bool("reset-photos-on-shooting", false, "clear collected photos when a shooting round starts (env: STAGEHAND_RESET_PHOTOS_ON_SHOOTING)")
	fs.Bool("metrics", true, "serve prometheus metrics at /metrics (env: STAGEHAND_METRICS)")
	fs.String("log-level", "info", "log level (env: STAGEHAND_LOG_LEVEL)")
	fs.String("log-format", "console", "log format: console or json (env: STAGEHAND_LOG_FORMAT)")
}

// Load reads config/config.<CONFIG_ENV>.yaml, then the environment, then
// any flag that was set explicitly.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	setDefaults(v)

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.TLSCert == "" || c.TLSKey == "" {
		return fmt.Errorf("%w: both tls_cert and tls_key must be set", ErrMissingCredentials)
	}
	for _, p := range []string{c.TLSKey, c.TLSCert} {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("%w: %w", ErrMissingCredentials, err)
		}
	}
	switch c.Backpressure {
	case "drop", "kick":
	default:
		return fmt.Errorf("invalid backpressure policy %q", c.Backpressure)
	}
	if c.SendBuffer < 1 {
		return fmt.Errorf("send_buffer must be positive: %d", c.SendBuffer)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

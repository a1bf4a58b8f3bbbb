package internal

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type NovaDBConfig struct {
	AppName string `mapstructure:"app_name" validate:"required"`

	Storage struct {
		Mode      string `mapstructure:"mode" validate:"oneof=file bolt leveldb pebble redis memory"`
		Workdir   string `mapstructure:"workdir"`
		Codec     string `mapstructure:"codec" validate:"oneof=json msgpack"`
		RedisAddr string `mapstructure:"redis_addr"`
	} `mapstructure:"storage"`

	Cache struct {
		Enabled    bool `mapstructure:"enabled"`
		SizeMB     int  `mapstructure:"size_mb" validate:"gte=1,lte=4096"`
		TTLSeconds int  `mapstructure:"ttl_seconds" validate:"gte=0"`
	} `mapstructure:"cache"`

	Server struct {
		Addr        string `mapstructure:"addr" validate:"required,hostname_port"`
		MetricsAddr string `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
	} `mapstructure:"server"`

	Log struct {
		Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
		Format string `mapstructure:"format" validate:"oneof=text json"`
	} `mapstructure:"log"`
}

func (c *NovaDBConfig) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "novadb")
	v.SetDefault("storage.mode", "file")
	v.SetDefault("storage.workdir", "./data")
	v.SetDefault("storage.codec", "json")
	v.SetDefault("storage.redis_addr", "")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size_mb", 16)
	v.SetDefault("cache.ttl_seconds", 0)
	v.SetDefault("server.addr", "127.0.0.1:8866")
	v.SetDefault("server.metrics_addr", "127.0.0.1:9466")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("NOVADB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
	}
	return v
}

func decode(v *viper.Viper) (*NovaDBConfig, error) {
	var cfg NovaDBConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Storage.Mode = strings.ToLower(cfg.Storage.Mode)
	cfg.Storage.Codec = strings.ToLower(cfg.Storage.Codec)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	switch cfg.Storage.Mode {
	case "redis":
		if cfg.Storage.RedisAddr == "" {
			return nil, errors.New("validate config: storage.redis_addr is required in redis mode")
		}
	case "memory":
	default:
		if cfg.Storage.Workdir == "" {
			return nil, errors.Errorf("validate config: storage.workdir is required in %s mode", cfg.Storage.Mode)
		}
	}
	return &cfg, nil
}

// LoadConfig reads the YAML file at path on top of the defaults. An empty
// path uses defaults and NOVADB_* environment variables only.
func LoadConfig(path string) (*NovaDBConfig, error) {
	v := newViper(path)
	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return decode(v)
}

// WatchConfig loads the config at path and calls onChange with every later
// version of the file that still validates. Invalid edits are reported to
// onError and otherwise ignored.
func WatchConfig(path string, onChange func(*NovaDBConfig), onError func(error)) (*NovaDBConfig, error) {
	if path == "" {
		return nil, errors.New("novadb: watch needs a config file")
	}
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(errors.WithMessagef(err, "reload %s", e.Name))
			}
			return
		}
		onChange(next)
	})
	v.WatchConfig()
	return cfg, nil
}

// ParseLogLevel maps a config level name to a slog level.
func ParseLogLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger on top of lv, so a config reload can
// change the level without rebuilding the handler.
func NewLogger(w io.Writer, lv *slog.LevelVar, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lv}

	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

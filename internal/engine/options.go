package engine

import (
	"log/slog"
	"time"

	"github.com/tuannm99/novadb/internal"
	"github.com/tuannm99/novadb/internal/metrics"
	"github.com/tuannm99/novadb/internal/storage"
)

type Options struct {
	Mode    storage.StorageMode
	Dir     string
	FileExt string
	Codec   string // json (default) or msgpack

	RedisAddr   string
	RedisPrefix string

	// Engine overrides Mode and the settings above when set.
	Engine storage.Engine

	// CacheSize is the SELECT result cache size in bytes; zero disables it.
	CacheSize int
	CacheTTL  time.Duration

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Mode == 0 {
		o.Mode = storage.File
	}
	if o.Mode == storage.File && o.FileExt == "" {
		o.FileExt = "json"
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Metrics == nil {
		o.Metrics = metrics.New("novadb")
	}
	return o
}

// OptionsFromConfig maps the process configuration onto Options.
func OptionsFromConfig(cfg *internal.NovaDBConfig, log *slog.Logger) (Options, error) {
	mode, err := storage.ParseMode(cfg.Storage.Mode)
	if err != nil {
		return Options{}, err
	}
	opts := Options{
		Mode:      mode,
		Dir:       cfg.Storage.Workdir,
		Codec:     cfg.Storage.Codec,
		RedisAddr: cfg.Storage.RedisAddr,
		Logger:    log,
	}
	if cfg.Storage.Codec == "msgpack" {
		opts.FileExt = "msgpack"
	}
	if cfg.Cache.Enabled {
		opts.CacheSize = cfg.Cache.SizeMB * 1024 * 1024
		opts.CacheTTL = cfg.CacheTTL()
	}
	return opts, nil
}

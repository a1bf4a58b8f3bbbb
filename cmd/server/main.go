package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tuannm99/novadb"
	"github.com/tuannm99/novadb/internal"
	"github.com/tuannm99/novadb/internal/engine"
	"github.com/tuannm99/novadb/server/novadbwire"
)

func main() {
	cfgPath := flag.String("config", "", "path to a YAML config file (defaults and NOVADB_* env otherwise)")
	addr := flag.String("addr", "", "listen address, overrides server.addr")
	dataDir := flag.String("data-dir", "", "work directory, overrides storage.workdir")
	flag.Parse()

	if err := run(*cfgPath, *addr, *dataDir); err != nil {
		slog.Error("novadb: server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfgPath, addr, dataDir string) error {
	// reloads only touch level, set before the watcher starts
	level := new(slog.LevelVar)

	var (
		cfg *internal.NovaDBConfig
		err error
	)
	if cfgPath != "" {
		cfg, err = internal.WatchConfig(cfgPath, reloadLevel(level),
			func(err error) { slog.Warn("novadb: config reload rejected", "err", err) })
	} else {
		cfg, err = internal.LoadConfig("")
	}
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if dataDir != "" {
		cfg.Storage.Workdir = dataDir
	}

	level.Set(internal.ParseLogLevel(cfg.Log.Level))
	logger := internal.NewLogger(os.Stderr, level, cfg.Log.Format).With("app", cfg.AppName)
	slog.SetDefault(logger)

	opts, err := engine.OptionsFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	db, err := novadb.Open(opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("novadb: close failed", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", db.Metrics().Handler())
		ms := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("novadb: metrics listening", "addr", cfg.Server.MetricsAddr)
			if err := ms.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("novadb: metrics server failed", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ms.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("novadb: starting",
		"addr", cfg.Server.Addr, "mode", cfg.Storage.Mode, "workdir", cfg.Storage.Workdir)
	return novadbwire.NewServer(db, logger).ListenAndServe(ctx, cfg.Server.Addr)
}

// reloadLevel applies the log level of each reloaded config to level.
func reloadLevel(level *slog.LevelVar) func(*internal.NovaDBConfig) {
	return func(next *internal.NovaDBConfig) {
		level.Set(internal.ParseLogLevel(next.Log.Level))
		slog.Info("novadb: config reloaded", "log_level", next.Log.Level)
	}
}

package cmd

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ziadkadry99/tocsync/internal/config"
	"github.com/ziadkadry99/tocsync/internal/host"
	"github.com/ziadkadry99/tocsync/internal/logging"
	"github.com/ziadkadry99/tocsync/internal/session"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `tocsync init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the console logger for cfg; --verbose forces debug.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := string(cfg.Log.Level)
	if verbose {
		level = logging.LevelDebug
	}
	return logging.Console(level)
}

// setup loads the config and its logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// openSession opens a session over the built site and loads ref into it.
func openSession(ctx context.Context, cfg *config.Config, log *zap.Logger, ref string) (*session.Session, error) {
	schema, err := cfg.Schema()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.SiteDir); err != nil {
		return nil, fmt.Errorf("site directory %s: %w\nRun `tocsync build` first", cfg.SiteDir, err)
	}
	sess, err := session.New(ctx, host.DirLoader{FS: os.DirFS(cfg.SiteDir)}, schema, log)
	if err != nil {
		return nil, err
	}
	if err := sess.Navigate(ctx, ref); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}

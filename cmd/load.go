package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"BucketPurger/internal/config"
	"BucketPurger/internal/logging"
	"BucketPurger/internal/provider"
)

// newBackend is swapped out in tests.
var newBackend = provider.New

var globalFlagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
}

var s3FlagKeys = map[string]string{
	"bucket":   "s3.bucket",
	"region":   "s3.region",
	"endpoint": "s3.endpoint",
	"driver":   "s3.driver",
}

// loadConfig layers file, environment and the command's flags, then validates.
func loadConfig(cmd *cobra.Command, flagKeys ...map[string]string) (*config.Config, error) {
	v, err := config.Load(configPath, false)
	if err != nil {
		return nil, err
	}
	fs := cmd.Flags()
	if err := config.BindFlags(v, fs, globalFlagKeys); err != nil {
		return nil, err
	}
	for _, keys := range flagKeys {
		if err := config.BindFlags(v, fs, keys); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Unmarshal(v)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	var level, format string
	if cfg.Log != nil {
		level, format = cfg.Log.Level, cfg.Log.Format
	}
	return logging.New(cmd.ErrOrStderr(), level, format)
}

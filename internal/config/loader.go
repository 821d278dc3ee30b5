package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ErrConfigNotFound is returned when an explicitly named config file is missing.
var ErrConfigNotFound = errors.New("config file not found")

// New returns a viper instance with defaults and environment binding but no
// file. Every key has a default so AutomaticEnv can resolve it on Unmarshal.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("s3.driver", DriverAWS)
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", DefaultRegion)
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.path_style", false)
	v.SetDefault("s3.max_retries", 0)
	v.SetDefault("s3.tls.insecure_skip_verify", false)

	v.SetDefault("purge.settle_delay", true)
	v.SetDefault("purge.settle_seconds", DefaultSettleSeconds)
	v.SetDefault("purge.wait_empty", false)
	v.SetDefault("purge.wait_timeout_seconds", DefaultWaitTimeoutSeconds)
	v.SetDefault("purge.poll_interval_seconds", DefaultPollIntervalSeconds)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.discord.enabled", false)
	v.SetDefault("notifications.discord.webhook_url", "")
	v.SetDefault("notifications.discord.timeout_seconds", 10)
	v.SetDefault("notifications.discord.events", []string{"start", "success", "error"})
	v.SetDefault("notifications.discord.mentions.on_error", "")
	v.SetDefault("notifications.discord.retry.attempts", 3)
	v.SetDefault("notifications.discord.retry.backoff_ms", 500)
}

// Load reads configuration from flagPath, BUCKETPURGER_CONFIG or the default
// path, layered under environment variables. The default file is optional.
func Load(flagPath string, checkPerms bool) (*viper.Viper, error) {
	path, explicit := ResolveConfigPath(flagPath)
	v := New()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			if explicit {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			return v, nil
		}
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	if checkPerms {
		if err := checkConfigPermissions(path); err != nil {
			return nil, err
		}
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return v, nil
}

func checkConfigPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	mode := info.Mode().Perm()

	if mode&0077 != 0 {
		return fmt.Errorf("config file %s has overly permissive mode %s (recommended: 0600)", path, mode)
	}
	return nil
}

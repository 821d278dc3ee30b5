package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var ErrConfigExists = errors.New("config file already exists (use --force to overwrite)")

// StarterOptions seeds the config written by `bucketpurger init`.
type StarterOptions struct {
	Bucket     string
	Region     string
	Endpoint   string
	Driver     string
	WebhookURL string
}

// Starter builds a complete config with defaults filled in, so the written
// file documents every setting.
func Starter(o StarterOptions) *Config {
	driver := o.Driver
	if driver == "" {
		driver = DriverAWS
	}
	region := o.Region
	if region == "" {
		region = DefaultRegion
	}
	cfg := &Config{
		S3: &S3Config{
			Driver:    driver,
			Endpoint:  o.Endpoint,
			Region:    region,
			Bucket:    o.Bucket,
			PathStyle: driver == DriverMinio,
		},
		Purge: &PurgeConfig{
			SettleDelay:         true,
			SettleSeconds:       DefaultSettleSeconds,
			WaitTimeoutSeconds:  DefaultWaitTimeoutSeconds,
			PollIntervalSeconds: DefaultPollIntervalSeconds,
		},
		Log: &LogConfig{Level: "info", Format: "text"},
	}
	if o.WebhookURL != "" {
		cfg.Notifications = &NotificationsConfig{
			Enabled: true,
			Discord: &DiscordConfig{
				Enabled:        true,
				WebhookURL:     o.WebhookURL,
				TimeoutSeconds: 10,
				Events:         []string{"start", "success", "error"},
				Retry:          &DiscordRetry{Attempts: 3, BackoffMs: 500},
			},
		}
	}
	return cfg
}

func Write(cfg *Config, path string, force bool) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir %s: %w", dir, err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

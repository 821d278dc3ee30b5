package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DriverAWS   = "aws"
	DriverMinio = "minio"
)

const (
	DefaultRegion              = "us-east-1"
	DefaultSettleSeconds       = 5
	DefaultWaitTimeoutSeconds  = 60
	DefaultPollIntervalSeconds = 2
)

type Config struct {
	S3            *S3Config            `mapstructure:"s3" yaml:"s3,omitempty"`
	Purge         *PurgeConfig         `mapstructure:"purge" yaml:"purge,omitempty"`
	Log           *LogConfig           `mapstructure:"log" yaml:"log,omitempty"`
	Notifications *NotificationsConfig `mapstructure:"notifications" yaml:"notifications,omitempty"`
}

type S3Config struct {
	Driver     string     `mapstructure:"driver" yaml:"driver,omitempty"`
	Endpoint   string     `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Region     string     `mapstructure:"region" yaml:"region,omitempty"`
	AccessKey  string     `mapstructure:"access_key" yaml:"access_key,omitempty"`
	SecretKey  string     `mapstructure:"secret_key" yaml:"secret_key,omitempty"`
	Bucket     string     `mapstructure:"bucket" yaml:"bucket,omitempty"`
	PathStyle  bool       `mapstructure:"path_style" yaml:"path_style,omitempty"`
	MaxRetries int        `mapstructure:"max_retries" yaml:"max_retries,omitempty"`
	TLS        *TLSConfig `mapstructure:"tls" yaml:"tls,omitempty"`
}

type TLSConfig struct {
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify,omitempty"`
}

// PurgeConfig controls the pause between deleting versions and deleting the
// bucket. SettleDelay false skips the pause entirely.
type PurgeConfig struct {
	SettleDelay         bool `mapstructure:"settle_delay" yaml:"settle_delay"`
	SettleSeconds       int  `mapstructure:"settle_seconds" yaml:"settle_seconds,omitempty"`
	WaitEmpty           bool `mapstructure:"wait_empty" yaml:"wait_empty,omitempty"`
	WaitTimeoutSeconds  int  `mapstructure:"wait_timeout_seconds" yaml:"wait_timeout_seconds,omitempty"`
	PollIntervalSeconds int  `mapstructure:"poll_interval_seconds" yaml:"poll_interval_seconds,omitempty"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level,omitempty"`
	Format string `mapstructure:"format" yaml:"format,omitempty"`
}

type NotificationsConfig struct {
	Enabled bool           `mapstructure:"enabled" yaml:"enabled"`
	Discord *DiscordConfig `mapstructure:"discord" yaml:"discord,omitempty"`
}

type DiscordConfig struct {
	Enabled        bool             `mapstructure:"enabled" yaml:"enabled"`
	WebhookURL     string           `mapstructure:"webhook_url" yaml:"webhook_url,omitempty"`
	TimeoutSeconds int              `mapstructure:"timeout_seconds" yaml:"timeout_seconds,omitempty"`
	Events         []string         `mapstructure:"events" yaml:"events,omitempty"`
	Mentions       *DiscordMentions `mapstructure:"mentions" yaml:"mentions,omitempty"`
	Retry          *DiscordRetry    `mapstructure:"retry" yaml:"retry,omitempty"`
}

type DiscordMentions struct {
	OnError string `mapstructure:"on_error" yaml:"on_error,omitempty"`
}

type DiscordRetry struct {
	Attempts  int `mapstructure:"attempts" yaml:"attempts,omitempty"`
	BackoffMs int `mapstructure:"backoff_ms" yaml:"backoff_ms,omitempty"`
}

func Unmarshal(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// NotificationsEnabled reports whether any notification may be sent.
func NotificationsEnabled(n *NotificationsConfig) bool {
	return n != nil && n.Enabled
}

// SettleDuration is the fixed pause to apply, zero when disabled.
func (p *PurgeConfig) SettleDuration() time.Duration {
	if p == nil || !p.SettleDelay || p.SettleSeconds <= 0 {
		return 0
	}
	return time.Duration(p.SettleSeconds) * time.Second
}

func (p *PurgeConfig) WaitTimeout() time.Duration {
	if p == nil {
		return 0
	}
	return time.Duration(p.WaitTimeoutSeconds) * time.Second
}

func (p *PurgeConfig) PollInterval() time.Duration {
	if p == nil {
		return 0
	}
	return time.Duration(p.PollIntervalSeconds) * time.Second
}

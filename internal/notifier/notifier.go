// Package notifier reports purge progress to chat webhooks.
package notifier

import (
	"context"
	"time"

	"BucketPurger/internal/config"
)

const (
	EventStart   = "start"
	EventSuccess = "success"
	EventWarning = "warning"
	EventError   = "error"
)

type Notifier interface {
	NotifyStart(ctx context.Context, bucket string) error
	NotifySuccess(ctx context.Context, bucket string, deleted int, duration time.Duration) error
	NotifyWarning(ctx context.Context, bucket, message string) error
	NotifyError(ctx context.Context, bucket string, err error) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) NotifyStart(context.Context, string) error                       { return nil }
func (Nop) NotifySuccess(context.Context, string, int, time.Duration) error { return nil }
func (Nop) NotifyWarning(context.Context, string, string) error             { return nil }
func (Nop) NotifyError(context.Context, string, error) error                { return nil }

// FromConfig returns the configured notifier, or Nop when notifications are
// off or no channel is enabled.
func FromConfig(cfg *config.NotificationsConfig) (Notifier, error) {
	if !config.NotificationsEnabled(cfg) || cfg.Discord == nil || !cfg.Discord.Enabled {
		return Nop{}, nil
	}
	return NewDiscordNotifier(cfg.Discord)
}

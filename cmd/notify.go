package cmd

import (
	"BucketPurger/internal/config"
	"BucketPurger/internal/notifier"
)

// NotifierFromConfig builds the configured Notifier. A misconfigured channel
// is reported through warn and replaced by a no-op so the purge still runs.
func NotifierFromConfig(cfg *config.Config, warn func(string)) notifier.Notifier {
	if cfg == nil {
		return notifier.Nop{}
	}
	n, err := notifier.FromConfig(cfg.Notifications)
	if err != nil {
		if warn != nil {
			warn("discord notification: " + err.Error())
		}
		return notifier.Nop{}
	}
	return n
}

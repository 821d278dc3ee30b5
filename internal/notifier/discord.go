package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"BucketPurger/internal/config"
)

type DiscordNotifier struct {
	webhookURL string
	retry      *config.DiscordRetry
	mentions   *config.DiscordMentions
	events     map[string]struct{}
	host       string
	client     *http.Client
	now        func() time.Time
}

type discordEmbed struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

func NewDiscordNotifier(cfg *config.DiscordConfig) (*DiscordNotifier, error) {
	if cfg == nil || !cfg.Enabled || cfg.WebhookURL == "" {
		return nil, fmt.Errorf("discord notifier disabled or missing webhook_url")
	}
	host, _ := os.Hostname()
	if host == "" {
		host = "unknown"
	}
	timeout := 10 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	events := make(map[string]struct{})
	for _, e := range cfg.Events {
		events[e] = struct{}{}
	}
	return &DiscordNotifier{
		webhookURL: cfg.WebhookURL,
		retry:      cfg.Retry,
		mentions:   cfg.Mentions,
		events:     events,
		host:       host,
		client:     &http.Client{Timeout: timeout},
		now:        time.Now,
	}, nil
}

func (d *DiscordNotifier) allowed(event string) bool {
	if len(d.events) == 0 {
		return true
	}
	_, ok := d.events[event]
	return ok
}

func (d *DiscordNotifier) errorMention() string {
	if d.mentions != nil {
		return d.mentions.OnError
	}
	return ""
}

func (d *DiscordNotifier) send(ctx context.Context, embed discordEmbed, mention string) error {
	embed.Timestamp = d.now().UTC().Format(time.RFC3339)
	body, err := json.Marshal(discordPayload{Content: mention, Embeds: []discordEmbed{embed}})
	if err != nil {
		return err
	}
	attempts := 1
	var delay time.Duration
	if d.retry != nil && d.retry.Attempts > 1 {
		attempts = d.retry.Attempts
		delay = time.Duration(d.retry.BackoffMs) * time.Millisecond
	}
	var lastStatus int
	for i := 0; i < attempts; i++ {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := d.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		_ = resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastStatus = resp.StatusCode
	}
	if lastStatus != 0 {
		return fmt.Errorf("discord webhook failed after %d attempts (last status %d)", attempts, lastStatus)
	}
	return fmt.Errorf("discord webhook failed after %d attempts", attempts)
}

func (d *DiscordNotifier) fields(bucket string, extra ...discordField) []discordField {
	return append([]discordField{
		{Name: "Host", Value: d.host, Inline: true},
		{Name: "Bucket", Value: bucket, Inline: true},
	}, extra...)
}

func (d *DiscordNotifier) NotifyStart(ctx context.Context, bucket string) error {
	if !d.allowed(EventStart) {
		return nil
	}
	return d.send(ctx, discordEmbed{
		Title:  "Bucket purge started",
		Color:  0x3498db,
		Fields: d.fields(bucket),
	}, "")
}

func (d *DiscordNotifier) NotifySuccess(ctx context.Context, bucket string, deleted int, duration time.Duration) error {
	if !d.allowed(EventSuccess) {
		return nil
	}
	return d.send(ctx, discordEmbed{
		Title: "Bucket purged",
		Color: 0x2ecc71,
		Fields: d.fields(bucket,
			discordField{Name: "Versions deleted", Value: strconv.Itoa(deleted), Inline: true},
			discordField{Name: "Duration", Value: duration.Round(time.Millisecond).String(), Inline: true},
		),
	}, "")
}

func (d *DiscordNotifier) NotifyWarning(ctx context.Context, bucket, message string) error {
	if !d.allowed(EventWarning) {
		return nil
	}
	return d.send(ctx, discordEmbed{
		Title:       "Bucket purge warning",
		Description: message,
		Color:       0xf1c40f,
		Fields:      d.fields(bucket),
	}, d.errorMention())
}

func (d *DiscordNotifier) NotifyError(ctx context.Context, bucket string, err error) error {
	if !d.allowed(EventError) {
		return nil
	}
	return d.send(ctx, discordEmbed{
		Title:       "Bucket purge failed",
		Description: err.Error(),
		Color:       0xe74c3c,
		Fields:      d.fields(bucket),
	}, d.errorMention())
}

// Package purge irreversibly empties a versioned bucket and then deletes it.
//
// A purge runs three phases in order, each starting only after the previous
// one returned: delete every object version and delete marker, settle, then
// delete the bucket. Nothing is rolled back when a later phase fails.
package purge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"BucketPurger/internal/storage"
)

// Status lines emitted after each completed phase.
const (
	StatusVersionsDeleted = "all object versions delete invoked"
	StatusBucketDeleted   = "bucket delete complete"
)

var errEmptyBucket = errors.New("bucket name is empty")

// Options tunes the settle phase and where progress is reported.
type Options struct {
	// SettleDelay is the fixed pause between deleting versions and deleting
	// the bucket. Zero skips it.
	SettleDelay time.Duration
	// WaitForEmpty replaces the fixed pause with polling the version listing
	// until it is empty or WaitTimeout has been spent waiting.
	WaitForEmpty bool
	WaitTimeout  time.Duration
	PollInterval time.Duration

	Logger *slog.Logger
	// Status receives the human-readable phase lines.
	Status func(string)
	// Sleep pauses for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Purger runs the purge sequence against one backend.
type Purger struct {
	backend storage.Backend
	opts    Options
	log     *slog.Logger
}

// Result describes what a purge did, including when it failed part way.
type Result struct {
	Bucket        string
	Deleted       int
	Errors        []storage.DeleteError
	Waited        time.Duration
	BucketDeleted bool
}

// New returns a Purger with the sleep and logger defaults filled in.
func New(backend storage.Backend, opts Options) *Purger {
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Status == nil {
		opts.Status = func(string) {}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Purger{backend: backend, opts: opts, log: log}
}

// Purge deletes every version in bucket and then the bucket itself. A missing
// bucket fails with storage.ErrBucketNotFound before anything is deleted.
// Per-entry delete failures are reported in the result and logged; the bucket
// delete that follows then fails with storage.ErrBucketNotEmpty.
func (p *Purger) Purge(ctx context.Context, bucket string) (*Result, error) {
	bucket, err := p.checkBucket(ctx, bucket)
	if err != nil {
		return nil, err
	}
	res := &Result{Bucket: bucket}
	log := p.log.With("bucket", bucket)

	log.Info("deleting all object versions")
	dr, err := p.backend.DeleteAllVersions(ctx, bucket)
	if dr != nil {
		res.Deleted = dr.Deleted
		res.Errors = dr.Errors
	}
	for _, e := range res.Errors {
		log.Warn("object version not deleted",
			"key", e.Key, "version_id", e.VersionID, "code", e.Code, "message", e.Message)
	}
	if err != nil {
		return res, fmt.Errorf("delete object versions: %w", err)
	}
	log.Info("object versions deleted", "deleted", res.Deleted, "failed", len(res.Errors))
	p.opts.Status(StatusVersionsDeleted)

	waited, err := p.settle(ctx, bucket, log)
	res.Waited = waited
	if err != nil {
		return res, err
	}

	log.Info("deleting bucket")
	if err := p.backend.DeleteBucket(ctx, bucket); err != nil {
		return res, fmt.Errorf("delete bucket: %w", err)
	}
	res.BucketDeleted = true
	log.Info("bucket deleted")
	p.opts.Status(StatusBucketDeleted)
	return res, nil
}

func (p *Purger) checkBucket(ctx context.Context, bucket string) (string, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return "", storage.NewError("purge", "", storage.ErrInvalidInput, errEmptyBucket)
	}
	ok, err := p.backend.BucketExists(ctx, bucket)
	if err != nil {
		return "", fmt.Errorf("check bucket: %w", err)
	}
	if !ok {
		return "", storage.NewError("headBucket", bucket, storage.ErrBucketNotFound, errors.New("bucket does not exist"))
	}
	return bucket, nil
}

// settle returns the time spent waiting between the two destructive phases.
func (p *Purger) settle(ctx context.Context, bucket string, log *slog.Logger) (time.Duration, error) {
	if p.opts.WaitForEmpty {
		return p.waitEmpty(ctx, bucket, log)
	}
	if p.opts.SettleDelay <= 0 {
		return 0, nil
	}
	log.Debug("settling", "delay", p.opts.SettleDelay)
	if err := p.opts.Sleep(ctx, p.opts.SettleDelay); err != nil {
		return 0, err
	}
	return p.opts.SettleDelay, nil
}

// waitEmpty polls the listing until it is empty. Once WaitTimeout has been
// spent it gives up and lets the bucket delete report what remains.
func (p *Purger) waitEmpty(ctx context.Context, bucket string, log *slog.Logger) (time.Duration, error) {
	var waited time.Duration
	for {
		remaining, err := p.backend.ListVersions(ctx, bucket, 1)
		if err != nil {
			return waited, fmt.Errorf("poll bucket: %w", err)
		}
		if len(remaining) == 0 {
			log.Debug("bucket reports empty", "waited", waited)
			return waited, nil
		}
		if waited >= p.opts.WaitTimeout {
			log.Warn("bucket still lists versions after wait timeout, deleting anyway",
				"waited", waited, "timeout", p.opts.WaitTimeout)
			return waited, nil
		}
		interval := p.opts.PollInterval
		if left := p.opts.WaitTimeout - waited; left < interval {
			interval = left
		}
		if err := p.opts.Sleep(ctx, interval); err != nil {
			return waited, err
		}
		waited += interval
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

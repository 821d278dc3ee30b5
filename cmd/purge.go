package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"BucketPurger/internal/config"
	"BucketPurger/internal/lock"
	"BucketPurger/internal/manifest"
	"BucketPurger/internal/purge"
)

var errAborted = errors.New("aborted: confirmation did not match bucket name")

var (
	purgeBucket        string
	purgeRegion        string
	purgeEndpoint      string
	purgeDriver        string
	purgeSettle        bool
	purgeSettleSeconds int
	purgeWaitEmpty     bool
	purgeWaitTimeout   int
	purgeDryRun        bool
	purgeYes           bool
	purgeLockDir       string
	purgeManifest      string
)

var purgeFlagKeys = map[string]string{
	"settle":         "purge.settle_delay",
	"settle-seconds": "purge.settle_seconds",
	"wait-empty":     "purge.wait_empty",
	"wait-timeout":   "purge.wait_timeout_seconds",
}

func init() {
	rootCmd.AddCommand(purgeCmd)
	f := purgeCmd.Flags()
	f.StringVar(&purgeBucket, "bucket", "", "Bucket to purge (or BUCKETPURGER_S3_BUCKET)")
	f.StringVar(&purgeRegion, "region", "", "Bucket region")
	f.StringVar(&purgeEndpoint, "endpoint", "", "Custom S3 endpoint URL")
	f.StringVar(&purgeDriver, "driver", "", "Storage driver: aws or minio")
	f.BoolVar(&purgeSettle, "settle", true, "Pause between deleting versions and deleting the bucket")
	f.IntVar(&purgeSettleSeconds, "settle-seconds", config.DefaultSettleSeconds, "Length of the settle pause in seconds")
	f.BoolVar(&purgeWaitEmpty, "wait-empty", false, "Poll until the bucket lists no versions instead of a fixed pause")
	f.IntVar(&purgeWaitTimeout, "wait-timeout", config.DefaultWaitTimeoutSeconds, "Give up polling after this many seconds")
	f.BoolVar(&purgeDryRun, "dry-run", false, "Show what would be deleted without deleting anything")
	f.BoolVar(&purgeYes, "yes", false, "Skip the confirmation prompt")
	f.StringVar(&purgeLockDir, "lock-dir", "", "Directory for the local lock file (default $TMPDIR/bucketpurger)")
	f.StringVar(&purgeManifest, "manifest", "", "Before deleting, write a zstd-compressed record of every version to this path")
}

var purgeCmd = &cobra.Command{
	Use:   "purge [bucket]",
	Short: "Delete all object versions in a bucket, then the bucket",
	Long: "Delete every object version and delete marker in the bucket, optionally wait for the deletions to settle, then delete the bucket. " +
		"This cannot be undone. Unless --yes is given you must type the bucket name to confirm.",
	Args: cobra.MaximumNArgs(1),
	RunE: runPurge,
}

func runPurge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd, s3FlagKeys, purgeFlagKeys)
	if err != nil {
		return err
	}
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	bucket, err := config.ResolveBucket(arg, cfg)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	backend, err := newBackend(ctx, cfg.S3)
	if err != nil {
		return err
	}

	p := purge.New(backend, purge.Options{
		SettleDelay:  cfg.Purge.SettleDuration(),
		WaitForEmpty: cfg.Purge.WaitEmpty,
		WaitTimeout:  cfg.Purge.WaitTimeout(),
		PollInterval: cfg.Purge.PollInterval(),
		Logger:       log,
		Status:       func(s string) { cmd.Println(s) },
	})

	if purgeDryRun {
		plan, err := p.Inspect(ctx, bucket)
		if err != nil {
			return err
		}
		printPlan(cmd, plan, false, 0)
		if err := writeManifest(log, plan); err != nil {
			return err
		}
		cmd.Println("dry run: nothing was deleted")
		return nil
	}

	if !purgeYes {
		if err := confirmBucket(cmd.InOrStdin(), cmd.ErrOrStderr(), bucket); err != nil {
			return err
		}
	}

	l, err := lock.NewLocal(lock.LocalOptions{Dir: purgeLockDir, Bucket: bucket, TTL: lock.DefaultTTL})
	if err != nil {
		return err
	}
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer func() {
		if err := l.Release(ctx); err != nil {
			log.Warn("release lock", "path", l.Path(), "error", err)
		}
	}()

	if purgeManifest != "" {
		plan, err := p.Inspect(ctx, bucket)
		if err != nil {
			return err
		}
		if err := writeManifest(log, plan); err != nil {
			return err
		}
	}

	notif := NotifierFromConfig(cfg, func(msg string) { log.Warn(msg) })
	warn := func(event string, err error) {
		if err != nil {
			log.Warn("notification failed", "event", event, "error", err)
		}
	}

	start := time.Now()
	warn("start", notif.NotifyStart(ctx, bucket))
	res, err := p.Purge(ctx, bucket)
	if res != nil && len(res.Errors) > 0 {
		warn("warning", notif.NotifyWarning(ctx, bucket,
			fmt.Sprintf("%d object versions could not be deleted (first: %s %s: %s)",
				len(res.Errors), res.Errors[0].Key, res.Errors[0].VersionID, res.Errors[0].Code)))
	}
	if err != nil {
		warn("error", notif.NotifyError(ctx, bucket, err))
		return err
	}
	warn("success", notif.NotifySuccess(ctx, bucket, res.Deleted, time.Since(start)))
	log.Info("purge finished", "bucket", bucket, "deleted", res.Deleted, "waited", res.Waited, "duration", time.Since(start))
	return nil
}

func writeManifest(log *slog.Logger, plan *purge.Plan) error {
	if purgeManifest == "" {
		return nil
	}
	digest, err := manifest.WriteFile(purgeManifest, plan, time.Now())
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	log.Info("manifest written", "path", purgeManifest, "entries", plan.Total(), "blake3", digest)
	return nil
}

// confirmBucket requires the operator to type the bucket name.
func confirmBucket(in io.Reader, out io.Writer, bucket string) error {
	fmt.Fprintf(out, "This permanently deletes every object version in %q and then the bucket.\nType the bucket name to continue: ", bucket)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	if strings.TrimSpace(line) != bucket {
		return errAborted
	}
	return nil
}

func printPlan(cmd *cobra.Command, plan *purge.Plan, entries bool, limit int) {
	cmd.Printf("bucket %s: %d versions, %d delete markers, %d keys, %d bytes\n",
		plan.Bucket, plan.Versions, plan.DeleteMarkers, plan.Keys, plan.Bytes)
	if !entries {
		return
	}
	for i, e := range plan.Entries {
		if limit > 0 && i >= limit {
			cmd.Printf("... %d more\n", len(plan.Entries)-limit)
			return
		}
		kind := "version"
		if e.DeleteMarker {
			kind = "marker"
		}
		latest := ""
		if e.IsLatest {
			latest = " (latest)"
		}
		cmd.Printf("%-7s %s %s %d%s\n", kind, e.Key, e.VersionID, e.Size, latest)
	}
}

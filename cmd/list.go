package cmd

import (
	"github.com/spf13/cobra"

	"BucketPurger/internal/config"
	"BucketPurger/internal/purge"
)

var (
	listBucket string
	listLimit  int
	listAll    bool
)

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listBucket, "bucket", "", "Bucket to inspect (or BUCKETPURGER_S3_BUCKET)")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "Print at most this many entries with --all (0 for no limit)")
	listCmd.Flags().BoolVar(&listAll, "all", false, "Print every version entry, not just the summary")
}

var listCmd = &cobra.Command{
	Use:   "list [bucket]",
	Short: "Show the object versions and delete markers a purge would delete",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd, map[string]string{"bucket": "s3.bucket"})
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
	plan, err := purge.New(backend, purge.Options{Logger: log}).Inspect(ctx, bucket)
	if err != nil {
		return err
	}
	printPlan(cmd, plan, listAll, listLimit)
	return nil
}

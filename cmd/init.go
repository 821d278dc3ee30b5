package cmd

import (
	"github.com/spf13/cobra"

	"BucketPurger/internal/config"
)

var (
	initPath       string
	initBucket     string
	initRegion     string
	initEndpoint   string
	initDriver     string
	initWebhookURL string
	initForce      bool
)

func init() {
	rootCmd.AddCommand(initCmd)
	f := initCmd.Flags()
	f.StringVar(&initPath, "path", "", "Where to write the config (default: --config, BUCKETPURGER_CONFIG or /etc/bucketpurger/config.yaml)")
	f.StringVar(&initBucket, "bucket", "", "Default bucket")
	f.StringVar(&initRegion, "region", config.DefaultRegion, "Region")
	f.StringVar(&initEndpoint, "endpoint", "", "Custom S3 endpoint URL")
	f.StringVar(&initDriver, "driver", config.DriverAWS, "Storage driver: aws or minio")
	f.StringVar(&initWebhookURL, "webhook-url", "", "Discord webhook URL; enables notifications")
	f.BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := initPath
	if path == "" {
		path, _ = config.ResolveConfigPath(configPath)
	}
	cfg := config.Starter(config.StarterOptions{
		Bucket:     initBucket,
		Region:     initRegion,
		Endpoint:   initEndpoint,
		Driver:     initDriver,
		WebhookURL: initWebhookURL,
	})
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.Write(cfg, path, initForce); err != nil {
		return err
	}
	cmd.Printf("Wrote %s\n", path)
	return nil
}

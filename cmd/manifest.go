package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"BucketPurger/internal/manifest"
)

func init() {
	rootCmd.AddCommand(manifestCmd)
	manifestCmd.AddCommand(manifestVerifyCmd)
}

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Work with manifests written by purge --manifest",
}

var manifestVerifyCmd = &cobra.Command{
	Use:   "verify <path>",
	Short: "Check a manifest against its digest file and print its summary",
	Args:  cobra.ExactArgs(1),
	RunE:  runManifestVerify,
}

func runManifestVerify(cmd *cobra.Command, args []string) error {
	h, err := manifest.Verify(args[0])
	if err != nil {
		return err
	}
	cmd.Printf("manifest OK: bucket %s on %s at %s\n", h.Bucket, h.Host, h.CreatedAt.Format(time.RFC3339))
	cmd.Printf("  versions=%d delete_markers=%d keys=%d bytes=%d\n", h.Versions, h.DeleteMarkers, h.Keys, h.Bytes)
	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"BucketPurger/internal/config"
	"BucketPurger/internal/doctor"
)

var (
	doctorBucket  string
	doctorLockDir string
)

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().StringVar(&doctorBucket, "bucket", "", "Bucket to check instead of s3.bucket")
	doctorCmd.Flags().StringVar(&doctorLockDir, "lock-dir", "", "Lock directory to check (default $TMPDIR/bucketpurger)")
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose config, bucket access, versioning and the lock dir",
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	v, err := config.Load(configPath, true)
	if err != nil {
		cmd.Printf("Config load: ERROR: %v\n", err)
		return err
	}
	cfg, err := config.Unmarshal(v)
	if err != nil {
		cmd.Printf("Config unmarshal: ERROR: %v\n", err)
		return err
	}

	results := doctor.Run(cmd.Context(), cfg, doctor.Options{
		Bucket:     doctorBucket,
		LockDir:    doctorLockDir,
		NewBackend: newBackend,
	})
	for _, r := range results {
		status := "OK"
		if !r.OK {
			status = "ERROR"
		}
		cmd.Printf("%-12s %s: %s\n", r.Name, status, r.Detail)
	}
	if !doctor.AllOK(results) {
		return fmt.Errorf("one or more checks failed; see output above")
	}
	return nil
}

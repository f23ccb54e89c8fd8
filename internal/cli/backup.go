package cli

import (
	"github.com/spf13/cobra"
)

type BackupOptions struct {
	Bucket string
	Prefix string
	OutDir string
}

func NewBackupCmd(global *GlobalOptions) *cobra.Command {
	opts := &BackupOptions{}

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Download bucket contents to a local directory",
		Long: `Download the ingestion and processing buckets, or a single bucket given
with --bucket, to {out}/{name}/{YYYYmmddHHMMSS}/.`,
		RunE: func(c *cobra.Command, args []string) error {
			return runBackup(c, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Bucket, "bucket", "b", "", "Bucket to back up (default: ingestion and processing buckets)")
	cmd.Flags().StringVarP(&opts.Prefix, "prefix", "p", "", "Only back up keys under this prefix")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "s3_backups", "Output directory")
	return cmd
}

package cli

import (
	"github.com/spf13/cobra"
)

// GlobalOptions are the flags shared by every command.
type GlobalOptions struct {
	Verbose     bool
	LogFile     string
	MetricsFile string
	LocalDir    string
}

func NewRootCmd() *cobra.Command {
	opts := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "snapetl",
		Short: "snapetl - incremental snapshot ETL into a star schema",
		Long: `snapetl copies changed rows of an operational database into an
append-only snapshot bucket, then builds the dimension and fact tables of a
star schema from those snapshots and writes them as parquet files.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&opts.LogFile, "log-file", "", "Also write logs to this file")
	flags.StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile on exit")
	flags.StringVar(&opts.LocalDir, "local-dir", "", "Keep snapshots, output and the watermark under this directory instead of AWS")

	rootCmd.AddCommand(
		NewIngestCmd(opts),
		NewProcessCmd(opts),
		NewRunCmd(opts),
		NewBackupCmd(opts),
	)

	return rootCmd
}

package cli

import (
	"github.com/spf13/cobra"
)

type IngestOptions struct {
	TablesFile string
}

type ProcessOptions struct {
	Event     string
	EventFile string
	DryRun    bool
	Mongo     bool
}

func NewIngestCmd(global *GlobalOptions) *cobra.Command {
	opts := &IngestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Extract rows changed since the watermark into the snapshot store",
		RunE: func(c *cobra.Command, args []string) error {
			return runIngest(c, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.TablesFile, "tables", "t", "", "Path to a JSON file listing the source tables")
	return cmd
}

func NewProcessCmd(global *GlobalOptions) *cobra.Command {
	opts := &ProcessOptions{}

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Build the star schema tables flagged by an ingestion event",
		RunE: func(c *cobra.Command, args []string) error {
			return runProcess(c, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Event, "event", "e", "", "Ingestion event JSON")
	cmd.Flags().StringVarP(&opts.EventFile, "event-file", "f", "", "Path to an ingestion event JSON file")
	addLoadFlags(cmd, opts)
	return cmd
}

func NewRunCmd(global *GlobalOptions) *cobra.Command {
	ingest := &IngestOptions{}
	process := &ProcessOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest and then process in one invocation",
		RunE: func(c *cobra.Command, args []string) error {
			return runAll(c, global, ingest, process)
		},
	}

	cmd.Flags().StringVarP(&ingest.TablesFile, "tables", "t", "", "Path to a JSON file listing the source tables")
	addLoadFlags(cmd, process)
	return cmd
}

func addLoadFlags(cmd *cobra.Command, opts *ProcessOptions) {
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Build tables without writing them")
	cmd.Flags().BoolVar(&opts.Mongo, "mongo", false, "Also upsert built tables into MongoDB")
}

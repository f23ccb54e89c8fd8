package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/BartekS5/snapetl/internal/backup"
	"github.com/BartekS5/snapetl/internal/config"
	"github.com/BartekS5/snapetl/internal/dimension"
	"github.com/BartekS5/snapetl/internal/etl"
	"github.com/BartekS5/snapetl/internal/extract"
	"github.com/BartekS5/snapetl/internal/sink"
	"github.com/BartekS5/snapetl/internal/snapshot"
	"github.com/BartekS5/snapetl/internal/watermark"
	"github.com/BartekS5/snapetl/pkg/cloud"
	"github.com/BartekS5/snapetl/pkg/database"
	"github.com/BartekS5/snapetl/pkg/logger"
	"github.com/BartekS5/snapetl/pkg/metrics"
	"github.com/BartekS5/snapetl/pkg/models"
)

// Layout of --local-dir.
const (
	localIngestionDir  = "ingestion"
	localProcessingDir = "processing"
	localWatermarkFile = "watermark.json"
)

// session holds the logger, config and open connections of one command.
type session struct {
	opts    *GlobalOptions
	log     *slog.Logger
	cfg     *config.Config
	awsCfg  *aws.Config
	closers []func()
}

func newSession(global *GlobalOptions) (*session, error) {
	s := &session{opts: global}

	if global.LogFile != "" {
		log, closer, err := logger.NewWithFile(global.LogFile, global.Verbose)
		if err != nil {
			return nil, err
		}
		s.log = log
		s.closers = append(s.closers, func() { closer.Close() })
	} else {
		s.log = logger.New(global.Verbose)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.cfg = cfg
	return s, nil
}

// Close releases connections in reverse order and writes the metrics
// textfile if one was requested.
func (s *session) Close() {
	if s.opts.MetricsFile != "" && s.log != nil {
		if err := metrics.WriteTextfile(s.opts.MetricsFile); err != nil {
			s.log.Warn("failed to write metrics file", "path", s.opts.MetricsFile, "error", err)
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func (s *session) local() bool {
	return s.opts.LocalDir != ""
}

func (s *session) aws(ctx context.Context) (aws.Config, error) {
	if s.awsCfg != nil {
		return *s.awsCfg, nil
	}
	cfg, err := cloud.LoadConfig(ctx, s.cfg.AWS)
	if err != nil {
		return aws.Config{}, err
	}
	s.awsCfg = &cfg
	return cfg, nil
}

func (s *session) snapshotStore(ctx context.Context) (snapshot.Store, error) {
	if s.local() {
		return snapshot.NewDirStore(filepath.Join(s.opts.LocalDir, localIngestionDir)), nil
	}
	awsCfg, err := s.aws(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.NewS3Store(s.log, cloud.NewS3Client(awsCfg, s.cfg.AWS), s.cfg.IngestionBucket), nil
}

func (s *session) watermarkStore(ctx context.Context) (watermark.Store, error) {
	if s.local() {
		return watermark.NewFileStore(filepath.Join(s.opts.LocalDir, localWatermarkFile)), nil
	}
	awsCfg, err := s.aws(ctx)
	if err != nil {
		return nil, err
	}
	client := cloud.NewSecretsManagerClient(awsCfg, s.cfg.AWS)
	return watermark.NewSecretsManagerStore(s.log, client, s.cfg.SecretPrefix, s.cfg.IngestionBucket), nil
}

func (s *session) ingestPipeline(ctx context.Context, opts *IngestOptions, p *etl.Pipeline) error {
	if s.local() {
		if err := s.cfg.RequireSQL(); err != nil {
			return err
		}
	} else if err := s.cfg.RequireIngestion(); err != nil {
		return err
	}

	var tables []string
	if opts.TablesFile != "" {
		tf, err := config.LoadTables(opts.TablesFile)
		if err != nil {
			return err
		}
		tables = tf.Tables
	}

	store, err := s.snapshotStore(ctx)
	if err != nil {
		return err
	}
	if p.Watermarks, err = s.watermarkStore(ctx); err != nil {
		return err
	}

	db, err := database.ConnectSQL(ctx, s.log, s.cfg.SQLDriver, s.cfg.SQLConnString)
	if err != nil {
		return err
	}
	s.closers = append(s.closers, func() { db.Close() })

	source := extract.NewSQLSource(db, s.cfg.SQLDriver)
	p.Extractor = extract.NewExtractor(s.log, source, store, tables)
	return nil
}

func (s *session) processPipeline(ctx context.Context, opts *ProcessOptions, p *etl.Pipeline) error {
	if !s.local() {
		if err := s.cfg.RequireProcessing(); err != nil {
			return err
		}
	}

	store, err := s.snapshotStore(ctx)
	if err != nil {
		return err
	}
	p.Transformer = dimension.NewBuilder(s.log, store, nil)
	p.DryRun = opts.DryRun
	if opts.DryRun {
		return nil
	}

	var sinks sink.Multi
	if s.local() {
		sinks = append(sinks, sink.NewDirSink(s.log, filepath.Join(s.opts.LocalDir, localProcessingDir)))
	} else {
		awsCfg, err := s.aws(ctx)
		if err != nil {
			return err
		}
		client := cloud.NewS3Client(awsCfg, s.cfg.AWS)
		sinks = append(sinks, sink.NewParquetSink(s.log, client, s.cfg.ProcessingBucket, os.TempDir()))
	}

	if opts.Mongo {
		if err := s.cfg.RequireMongo(); err != nil {
			return err
		}
		client, err := database.ConnectMongo(ctx, s.log, s.cfg.MongoConnString)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		})
		sinks = append(sinks, sink.NewMongoSink(s.log, client, s.cfg.MongoDatabase))
	}

	p.Loader = sinks
	return nil
}

func (s *session) pipeline() *etl.Pipeline {
	return &etl.Pipeline{Log: s.log, Clock: clockwork.NewRealClock()}
}

func runIngest(cmd *cobra.Command, global *GlobalOptions, opts *IngestOptions) error {
	s, err := newSession(global)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	p := s.pipeline()
	if err := s.ingestPipeline(ctx, opts, p); err != nil {
		return s.fail(cmd.OutOrStdout(), etl.StageIngest, err)
	}
	event, err := p.Ingest(ctx)
	return s.report(cmd.OutOrStdout(), event, err)
}

func runProcess(cmd *cobra.Command, global *GlobalOptions, opts *ProcessOptions) error {
	s, err := newSession(global)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	in, err := readEvent(opts, cmd.InOrStdin())
	if err != nil {
		return s.fail(cmd.OutOrStdout(), etl.StageProcess, err)
	}

	p := s.pipeline()
	if err := s.processPipeline(ctx, opts, p); err != nil {
		return s.fail(cmd.OutOrStdout(), etl.StageProcess, err)
	}
	event, err := p.Process(ctx, *in)
	return s.report(cmd.OutOrStdout(), event, err)
}

func runAll(cmd *cobra.Command, global *GlobalOptions, ingest *IngestOptions, process *ProcessOptions) error {
	s, err := newSession(global)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	p := s.pipeline()
	if err := s.ingestPipeline(ctx, ingest, p); err != nil {
		return s.fail(cmd.OutOrStdout(), etl.StageIngest, err)
	}
	if err := s.processPipeline(ctx, process, p); err != nil {
		return s.fail(cmd.OutOrStdout(), etl.StageProcess, err)
	}
	event, err := p.Run(ctx)
	return s.report(cmd.OutOrStdout(), event, err)
}

func runBackup(cmd *cobra.Command, global *GlobalOptions, opts *BackupOptions) error {
	s, err := newSession(global)
	if err != nil {
		return err
	}
	defer s.Close()

	targets := map[string]string{}
	if opts.Bucket != "" {
		targets[opts.Bucket] = opts.Bucket
	} else {
		if err := s.cfg.RequireProcessing(); err != nil {
			return err
		}
		targets["ingestion"] = s.cfg.IngestionBucket
		targets["processing"] = s.cfg.ProcessingBucket
	}

	ctx := cmd.Context()
	awsCfg, err := s.aws(ctx)
	if err != nil {
		return err
	}
	b := backup.New(s.log, cloud.NewS3Client(awsCfg, s.cfg.AWS))
	stamp := time.Now().UTC().Format("20060102150405")

	for name, bucket := range targets {
		out := filepath.Join(opts.OutDir, name, stamp)
		n, err := b.Bucket(ctx, bucket, opts.Prefix, out)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d objects > %s\n", bucket, n, out)
	}
	return nil
}

func readEvent(opts *ProcessOptions, stdin io.Reader) (*models.RunEvent, error) {
	var data []byte
	var err error
	switch {
	case opts.Event != "":
		data = []byte(opts.Event)
	case opts.EventFile == "-":
		data, err = io.ReadAll(stdin)
	case opts.EventFile != "":
		data, err = os.ReadFile(opts.EventFile)
	default:
		return nil, fmt.Errorf("no ingestion event given, use --event or --event-file: %w", models.ErrMissingConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read event: %w", err)
	}

	event, err := models.LoadRunEvent(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse event JSON: %w", err)
	}
	return event, nil
}

// fail reports a setup error in the same shape as a failed run.
func (s *session) fail(w io.Writer, stage string, err error) error {
	s.log.Error("run failed", "stage", stage, "error", err)
	return s.report(w, models.RunEvent{}, &models.RunError{Stage: stage, Err: err})
}

// report prints the run event, or the run error, as JSON.
func (s *session) report(w io.Writer, event models.RunEvent, err error) error {
	var out interface{} = event
	var runErr *models.RunError
	if errors.As(err, &runErr) {
		out = runErr
	} else if err != nil {
		return err
	}

	data, mErr := json.MarshalIndent(out, "", "  ")
	if mErr != nil {
		return mErr
	}
	fmt.Fprintln(w, string(data))
	return err
}

package sink

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/BartekS5/snapetl/pkg/models"
)

// PutObjectAPI is the subset of the S3 client used by ParquetSink.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ParquetSink encodes each table to a local temp file, uploads it to
// "{table}/{run_timestamp}.parquet" and removes the temp file.
type ParquetSink struct {
	log    *slog.Logger
	client PutObjectAPI
	bucket string
	tmpDir string
}

func NewParquetSink(log *slog.Logger, client PutObjectAPI, bucket, tmpDir string) *ParquetSink {
	return &ParquetSink{log: log, client: client, bucket: bucket, tmpDir: tmpDir}
}

// ObjectKey returns the key of a table's parquet file for a run.
func ObjectKey(table, runTimestamp string) string {
	return table + "/" + runTimestamp + ".parquet"
}

func (p *ParquetSink) Write(ctx context.Context, table *models.Table, runTimestamp string) error {
	key := ObjectKey(table.Name, runTimestamp)
	p.log.Info("saving table", "table", table.Name, "key", key, "rows", table.Len())

	f, err := os.CreateTemp(p.tmpDir, table.Name+"-*.parquet")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if err := EncodeParquet(f, table); err != nil {
		return fmt.Errorf("failed to encode %s: %w", table.Name, err)
	}
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("application/vnd.apache.parquet"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	p.log.Info("parquet file uploaded", "bucket", p.bucket, "key", key)
	return nil
}

// Package backup copies the objects of a bucket into a local directory,
// keeping the key layout.
package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// API is the subset of the S3 client used for backups.
type API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Backup struct {
	log    *slog.Logger
	client API
}

func New(log *slog.Logger, client API) *Backup {
	return &Backup{log: log, client: client}
}

// Bucket downloads every object under prefix (all objects when prefix is
// empty) to outDir/{key}. It returns the number of objects written.
func (b *Backup) Bucket(ctx context.Context, bucket, prefix, outDir string) (int, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	paginator := s3.NewListObjectsV2Paginator(b.client, input)

	count := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return count, fmt.Errorf("failed to list %s: %w", bucket, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			path, err := localPath(outDir, key)
			if err != nil {
				return count, err
			}
			if err := b.download(ctx, bucket, key, path); err != nil {
				return count, err
			}
			count++
			b.log.Info("object backed up", "key", key, "path", path)
		}
	}
	return count, nil
}

func (b *Backup) download(ctx context.Context, bucket, key, path string) error {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer out.Body.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".backup-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, out.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to download %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// localPath maps an object key below outDir, rejecting keys that would
// escape it.
func localPath(outDir, key string) (string, error) {
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("object key %q escapes the backup directory", key)
	}
	return filepath.Join(outDir, rel), nil
}

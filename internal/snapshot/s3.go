package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/BartekS5/snapetl/pkg/models"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps snapshots in an S3 bucket under "{table}/{run_timestamp}.json".
type S3Store struct {
	log    *slog.Logger
	client S3API
	bucket string
}

func NewS3Store(log *slog.Logger, client S3API, bucket string) *S3Store {
	return &S3Store{log: log, client: client, bucket: bucket}
}

func (s *S3Store) List(ctx context.Context, table string) ([]ObjectRef, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(table + "/"),
	})

	var refs []ObjectRef
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects under %s/: %w", table, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			ref, ok := ParseKey(key)
			if !ok || ref.Table != table {
				s.log.Debug("skipping unrecognised object", "bucket", s.bucket, "key", key)
				continue
			}
			refs = append(refs, ref)
		}
	}
	SortRefs(refs)
	return refs, nil
}

func (s *S3Store) Fetch(ctx context.Context, ref ObjectRef) ([]models.Row, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%s: %w", ref.Key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s: %w", ref.Key, err)
	}
	defer out.Body.Close()
	return Decode(out.Body)
}

func (s *S3Store) Put(ctx context.Context, table, runTimestamp string, rows []models.Row) error {
	data, err := Encode(rows)
	if err != nil {
		return err
	}
	key := ObjectKey(table, runTimestamp)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	s.log.Info("snapshot uploaded", "bucket", s.bucket, "key", key, "rows", len(rows))
	return nil
}

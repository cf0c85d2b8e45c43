package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	cfg "github.com/horologium/ledger-backend/internal/config"
	"github.com/horologium/ledger-backend/internal/domain"
	"github.com/horologium/ledger-backend/internal/util"
	"github.com/horologium/ledger-backend/internal/wire"
)

const archivePrefix = "cob"

// ArchiveRepository stores an immutable copy of every closure snapshot.
// The database row stays authoritative; the archive is for the accountant.
type ArchiveRepository interface {
	Put(ctx context.Context, record *domain.COBRecord) (string, error)
}

// objectPutter is the subset of the S3 client the archive needs
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ArchiveRepository implements ArchiveRepository using AWS S3
type S3ArchiveRepository struct {
	client objectPutter
	bucket string
}

// NewS3ArchiveRepository creates a new S3 archive repository
func NewS3ArchiveRepository(ctx context.Context, s3cfg cfg.S3Config) (*S3ArchiveRepository, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(s3cfg.Region),
	}

	// Static credentials when provided, default chain otherwise
	if s3cfg.AccessKeyID != "" && s3cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				s3cfg.AccessKeyID,
				s3cfg.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if s3cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO/LocalStack
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	if err := ensureBucket(ctx, client, s3cfg.Bucket); err != nil {
		return nil, err
	}

	return &S3ArchiveRepository{
		client: client,
		bucket: s3cfg.Bucket,
	}, nil
}

// ensureBucket creates the bucket if it doesn't exist (private, no policy)
func ensureBucket(ctx context.Context, client *s3.Client, bucket string) error {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket (may be permission denied): %w", err)
	}

	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// ArchiveKey returns the object key of a closure snapshot, e.g. cob/2026/10/2026-10-14.json
func ArchiveKey(record *domain.COBRecord) string {
	date := util.FormatDate(record.Date)
	return path.Join(archivePrefix, date[:4], date[5:7], date+".json")
}

// Put uploads the record in its API JSON form and returns its object key
func (r *S3ArchiveRepository) Put(ctx context.Context, record *domain.COBRecord) (string, error) {
	body, err := json.Marshal(wire.FromCOBRecord(record))
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}

	key := ArchiveKey(record)
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
		Metadata: map[string]string{
			"closed-by": record.ClosedBy,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}
	return key, nil
}

package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/Lemmmy/SCHardwareSurvey/internal/config"
)

const (
	defaultRegion = "us-east-1"
	defaultPrefix = "surveys"

	snapshotContentType     = "application/json"
	snapshotContentEncoding = "gzip"
)

// S3Client stores snapshots in one bucket of an S3-compatible service, under
// a fixed key prefix.
type S3Client struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Client returns nil when archiving is not configured.
func NewS3Client(cfg *config.ArchiveConfig) (*S3Client, error) {
	if cfg == nil {
		return nil, nil
	}
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("archive: endpoint and bucket are required")
	}
	opts := s3.Options{
		Region:       orDefault(cfg.Region, defaultRegion),
		BaseEndpoint: aws.String(cfg.Endpoint),
		UsePathStyle: true,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	}
	return &S3Client{
		client: s3.New(opts),
		bucket: cfg.Bucket,
		prefix: strings.Trim(orDefault(cfg.Prefix, defaultPrefix), "/"),
	}, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// EnsureBucket creates the bucket when the service reports it missing. Any
// other HeadBucket failure (credentials, network) is returned as is.
func (c *S3Client) EnsureBucket(ctx context.Context) error {
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err == nil {
		return nil
	}
	if !bucketMissing(err) {
		return fmt.Errorf("head bucket %s: %w", c.bucket, err)
	}

	_, err = c.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(c.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err == nil || errors.As(err, &owned) {
		return nil
	}
	return fmt.Errorf("create bucket %s: %w", c.bucket, err)
}

func bucketMissing(err error) bool {
	var (
		notFound *types.NotFound
		noBucket *types.NoSuchBucket
		respErr  *awshttp.ResponseError
		apiErr   smithy.APIError
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &noBucket):
		return true
	case errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound:
		return true
	case errors.As(err, &apiErr):
		return apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchBucket"
	}
	return false
}

// Upload stores a gzipped JSON snapshot at name below the prefix and returns
// the full object key.
func (c *S3Client) Upload(ctx context.Context, name string, data []byte) (string, error) {
	key := path.Join(c.prefix, name)
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(c.bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(data),
		ContentLength:   aws.Int64(int64(len(data))),
		ContentType:     aws.String(snapshotContentType),
		ContentEncoding: aws.String(snapshotContentEncoding),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

// SnapshotName returns the prefix-relative name of a snapshot taken at t,
// for example 2024/02/17/snapshot-<id>.json.gz.
func SnapshotName(t time.Time, id uuid.UUID) string {
	return path.Join(t.UTC().Format("2006/01/02"), "snapshot-"+id.String()+".json.gz")
}

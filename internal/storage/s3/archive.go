// Package s3 archives uploaded documents in an S3-compatible bucket.
package s3

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"docintake/internal/config"
	"docintake/internal/port"
)

const sha256MetadataKey = "sha256"

// Archive implements port.DocumentArchive on one S3 bucket.
type Archive struct {
	bucket    string
	client    *s3.Client
	presigner *s3.PresignClient
	uploader  *manager.Uploader
}

// NewArchive builds an S3 archive from cfg. Static credentials are used when
// both keys are set, otherwise the default AWS credential chain applies.
func NewArchive(ctx context.Context, cfg *config.S3Config) (*Archive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 archive: bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// MinIO and LocalStack need path-style addressing.
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Archive{
		bucket:    cfg.Bucket,
		client:    client,
		presigner: s3.NewPresignClient(client),
		uploader:  manager.NewUploader(client),
	}, nil
}

// PingContext verifies the bucket exists and is reachable.
func (a *Archive) PingContext(ctx context.Context) error {
	if _, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)}); err != nil {
		return fmt.Errorf("s3 head bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Put stores a document with its digest as object metadata.
func (a *Archive) Put(ctx context.Context, doc port.ArchivedDocument) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(doc.Key),
		Body:          doc.Body,
		ContentType:   aws.String(doc.ContentType),
		ContentLength: aws.Int64(doc.Size),
	}
	if doc.SHA256 != "" {
		input.Metadata = map[string]string{sha256MetadataKey: doc.SHA256}
	}

	if _, err := a.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("s3 put %s: %w", doc.Key, err)
	}

	log.Printf("s3.Archive.Put: stored %s/%s (%d bytes)", a.bucket, doc.Key, doc.Size)
	return nil
}

func (a *Archive) Remove(ctx context.Context, key string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 remove %s: %w", key, err)
	}
	return nil
}

// PresignGet returns a time-limited download URL for key.
func (a *Archive) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	result, err := a.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s: %w", key, err)
	}
	return result.URL, nil
}

// Package archive copies completed analyses to S3-compatible object
// storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"geolens/internal/config"
	"geolens/internal/metrics"
	"geolens/internal/model"
)

// Archiver writes one JSON object per analysis under
// <prefix>/YYYY/MM/DD/<id>.json.
type Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// New builds an Archiver from cfg. Static credentials are used when both
// keys are set; otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg config.ArchiveConfig) (*Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket name is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("archive region is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix == "" {
		prefix = "analyses"
	}
	return &Archiver{client: client, bucket: cfg.Bucket, prefix: prefix}, nil
}

// Key returns the object key for fa.
func (a *Archiver) Key(fa *model.FullAnalysis) string {
	at := fa.Metadata.AnalyzedAt
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()
	return path.Join(a.prefix, at.Format("2006"), at.Format("01"), at.Format("02"), fa.Metadata.ID+".json")
}

// SaveAnalysis uploads fa as JSON.
func (a *Archiver) SaveAnalysis(ctx context.Context, fa *model.FullAnalysis) error {
	body, err := json.Marshal(fa)
	if err != nil {
		return err
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.Key(fa)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	metrics.RecordArchive(err == nil)
	if err != nil {
		return fmt.Errorf("failed to upload analysis to S3: %w", err)
	}
	return nil
}

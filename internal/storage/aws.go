package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/beehiiv-forecast/internal/config"
)

// S3API is the subset of the S3 client the writer uses
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Writer uploads each run under <prefix>/<date>/<run_id>/ and mirrors it to
// <prefix>/latest/
type S3Writer struct {
	client S3API
	bucket string
	prefix string
}

// LoadAWSConfig loads the default credential chain, using profile when set
func LoadAWSConfig(ctx context.Context, region, profile string) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return cfg, nil
}

// NewS3Writer creates an S3 writer from storage configuration
func NewS3Writer(ctx context.Context, cfg config.StorageConfig) (*S3Writer, error) {
	awsCfg, err := LoadAWSConfig(ctx, cfg.AWSRegion, cfg.GetAWSProfile())
	if err != nil {
		return nil, err
	}
	return NewS3WriterWithClient(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Prefix), nil
}

// NewS3WriterWithClient creates an S3 writer around an existing client
func NewS3WriterWithClient(client S3API, bucket, prefix string) *S3Writer {
	return &S3Writer{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Write uploads the text report and JSON snapshot
func (w *S3Writer) Write(ctx context.Context, out Output) ([]string, error) {
	runDir := path.Join(w.prefix, out.GeneratedAt.UTC().Format("2006-01-02"), out.RunID)
	latestDir := path.Join(w.prefix, "latest")

	var keys []string
	for _, dir := range []string{runDir, latestDir} {
		textKey := path.Join(dir, reportFile)
		if err := w.put(ctx, textKey, []byte(out.Text), "text/plain; charset=utf-8"); err != nil {
			return keys, err
		}
		dataKey := path.Join(dir, dataFile)
		if err := w.put(ctx, dataKey, out.JSON, "application/json"); err != nil {
			return keys, err
		}
		keys = append(keys, "s3://"+w.bucket+"/"+textKey, "s3://"+w.bucket+"/"+dataKey)
	}
	return keys, nil
}

func (w *S3Writer) put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("putting object %s to S3: %w", key, err)
	}
	return nil
}

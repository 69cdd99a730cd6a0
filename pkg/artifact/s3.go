package artifact

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/matzehuels/carepath/pkg/printlayout"
)

// ObjectPutter is the part of the S3 client the destination uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config configures an [S3Destination].
type S3Config struct {
	Bucket string
	Prefix string
	Region string
	// Endpoint enables path-style addressing for MinIO and similar.
	Endpoint string
}

// S3Destination uploads artifacts to an S3-compatible bucket.
type S3Destination struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewS3Destination loads the default AWS credential chain and creates an S3
// destination.
func NewS3Destination(ctx context.Context, cfg S3Config) (*S3Destination, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return NewS3DestinationFromClient(s3.NewFromConfig(awsCfg, s3opts...), cfg.Bucket, cfg.Prefix), nil
}

// NewS3DestinationFromClient wraps an existing client.
func NewS3DestinationFromClient(client ObjectPutter, bucket, prefix string) *S3Destination {
	return &S3Destination{client: client, bucket: bucket, prefix: prefix}
}

// Write uploads data as <prefix>/<name>.<format> and returns its s3:// URL.
func (d *S3Destination) Write(ctx context.Context, name string, f printlayout.Format, data []byte) (string, error) {
	key := path.Join(d.prefix, name+"."+string(f))
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(f.ContentType()),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return "s3://" + d.bucket + "/" + key, nil
}

var _ Destination = (*S3Destination)(nil)

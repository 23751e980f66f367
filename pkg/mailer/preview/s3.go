package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

var (
	// ErrBucketRequired is returned when the S3 sink has no bucket.
	ErrBucketRequired = errors.New("preview: bucket is required")
	// ErrUploadFailed wraps PutObject failures.
	ErrUploadFailed = errors.New("preview: upload failed")
	// ErrAccessDenied is returned when the bucket rejects the credentials.
	ErrAccessDenied = errors.New("preview: access denied")
)

// PutObjectAPI is the part of *s3.Client the sink uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads previews to S3-compatible object storage under
// <prefix>/<yyyy>/<mm>/<dd>/<message id>.{json,html}.
type S3Sink struct {
	client PutObjectAPI
	bucket string
	prefix string
	now    func() time.Time
}

var _ mailer.PreviewSink = (*S3Sink)(nil)

// NewS3Sink builds an S3 client from cfg.
func NewS3Sink(cfg Config) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, ErrBucketRequired
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			if cfg.AccessKey != "" {
				o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
			}
		},
	}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	return NewS3SinkWithClient(s3.New(s3.Options{}, opts...), cfg.Bucket, cfg.Prefix), nil
}

// NewS3SinkWithClient creates a sink over an existing client.
func NewS3SinkWithClient(client PutObjectAPI, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix, now: time.Now}
}

// Store implements mailer.PreviewSink.
func (s *S3Sink) Store(ctx context.Context, email *mailer.Email) error {
	name, doc, err := document(email)
	if err != nil {
		return err
	}

	base := path.Join(s.prefix, s.now().UTC().Format("2006/01/02"), name)
	if err := s.put(ctx, base+".json", "application/json", doc); err != nil {
		return err
	}
	if email.HTML != "" {
		return s.put(ctx, base+".html", "text/html; charset=utf-8", []byte(email.HTML))
	}
	return nil
}

func (s *S3Sink) put(ctx context.Context, key, contentType string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return wrapS3Error(key, err)
	}
	return nil
}

func wrapS3Error(key string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %s: %v", ErrAccessDenied, key, err)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrUploadFailed, key, err)
}

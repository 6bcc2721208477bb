package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mroshb/matchday/pkg/errors"
)

const workbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BucketConfig addresses an S3-compatible bucket. An empty Endpoint uses AWS.
type BucketConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader stores finished workbooks in a bucket.
type Uploader struct {
	client objectPutter
	bucket string
}

func NewUploader(ctx context.Context, cfg BucketConfig) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New(errors.ErrCodeValidation, "bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load bucket config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Uploader{client: client, bucket: cfg.Bucket}, nil
}

// Upload writes body under key and returns the s3:// location.
func (u *Uploader) Upload(ctx context.Context, key string, body []byte) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(workbookContentType),
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternalError, "failed to upload "+key)
	}
	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}

package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	config "github.com/crossposthq/crosspost/configs"
)

// R2Service uploads media files to Cloudflare R2 through the S3 API.
type R2Service struct {
	config *config.Config

	once   sync.Once
	client *s3.Client
	err    error
}

func NewR2Service(cfg *config.Config) *R2Service {
	return &R2Service{config: cfg}
}

func (r *R2Service) r2Client(ctx context.Context) (*s3.Client, error) {
	r.once.Do(func() {
		cfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r.config.R2.AccessKey, r.config.R2.SecretKey, "")),
			awsconfig.WithRegion("auto"),
		)
		if err != nil {
			slog.Info(err.Error())
			r.err = err
			return
		}
		r.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.config.R2.AccountID))
		})
	})
	return r.client, r.err
}

func (r *R2Service) UploadToR2(ctx context.Context, key string, file []byte, contentType string) error {
	client, err := r.r2Client(ctx)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.config.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(contentType),
	}

	if _, err := client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// PublicURL returns the public address a stored object is served from.
func (r *R2Service) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", r.config.R2.PublicURL, key)
}

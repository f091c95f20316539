package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go/logging"
	"github.com/rs/zerolog/log"
	"github.com/synesthesie/catalog/internal/config"
)

// S3Service talks to the S3 compatible bucket that hosts uploaded media.
type S3Service struct {
	client *s3.Client
	cfg    *config.Config
}

func NewS3Service(cfg *config.Config) (*S3Service, error) {
	client, err := buildClient(cfg.MediaS3Endpoint, cfg.MediaS3Region, cfg.MediaS3AccessKeyID, cfg.MediaS3SecretAccessKey, cfg.MediaS3UsePathStyle)
	if err != nil {
		return nil, err
	}
	return &S3Service{client: client, cfg: cfg}, nil
}

// smithyLogger forwards SDK log lines to zerolog.
type smithyLogger struct{}

func (smithyLogger) Logf(classification logging.Classification, format string, v ...interface{}) {
	if classification == logging.Warn {
		log.Warn().Str("component", "s3").Msgf(format, v...)
		return
	}
	log.Debug().Str("component", "s3").Msgf(format, v...)
}

func buildClient(endpoint, region, key, secret string, pathStyle bool) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		awsconfig.WithLogger(smithyLogger{}),
	}
	if key != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return client, nil
}

// UploadMedia streams body to key in the media bucket.
func (s *S3Service) UploadMedia(ctx context.Context, key string, body io.Reader, ctype string) error {
	uploader := manager.NewUploader(s.client, func(u *manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024
	})
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.MediaBucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(ctype),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	return err
}

// MediaURL is the durable public URL of key. MEDIA_PUBLIC_URL wins over the
// endpoint when set, which is how CDN fronted buckets are configured.
func (s *S3Service) MediaURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if base := strings.TrimRight(s.cfg.MediaPublicURL, "/"); base != "" {
		return fmt.Sprintf("%s/%s", base, escaped)
	}
	if e := s.client.Options().BaseEndpoint; e != nil {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(*e, "/"), s.cfg.MediaBucket, escaped)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.MediaBucket, s.cfg.MediaS3Region, escaped)
}

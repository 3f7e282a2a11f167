package archive

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/survivor-league/internal/platform/logging"
	"github.com/riskibarqy/survivor-league/internal/platform/resilience"
)

type S3ArchiverConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	Timeout         time.Duration
	CircuitBreaker  resilience.CircuitBreakerConfig
}

// S3Archiver writes JSON documents to an S3-compatible bucket (AWS, R2, MinIO).
type S3Archiver struct {
	client  *s3.Client
	bucket  string
	prefix  string
	timeout time.Duration
	logger  *logging.Logger
	breaker *resilience.CircuitBreaker
}

func NewS3Archiver(ctx context.Context, cfg S3ArchiverConfig, logger *logging.Logger) (*S3Archiver, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, crerr.New("archive bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "auto"
	}
	if logger == nil {
		logger = logging.Default()
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	sdkCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, crerr.Wrap(err, "load aws sdk config for archive")
	}

	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &S3Archiver{
		client:  client,
		bucket:  bucket,
		prefix:  strings.Trim(strings.TrimSpace(cfg.Prefix), "/"),
		timeout: timeout,
		logger:  logger.Named("archive"),
		breaker: resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker),
	}, nil
}

// Archive stores document as JSON under key and returns its s3:// location.
func (a *S3Archiver) Archive(ctx context.Context, key string, document any) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", crerr.New("archive key is required")
	}
	if a.prefix != "" {
		key = a.prefix + "/" + key
	}

	body, err := sonic.Marshal(document)
	if err != nil {
		return "", crerr.Wrap(err, "marshal archive document")
	}

	err = a.breaker.Execute(func() error {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		_, putErr := a.client.PutObject(callCtx, &s3.PutObjectInput{
			Bucket:        aws.String(a.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(body),
			ContentLength: aws.Int64(int64(len(body))),
			ContentType:   aws.String("application/json"),
		})
		return putErr
	}, nil)
	if err != nil {
		return "", crerr.Wrapf(err, "put archive object bucket=%s key=%s", a.bucket, key)
	}

	location := "s3://" + a.bucket + "/" + key
	a.logger.InfoContext(ctx, "archived document", "location", location, "bytes", len(body))
	return location, nil
}

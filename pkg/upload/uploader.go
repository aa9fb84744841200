package upload

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	stderrors "errors"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/grovetools/scribe/errors"
	"github.com/grovetools/scribe/logging"
	"github.com/grovetools/scribe/pkg/models"
	"github.com/sirupsen/logrus"
)

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ClientFactory builds an ObjectPutter for a configuration.
type ClientFactory func(cfg *models.S3Config) ObjectPutter

// ConfigLoader yields the current S3 configuration, or nil when none is set.
type ConfigLoader interface {
	Load() (*models.S3Config, error)
}

// Uploader puts files into the configured bucket.
type Uploader struct {
	configs   ConfigLoader
	newClient ClientFactory
	timeout   time.Duration
	logger    *logrus.Entry
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithClientFactory replaces the S3 client constructor.
func WithClientFactory(f ClientFactory) Option {
	return func(u *Uploader) { u.newClient = f }
}

// WithTimeout bounds each upload. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(u *Uploader) { u.timeout = d }
}

// NewUploader creates an Uploader reading its configuration from configs.
func NewUploader(configs ConfigLoader, opts ...Option) *Uploader {
	u := &Uploader{
		configs:   configs,
		newClient: func(cfg *models.S3Config) ObjectPutter { return NewS3Client(cfg, nil) },
		logger:    logging.NewLogger("upload"),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// NewS3Client builds an S3 client with static credentials for cfg. A nil
// httpClient uses the SDK default.
func NewS3Client(cfg *models.S3Config, httpClient s3.HTTPClient) *s3.Client {
	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	if endpoint := cfg.Endpoint(); endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		// S3-compatible services generally need path-style addressing.
		opts.UsePathStyle = true
	}
	if cfg.UsePathStyle != nil {
		opts.UsePathStyle = *cfg.UsePathStyle
	}
	if httpClient != nil {
		opts.HTTPClient = httpClient
	}
	return s3.New(opts)
}

// Upload stores data under the configured prefix as fileName and returns
// the object's public URL. No client is created when no configuration is
// stored.
func (u *Uploader) Upload(ctx context.Context, fileName string, data []byte) (string, error) {
	if strings.TrimSpace(fileName) == "" {
		return "", errors.InvalidInput("file name must not be empty")
	}
	for _, seg := range strings.Split(fileName, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", errors.InvalidInput("invalid file name: " + fileName).WithDetail("file", fileName)
		}
	}

	cfg, err := u.configs.Load()
	if err != nil {
		return "", err
	}
	if cfg == nil {
		return "", errors.ConfigMissing("S3")
	}

	key := cfg.ObjectKey(fileName)
	sum := sha256.Sum256(data)
	checksum := base64.StdEncoding.EncodeToString(sum[:])

	input := &s3.PutObjectInput{
		Bucket:            aws.String(cfg.BucketName),
		Key:               aws.String(key),
		Body:              bytes.NewReader(data),
		ContentLength:     aws.Int64(int64(len(data))),
		ContentType:       aws.String(contentTypeFor(fileName)),
		ChecksumAlgorithm: types.ChecksumAlgorithmSha256,
		ChecksumSHA256:    aws.String(checksum),
	}

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	client := u.newClient(cfg)
	if _, err := client.PutObject(ctx, input); err != nil {
		remoteErr := errors.Remote("S3", err).
			WithDetail("bucket", cfg.BucketName).
			WithDetail("key", key)
		var apiErr smithy.APIError
		if stderrors.As(err, &apiErr) {
			remoteErr = remoteErr.WithDetail("aws_code", apiErr.ErrorCode())
		}
		u.logger.WithFields(logrus.Fields{
			"bucket": cfg.BucketName,
			"key":    key,
		}).WithError(err).Warn("Upload failed")
		return "", remoteErr
	}

	url := cfg.ObjectURL(key)
	u.logger.WithFields(logrus.Fields{
		"bucket": cfg.BucketName,
		"key":    key,
		"bytes":  len(data),
	}).Info("Uploaded object")
	return url, nil
}

func contentTypeFor(fileName string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(fileName))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

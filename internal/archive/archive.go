// Package archive uploads export snapshots to S3 before a system reset
// deletes the records they were taken from.
package archive

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/notifier/config"
)

// Archiver stores a named object and returns its location.
type Archiver interface {
	Store(ctx context.Context, key string, body io.Reader) (string, error)
}

type uploader interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// S3Archiver writes objects to a single bucket.
type S3Archiver struct {
	bucket   string
	uploader uploader
}

// Enabled reports whether cfg names a bucket.
func Enabled(cfg config.ArchiveConfig) bool {
	return cfg.S3BucketName != ""
}

func NewS3Archiver(cfg config.ArchiveConfig) (*S3Archiver, error) {
	if !Enabled(cfg) {
		return nil, errors.New("archive bucket is not configured")
	}

	awsCfg := aws.NewConfig().WithRegion(cfg.S3Region)
	if cfg.AwsAccessKeyId != "" {
		awsCfg = awsCfg.WithCredentials(credentials.NewStaticCredentials(cfg.AwsAccessKeyId, cfg.AwsSecretAccessKey, ""))
	}
	if cfg.S3Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.S3Endpoint).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating aws session")
	}

	return &S3Archiver{bucket: cfg.S3BucketName, uploader: s3manager.NewUploader(sess)}, nil
}

func (a *S3Archiver) Store(ctx context.Context, key string, body io.Reader) (string, error) {
	out, err := a.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return "", errors.Wrapf(err, "uploading %s to bucket %s", key, a.bucket)
	}

	logrus.WithFields(logrus.Fields{
		"bucket":   a.bucket,
		"key":      key,
		"location": out.Location,
	}).Info("archive uploaded")
	return out.Location, nil
}

// ResetKey names the snapshot taken before a reset at t.
func ResetKey(t time.Time) string {
	return fmt.Sprintf("resets/%s/notifier-records-%s.xlsx", t.UTC().Format("2006-01-02"), t.UTC().Format("150405"))
}

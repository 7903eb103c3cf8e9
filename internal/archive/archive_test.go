package archive

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blnkfinance/notifier/config"
)

type fakeUploader struct {
	input *s3manager.UploadInput
	body  string
	err   error
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, input *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	f.input = input
	b, _ := io.ReadAll(input.Body)
	f.body = string(b)
	if f.err != nil {
		return nil, f.err
	}
	return &s3manager.UploadOutput{Location: "https://bucket.s3.amazonaws.com/" + *input.Key}, nil
}

func TestStore(t *testing.T) {
	up := &fakeUploader{}
	a := &S3Archiver{bucket: "notifier-archive", uploader: up}

	location, err := a.Store(context.Background(), "resets/x.xlsx", strings.NewReader("data"))
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.s3.amazonaws.com/resets/x.xlsx", location)
	assert.Equal(t, "notifier-archive", *up.input.Bucket)
	assert.Equal(t, "data", up.body)
}

func TestStoreError(t *testing.T) {
	a := &S3Archiver{bucket: "b", uploader: &fakeUploader{err: errors.New("access denied")}}
	_, err := a.Store(context.Background(), "k", strings.NewReader(""))
	assert.EqualError(t, err, "uploading k to bucket b: access denied")
}

func TestNewS3Archiver(t *testing.T) {
	_, err := NewS3Archiver(config.ArchiveConfig{})
	assert.Error(t, err)
	assert.False(t, Enabled(config.ArchiveConfig{}))

	a, err := NewS3Archiver(config.ArchiveConfig{
		S3BucketName:       "b",
		S3Region:           "ap-south-1",
		S3Endpoint:         "http://localhost:9000",
		AwsAccessKeyId:     "id",
		AwsSecretAccessKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "b", a.bucket)
}

func TestResetKey(t *testing.T) {
	at := time.Date(2025, time.August, 5, 14, 3, 9, 0, time.UTC)
	assert.Equal(t, "resets/2025-08-05/notifier-records-140309.xlsx", ResetKey(at))
}

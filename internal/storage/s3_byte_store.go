package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/questdeck/questdeck/internal/domain"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

type s3ByteStore struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	bucket   string
}

type S3ByteStoreDependencies struct {
	Session *session.Session
	Bucket  string
}

func NewS3ByteStore(deps S3ByteStoreDependencies) domain.ByteStore {
	return &s3ByteStore{
		client:   s3.New(deps.Session),
		uploader: s3manager.NewUploader(deps.Session),
		bucket:   deps.Bucket,
	}
}

func (s *s3ByteStore) Write(ctx context.Context, id string, r io.Reader) error {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("failed to upload blob bytes: %w", err)
	}

	return nil
}

func (s *s3ByteStore) Read(ctx context.Context, id string) (io.ReadCloser, error) {
	result, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to read blob bytes: %w", err)
	}

	return result.Body, nil
}

func (s *s3ByteStore) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check blob bytes: %w", err)
	}

	return true, nil
}

func (s *s3ByteStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete blob bytes: %w", err)
	}

	return nil
}

func isNotFound(err error) bool {
	var awsErr awserr.Error
	if !errors.As(err, &awsErr) {
		return false
	}

	switch awsErr.Code() {
	case s3.ErrCodeNoSuchKey, "NotFound":
		return true
	}

	return false
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

type S3Storage struct {
	Bucket   Bucket
	s3Client *s3.S3
}

func NewS3Storage(bucket Bucket) (*S3Storage, error) {
	if bucket.Name == "" {
		return nil, errors.New("bucket name is required")
	}
	svc, err := bucket.CreateSVC()
	if err != nil {
		return nil, fmt.Errorf("s3 session: %w", err)
	}
	return &S3Storage{Bucket: bucket, s3Client: svc}, nil
}

func (s *S3Storage) Location() string {
	return "s3://" + s.Bucket.Name + "/" + s.Bucket.GetRemotePath("")
}

func (s *S3Storage) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.s3Client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.Bucket.Name),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var aerr awserr.RequestFailure
	if errors.As(err, &aerr) && aerr.StatusCode() == 404 {
		return false, nil
	}
	return false, err
}

// Save uploads the object unless the key is already taken. The check and
// the upload are two requests; names are unique per call, so they do not race.
func (s *S3Storage) Save(ctx context.Context, name string, reader io.Reader, size int64) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, name)
	}
	key := s.Bucket.GetRemotePath(name)
	found, err := s.exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("head %s: %w", key, err)
	}
	if found {
		return "", fmt.Errorf("%w: s3://%s/%s", ErrExists, s.Bucket.Name, key)
	}

	uploader := s3manager.NewUploaderWithClient(s.s3Client)
	_, err = uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.Bucket.Name),
		Key:         aws.String(key),
		ContentType: aws.String("application/octet-stream"),
		Body:        reader,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return "s3://" + s.Bucket.Name + "/" + key, nil
}

package storage

import (
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Bucket describes where in S3 (or an S3 compatible service) backups go.
type Bucket struct {
	Name        string
	Path        string // Prefix in the bucket
	Region      string
	Endpoint    string // Empty for AWS
	AuthDetails string // "key:secret", empty for the default credential chain
}

func (b *Bucket) GetRemotePath(name string) string {
	if b.Path == "" {
		return name
	}
	return strings.TrimSuffix(b.Path, "/") + "/" + name
}

func (b *Bucket) CreateSVC() (*s3.S3, error) {
	cfg := aws.NewConfig().WithRegion(b.Region)
	if b.Endpoint != "" {
		cfg = cfg.WithEndpoint(b.Endpoint).WithS3ForcePathStyle(true)
	}
	if b.AuthDetails != "" {
		key, secret, _ := strings.Cut(b.AuthDetails, ":")
		cfg = cfg.WithCredentials(credentials.NewStaticCredentials(key, secret, ""))
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return s3.New(sess), nil
}

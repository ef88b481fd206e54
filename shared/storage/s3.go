package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/tenancy"
)

// BlobStore implements the two-phase upload: the client receives a
// presigned URL and later submits the returned storage id as a field value.
type BlobStore interface {
	UploadURL(ctx context.Context, tenantID uuid.UUID, contentType string) (url string, storageID string, err error)
	URL(ctx context.Context, tenantID uuid.UUID, storageID string) (string, error)
}

// S3Store presigns S3 requests. Storage ids are object keys prefixed by the
// owning tenant.
type S3Store struct {
	client s3iface.S3API
	bucket string
	ttl    time.Duration
}

func NewS3Store(region, bucket string) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewS3StoreWithClient(s3.New(sess), bucket), nil
}

func NewS3StoreWithClient(client s3iface.S3API, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket, ttl: 15 * time.Minute}
}

func objectKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("%s/%s", tenantID, uuid.New())
}

func (s *S3Store) UploadURL(ctx context.Context, tenantID uuid.UUID, contentType string) (string, string, error) {
	key := objectKey(tenantID)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	req, _ := s.client.PutObjectRequest(input)
	req.SetContext(ctx)
	url, err := req.Presign(s.ttl)
	if err != nil {
		return "", "", fmt.Errorf("failed to presign upload: %w", err)
	}
	return url, key, nil
}

// URL resolves a storage id to a presigned GET URL. Ids outside the
// tenant's prefix are reported as not found.
func (s *S3Store) URL(ctx context.Context, tenantID uuid.UUID, storageID string) (string, error) {
	if !strings.HasPrefix(storageID, tenantID.String()+"/") {
		return "", tenancy.NotFound("File")
	}

	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageID),
	})
	req.SetContext(ctx)
	url, err := req.Presign(s.ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return url, nil
}

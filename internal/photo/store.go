package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/yukikurage/timecard-api/internal/config"
)

// Store persists normalized photos and resolves the reference kept on a record.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, ref string) ([]byte, string, error)
	Delete(ctx context.Context, ref string) error
}

// InlineStore keeps the photo inside the reference itself as a data URL.
type InlineStore struct{}

func (InlineStore) Put(_ context.Context, _ string, data []byte, contentType string) (string, error) {
	return DataURL(data, contentType), nil
}

func (InlineStore) Get(_ context.Context, ref string) ([]byte, string, error) {
	return ParseDataURL(ref)
}

// Delete is a no-op: the data lives in the reference.
func (InlineStore) Delete(context.Context, string) error {
	return nil
}

// S3Store uploads photos to a bucket and stores s3://bucket/key references.
// Inline references written before the switch stay readable.
type S3Store struct {
	client *s3.Client
	bucket string
}

func NewS3Store(cfg *config.Config) *S3Store {
	var creds aws.CredentialsProvider = aws.AnonymousCredentials{}
	if cfg.S3AccessKey != "" {
		creds = credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")
	}

	client := s3.New(s3.Options{
		Region:      cfg.S3Region,
		Credentials: creds,
	}, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: cfg.PhotoBucket}
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload photo %s: %w", key, err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}

func (s *S3Store) Get(ctx context.Context, ref string) ([]byte, string, error) {
	if strings.HasPrefix(ref, "data:") {
		return ParseDataURL(ref)
	}

	bucket, key, ok := splitS3Ref(ref)
	if !ok {
		return nil, "", fmt.Errorf("%w: unknown reference", ErrInvalidPhoto)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, "", ErrPhotoNotFound
		}
		return nil, "", fmt.Errorf("download photo %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read photo %s: %w", key, err)
	}
	contentType := ContentTypeJPEG
	if out.ContentType != nil {
		contentType = *out.ContentType
	}
	return data, contentType, nil
}

// Delete removes an uploaded object. Inline references need no cleanup.
func (s *S3Store) Delete(ctx context.Context, ref string) error {
	if strings.HasPrefix(ref, "data:") {
		return nil
	}
	bucket, key, ok := splitS3Ref(ref)
	if !ok {
		return fmt.Errorf("%w: unknown reference", ErrInvalidPhoto)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete photo %s: %w", key, err)
	}
	return nil
}

func splitS3Ref(ref string) (string, string, bool) {
	rest, ok := strings.CutPrefix(ref, "s3://")
	if !ok {
		return "", "", false
	}
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// NewStore builds the store selected by cfg.PhotoStorage.
func NewStore(cfg *config.Config) Store {
	if cfg.PhotoStorage == "s3" {
		return NewS3Store(cfg)
	}
	return InlineStore{}
}

// Processor turns request payloads into stored photo references.
type Processor struct {
	store        Store
	prefix       string
	maxBytes     int
	maxDimension int
}

func NewProcessor(store Store, prefix string, maxBytes, maxDimension int) *Processor {
	return &Processor{store: store, prefix: prefix, maxBytes: maxBytes, maxDimension: maxDimension}
}

// Save stores payload for userID. An empty payload yields a nil reference.
func (p *Processor) Save(ctx context.Context, userID, kind, payload string) (*string, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, nil
	}

	raw, err := Decode(payload, p.maxBytes)
	if err != nil {
		return nil, err
	}
	normalized, err := Normalize(raw, p.maxDimension)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s%s/%s-%s.jpg", p.prefix, userID, kind, uuid.NewString())
	ref, err := p.store.Put(ctx, key, normalized, ContentTypeJPEG)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// Load resolves a stored reference.
func (p *Processor) Load(ctx context.Context, ref string) ([]byte, string, error) {
	return p.store.Get(ctx, ref)
}

func (p *Processor) Delete(ctx context.Context, ref string) error {
	return p.store.Delete(ctx, ref)
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/dmitrijs2005/braindock/internal/lww"
	"github.com/dmitrijs2005/braindock/internal/models"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// objectStore is the subset of *s3.Client used by S3Authority.
type objectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config selects the bucket and credentials of an S3Authority. Empty
// AccessKey falls back to the default AWS credential chain; a non-empty
// BaseEndpoint targets an S3-compatible server (MinIO) with path-style URLs.
type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	Prefix       string
	MaxListLimit int
}

// S3Authority stores each entry as one JSON object under
// <prefix>entries/<id>.json. The object key is the remote id.
type S3Authority struct {
	store        objectStore
	bucket       string
	prefix       string
	maxListLimit int
}

func NewS3Authority(ctx context.Context, c S3Config) (*S3Authority, error) {
	if c.Bucket == "" {
		return nil, common.Invalid("s3_bucket", "must not be empty")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")))
	}
	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Authority(client, c), nil
}

func newS3Authority(store objectStore, c S3Config) *S3Authority {
	prefix := c.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	limit := c.MaxListLimit
	if limit <= 0 {
		limit = 1000
	}
	return &S3Authority{store: store, bucket: c.Bucket, prefix: prefix, maxListLimit: limit}
}

func (s *S3Authority) entriesPrefix() string { return s.prefix + "entries/" }

func (s *S3Authority) key(id string) string { return s.entriesPrefix() + id + ".json" }

func (s *S3Authority) get(ctx context.Context, key string) (*models.Entry, error) {
	out, err := s.store.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		var nsk *types.NoSuchKey
		var nf *types.NotFound
		if errors.As(err, &nsk) || errors.As(err, &nf) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	var e models.Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode object %s: %w", key, err)
	}
	e.RemoteID = key
	e.SyncStatus = models.SyncStatusSynced
	return &e, nil
}

// Push writes the object unless the stored copy is at least as new.
func (s *S3Authority) Push(ctx context.Context, e models.Entry) (string, error) {
	key := s.key(e.ID)

	current, err := s.get(ctx, key)
	switch {
	case errors.Is(err, common.ErrNotFound):
	case err != nil:
		return "", err
	case lww.Decide(*current, e) != lww.TakeIncoming:
		return key, nil
	}

	e.RemoteID = key
	e.SyncStatus = ""
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode entry %s: %w", e.ID, err)
	}
	_, err = s.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(b),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

func (s *S3Authority) Read(ctx context.Context, id string) (*models.Entry, error) {
	return s.get(ctx, s.key(id))
}

// List reads every object under the entries prefix and filters client-side.
func (s *S3Authority) List(ctx context.Context, f models.Filter) ([]models.Entry, error) {
	var all []models.Entry

	p := s3.NewListObjectsV2Paginator(s.store, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.entriesPrefix()),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			e, err := s.get(ctx, key)
			if err != nil {
				return nil, err
			}
			all = append(all, *e)
		}
	}
	return f.Apply(all, s.maxListLimit), nil
}

// Ping checks that the bucket is listable.
func (s *S3Authority) Ping(ctx context.Context) error {
	_, err := s.store.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.entriesPrefix()),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrRemoteUnavailable, err)
	}
	return nil
}

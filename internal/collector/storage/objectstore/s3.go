// Package objectstore implements a storage.Backend over an S3-compatible
// object store (AWS S3 or a MinIO-compatible endpoint).
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"xrdcc/internal/collector/storage"
)

// Settings configures the client against a MinIO-compatible endpoint or
// native AWS S3.
type Settings struct {
	URL       string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	PathStyle bool
	Secure    bool

	// KeyPrefix is prepended to every key, already canonicalized to
	// either "" or "<segments>/" (see CanonicalizePrefix).
	KeyPrefix string
}

// CanonicalizePrefix trims leading/trailing slashes from an object-store
// path prefix and appends exactly one trailing slash when non-empty.
func CanonicalizePrefix(p string) string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return ""
	}
	return trimmed + "/"
}

// Filer is a storage.Filer backed by an S3-compatible bucket; all keys
// are relative to bucket/prefix.
type Filer struct {
	client *s3.Client
	bucket string
	prefix string
}

func (f *Filer) key(relPath string) string {
	return f.prefix + relPath
}

// NewFiler builds a Filer from Settings. A non-empty URL selects a
// custom endpoint (MinIO); an empty URL falls back to native AWS S3
// endpoint resolution.
func NewFiler(ctx context.Context, s Settings) (*Filer, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, "")),
	}
	if s.URL != "" {
		endpoint := s.URL
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               endpoint,
					SigningRegion:     region,
					HostnameImmutable: true,
				}, nil
			})))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("objectstore: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = s.PathStyle
	})

	return &Filer{client: client, bucket: s.Bucket, prefix: s.KeyPrefix}, nil
}

func (f *Filer) EnsureDir(_ context.Context, _ string) error {
	// Prefixes need no explicit creation in an object store.
	return nil
}

func (f *Filer) List(ctx context.Context, prefix string, recursive bool) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(f.bucket),
		Prefix: aws.String(normalizedPrefix(f.key(prefix))),
	}
	if !recursive {
		input.Delimiter = aws.String("/")
	}

	var out []string
	paginator := s3.NewListObjectsV2Paginator(f.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("objectstore: list %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				out = append(out, strings.TrimPrefix(*obj.Key, f.prefix))
			}
		}
		if !recursive {
			for _, p := range page.CommonPrefixes {
				if p.Prefix != nil {
					out = append(out, strings.TrimPrefix(strings.TrimSuffix(*p.Prefix, "/"), f.prefix))
				}
			}
		}
	}
	return out, nil
}

func normalizedPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	return strings.TrimSuffix(prefix, "/") + "/"
}

func (f *Filer) Get(ctx context.Context, filePath string) ([]byte, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key(filePath)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("objectstore: %q not found: %w", filePath, err)
		}
		return nil, fmt.Errorf("objectstore: get %q: %w", filePath, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (f *Filer) Put(ctx context.Context, filePath string, data []byte, contentType string) error {
	_, err := f.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(f.bucket),
		Key:         aws.String(f.key(filePath)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("objectstore: put %q: %w", filePath, err)
	}
	return nil
}

func (f *Filer) Delete(ctx context.Context, filePath string) error {
	_, err := f.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key(filePath)),
	})
	if err != nil {
		return fmt.Errorf("objectstore: delete %q: %w", filePath, err)
	}
	return nil
}

func (f *Filer) Copy(ctx context.Context, srcPath, dstPath string) error {
	_, err := f.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(f.bucket),
		CopySource: aws.String(f.bucket + "/" + f.key(srcPath)),
		Key:        aws.String(f.key(dstPath)),
	})
	if err != nil {
		return fmt.Errorf("objectstore: copy %q to %q: %w", srcPath, dstPath, err)
	}
	return nil
}

// NewBackend builds a storage.Backend over an S3-compatible bucket,
// using cfg for retention tunables.
func NewBackend(ctx context.Context, s Settings, cfg storage.Config, logger zerolog.Logger) (storage.Backend, error) {
	filer, err := NewFiler(ctx, s)
	if err != nil {
		return nil, err
	}
	core := storage.NewCore(filer, cfg, logger)
	core.Activate()
	return core, nil
}
